package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
)

func TestReposReportNilPool(t *testing.T) {
	ctx := context.Background()

	calls := map[string]func() error{
		"with tx": func() error {
			return WithTx(ctx, nil, func(context.Context, pgx.Tx) error { return nil })
		},
		"user create": func() error {
			_, err := NewUserRepo(nil).Create(ctx, "a@example.com", "A", "hash", enums.RoleUser)
			return err
		},
		"user set role": func() error {
			return NewUserRepo(nil).SetRole(ctx, 1, enums.RoleAdmin)
		},
		"exchange list": func() error {
			_, _, err := NewExchangeRepo(nil).ListVisible(ctx, CatalogFilter{})
			return err
		},
		"timeline list due": func() error {
			_, err := NewTimelineRepo(nil).ListDue(ctx, enums.ModelTypePresale, time.Now(), 0, 10)
			return err
		},
		"timeline advance": func() error {
			_, err := NewTimelineRepo(nil).Advance(ctx, enums.ModelTypePresale, 1, "upcoming", "ongoing")
			return err
		},
		"media orphans": func() error {
			_, err := NewMediaRepo(nil).ListOrphans(ctx, time.Now(), 10)
			return err
		},
		"vote toggle": func() error {
			_, err := NewVoteRepo(nil).Toggle(ctx, model.VoteTargetMeme, 1, 1, 1)
			return err
		},
		"catalog views": func() error {
			return NewCatalogRepo(nil).IncrementViews(ctx, enums.ContentKindArticle, 1)
		},
		"submission get": func() error {
			_, err := NewSubmissionRepo(nil).Get(ctx, 1)
			return err
		},
	}

	for name, call := range calls {
		if err := call(); !errors.Is(err, errNilPool) {
			t.Fatalf("%s: expected errNilPool, got %v", name, err)
		}
	}
}
