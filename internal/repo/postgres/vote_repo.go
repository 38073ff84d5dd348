package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
)

var (
	ErrVoteTargetNotFound = errors.New("vote target not found")
	ErrInvalidVote        = errors.New("invalid vote")
)

type voteTable struct {
	name       string
	visibility string
	scoreCol   string
}

var voteTables = map[model.VoteTarget]voteTable{
	model.VoteTargetMeme:    {name: "memes", visibility: catalogTables[enums.ContentKindMeme].visibility, scoreCol: "upvotes"},
	model.VoteTargetAirdrop: {name: "airdrops", visibility: catalogTables[enums.ContentKindAirdrop].visibility, scoreCol: "score"},
	model.VoteTargetPresale: {name: "presales", visibility: catalogTables[enums.ContentKindPresale].visibility, scoreCol: "score"},
}

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Toggle records value for the user; repeating the same value removes the vote.
func (r *VoteRepo) Toggle(ctx context.Context, target model.VoteTarget, targetID, userID int64, value int) (model.VoteResult, error) {
	if r.pool == nil {
		return model.VoteResult{}, errNilPool
	}
	table, ok := voteTables[target]
	if !ok || targetID <= 0 || userID <= 0 || (value != 1 && value != -1) {
		return model.VoteResult{}, ErrInvalidVote
	}

	var result model.VoteResult
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx, `
SELECT 1 FROM `+table.name+` WHERE id = $1 AND `+table.visibility+` FOR UPDATE
`, targetID).Scan(&one)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVoteTargetNotFound
			}
			return fmt.Errorf("lock vote target: %w", err)
		}

		var existing int
		err = tx.QueryRow(ctx, `
SELECT value FROM votes
WHERE target_type = $1 AND target_id = $2 AND user_id = $3
FOR UPDATE
`, string(target), targetID, userID).Scan(&existing)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lookup vote: %w", err)
		}

		var delta int
		switch {
		case existing == value:
			if _, err := tx.Exec(ctx, `
DELETE FROM votes WHERE target_type = $1 AND target_id = $2 AND user_id = $3
`, string(target), targetID, userID); err != nil {
				return fmt.Errorf("delete vote: %w", err)
			}
			delta = -value
			result.UserValue = 0
		default:
			if _, err := tx.Exec(ctx, `
INSERT INTO votes (target_type, target_id, user_id, value, created_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (target_type, target_id, user_id) DO UPDATE SET value = EXCLUDED.value, created_at = NOW()
`, string(target), targetID, userID, value); err != nil {
				return fmt.Errorf("upsert vote: %w", err)
			}
			delta = value - existing
			result.UserValue = value
		}

		if err := tx.QueryRow(ctx, `
UPDATE `+table.name+` SET `+table.scoreCol+` = `+table.scoreCol+` + $2 WHERE id = $1
RETURNING `+table.scoreCol, targetID, delta).Scan(&result.Score); err != nil {
			return fmt.Errorf("update vote score: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.VoteResult{}, err
	}

	return result, nil
}
