package votes

import (
	"context"
	"errors"
	"testing"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/rate"
)

type voteKey struct {
	target model.VoteTarget
	id     int64
	user   int64
}

// memoryVotes mirrors the toggle semantics of pgrepo.VoteRepo.
type memoryVotes struct {
	votes  map[voteKey]int
	scores map[int64]int64
	known  map[int64]bool
}

func (m *memoryVotes) Toggle(_ context.Context, target model.VoteTarget, targetID, userID int64, value int) (model.VoteResult, error) {
	if !m.known[targetID] {
		return model.VoteResult{}, pgrepo.ErrVoteTargetNotFound
	}
	key := voteKey{target, targetID, userID}
	existing := m.votes[key]
	result := model.VoteResult{}
	if existing == value {
		delete(m.votes, key)
		m.scores[targetID] -= int64(value)
	} else {
		m.votes[key] = value
		m.scores[targetID] += int64(value - existing)
		result.UserValue = value
	}
	result.Score = m.scores[targetID]
	return result, nil
}

type blockingLimiter struct {
	block bool
}

func (b *blockingLimiter) Check(_ context.Context, rule rate.Rule, _ int64) error {
	if b.block {
		return &rate.LimitError{Rule: rule.Name, RetryAfterSec: 30}
	}
	return nil
}

type invalidations struct {
	kinds []enums.ContentKind
}

func (i *invalidations) InvalidateListings(_ context.Context, kinds ...enums.ContentKind) {
	i.kinds = append(i.kinds, kinds...)
}

func newVotesForTest() (*Service, *blockingLimiter, *invalidations) {
	store := &memoryVotes{votes: map[voteKey]int{}, scores: map[int64]int64{}, known: map[int64]bool{1: true}}
	limiter := &blockingLimiter{}
	cache := &invalidations{}
	return NewService(store, limiter, cache, 30, nil), limiter, cache
}

func TestVoteToggleAndSwitch(t *testing.T) {
	svc, _, cache := newVotesForTest()
	ctx := context.Background()

	steps := []struct {
		user      int64
		value     int
		wantScore int64
		wantValue int
	}{
		{user: 1, value: 1, wantScore: 1, wantValue: 1},
		{user: 2, value: 1, wantScore: 2, wantValue: 1},
		{user: 1, value: -1, wantScore: 0, wantValue: -1},
		{user: 1, value: -1, wantScore: 1, wantValue: 0},
	}
	for i, step := range steps {
		got, err := svc.Vote(ctx, step.user, model.VoteTargetAirdrop, 1, step.value)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Score != step.wantScore || got.UserValue != step.wantValue {
			t.Fatalf("step %d: got score=%d value=%d want score=%d value=%d", i, got.Score, got.UserValue, step.wantScore, step.wantValue)
		}
	}
	if len(cache.kinds) != len(steps) || cache.kinds[0] != enums.ContentKindAirdrop {
		t.Fatalf("unexpected invalidations: %v", cache.kinds)
	}
}

func TestUpvoteMemeTogglesOff(t *testing.T) {
	svc, _, _ := newVotesForTest()
	ctx := context.Background()

	if got, err := svc.UpvoteMeme(ctx, 5, 1); err != nil || got.Score != 1 {
		t.Fatalf("first upvote: score=%d err=%v", got.Score, err)
	}
	if got, err := svc.UpvoteMeme(ctx, 5, 1); err != nil || got.Score != 0 || got.UserValue != 0 {
		t.Fatalf("second upvote should remove the vote: %+v err=%v", got, err)
	}
}

func TestVoteErrors(t *testing.T) {
	svc, limiter, _ := newVotesForTest()
	ctx := context.Background()

	if _, err := svc.Vote(ctx, 1, model.VoteTargetPresale, 99, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Vote(ctx, 1, model.VoteTargetPresale, 1, 2); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := svc.Vote(ctx, 1, "article", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown target, got %v", err)
	}

	limiter.block = true
	if _, err := svc.Vote(ctx, 1, model.VoteTargetAirdrop, 1, 1); !errors.Is(err, rate.ErrLimitExceeded) {
		t.Fatalf("expected rate.ErrLimitExceeded, got %v", err)
	}
}
