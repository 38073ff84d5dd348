package votes

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/rate"
)

var (
	ErrNotFound     = errors.New("vote target not found")
	ErrInvalidValue = errors.New("vote value must be 1 or -1")
)

type Store interface {
	Toggle(ctx context.Context, target model.VoteTarget, targetID, userID int64, value int) (model.VoteResult, error)
}

type RateLimiter interface {
	Check(ctx context.Context, rule rate.Rule, userID int64) error
}

type CacheInvalidator interface {
	InvalidateListings(ctx context.Context, kinds ...enums.ContentKind)
}

type Service struct {
	store     Store
	limiter   RateLimiter
	cache     CacheInvalidator
	perMinute int
	logger    *zap.Logger
}

func NewService(store Store, limiter RateLimiter, cache CacheInvalidator, perMinute int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		limiter:   limiter,
		cache:     cache,
		perMinute: perMinute,
		logger:    logger,
	}
}

// UpvoteMeme toggles the user's upvote on a meme.
func (s *Service) UpvoteMeme(ctx context.Context, userID, memeID int64) (model.VoteResult, error) {
	return s.Vote(ctx, userID, model.VoteTargetMeme, memeID, 1)
}

// Vote records value (+1 or -1); voting the same value twice removes the vote.
func (s *Service) Vote(ctx context.Context, userID int64, target model.VoteTarget, targetID int64, value int) (model.VoteResult, error) {
	if userID <= 0 {
		return model.VoteResult{}, fmt.Errorf("invalid user id")
	}
	if !target.Valid() || targetID <= 0 {
		return model.VoteResult{}, ErrNotFound
	}
	if value != 1 && value != -1 {
		return model.VoteResult{}, ErrInvalidValue
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, rate.VotesRule(s.perMinute), userID); err != nil {
			return model.VoteResult{}, err
		}
	}

	result, err := s.store.Toggle(ctx, target, targetID, userID, value)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrVoteTargetNotFound):
			return model.VoteResult{}, ErrNotFound
		case errors.Is(err, pgrepo.ErrInvalidVote):
			return model.VoteResult{}, ErrInvalidValue
		}
		return model.VoteResult{}, err
	}

	if s.cache != nil {
		s.cache.InvalidateListings(ctx, kindFor(target))
	}
	s.logger.Debug("vote recorded",
		zap.String("target", string(target)),
		zap.Int64("target_id", targetID),
		zap.Int64("user_id", userID),
		zap.Int64("score", result.Score),
	)

	return result, nil
}

func kindFor(target model.VoteTarget) enums.ContentKind {
	switch target {
	case model.VoteTargetAirdrop:
		return enums.ContentKindAirdrop
	case model.VoteTargetPresale:
		return enums.ContentKindPresale
	default:
		return enums.ContentKindMeme
	}
}
