package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/coinmews/coinmews/internal/repo/redis"
)

func TestLimiterBlocksSubmissionsPerHour(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client))
	rule := SubmissionsRule(2)

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, rule, userID)
		if err != nil {
			t.Fatalf("allow submission #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, rule, userID)
	if err != nil {
		t.Fatalf("allow submission #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third submission in the hour")
	}
	if retryAfter <= 0 || retryAfter > 3600 {
		t.Fatalf("unexpected retry_after: %d", retryAfter)
	}

	mr.FastForward(time.Hour + time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, rule, userID)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterRulesAreIndependent(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client))
	ctx := context.Background()

	if _, allowed, err := limiter.Allow(ctx, VotesRule(1), 7); err != nil || !allowed {
		t.Fatalf("first vote: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.Allow(ctx, VotesRule(1), 7); err != nil || allowed {
		t.Fatalf("second vote should be blocked: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.Allow(ctx, SubmissionsRule(1), 7); err != nil || !allowed {
		t.Fatalf("submission should use its own window: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.Allow(ctx, VotesRule(1), 8); err != nil || !allowed {
		t.Fatalf("other user should not be limited: allowed=%v err=%v", allowed, err)
	}
}

func TestCheckReturnsLimitError(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client))
	ctx := context.Background()

	if err := limiter.Check(ctx, UploadsRule(1), 3); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	err := limiter.Check(ctx, UploadsRule(1), 3)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	var limitErr *LimitError
	if !errors.As(err, &limitErr) || limitErr.Rule != "uploads" || limitErr.RetryAfterSec <= 0 {
		t.Fatalf("unexpected limit error: %+v", limitErr)
	}
}

func TestDisabledRuleAlwaysAllows(t *testing.T) {
	limiter := NewLimiter(nil)

	for i := 0; i < 5; i++ {
		if _, allowed, err := limiter.Allow(context.Background(), VotesRule(0), 1); err != nil || !allowed {
			t.Fatalf("disabled rule should allow: allowed=%v err=%v", allowed, err)
		}
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
