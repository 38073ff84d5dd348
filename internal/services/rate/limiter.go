package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// LimitError carries the wait before the next hit of Rule is accepted.
type LimitError struct {
	Rule          string
	RetryAfterSec int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded: retry after %ds", e.Rule, e.RetryAfterSec)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Rule caps a named action at Limit hits per Window for each user.
// A non-positive Limit disables the rule.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

func SubmissionsRule(perHour int) Rule {
	return Rule{Name: "submissions", Limit: perHour, Window: time.Hour}
}

func VotesRule(perMinute int) Rule {
	return Rule{Name: "votes", Limit: perMinute, Window: time.Minute}
}

func UploadsRule(perHour int) Rule {
	return Rule{Name: "uploads", Limit: perHour, Window: time.Hour}
}

type Limiter struct {
	store WindowStore
}

func NewLimiter(store WindowStore) *Limiter {
	return &Limiter{store: store}
}

// Allow records a hit and reports whether it fits the rule. When it does not,
// the first return value is the number of seconds until the window resets.
func (l *Limiter) Allow(ctx context.Context, rule Rule, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return 0, true, nil
	}
	if l == nil || l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, ruleKey(rule, userID), rule.Window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(rule.Limit) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

// Check is Allow folded into a single error: nil when allowed, *LimitError when not.
func (l *Limiter) Check(ctx context.Context, rule Rule, userID int64) error {
	retryAfter, allowed, err := l.Allow(ctx, rule, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return &LimitError{Rule: rule.Name, RetryAfterSec: retryAfter}
	}
	return nil
}

func ruleKey(rule Rule, userID int64) string {
	return rule.Name + ":" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
