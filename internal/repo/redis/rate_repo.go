package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const ratePrefix = "rate:"

// hitScript bumps a fixed window counter and arms its expiry on the first hit,
// returning the count and the remaining window in milliseconds.
var hitScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type RateRepo struct {
	client *goredis.Client
}

func NewRateRepo(client *goredis.Client) *RateRepo {
	return &RateRepo{client: client}
}

func (r *RateRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, errors.New("redis client is nil")
	}
	if key == "" || window < time.Millisecond {
		return 0, 0, fmt.Errorf("invalid rate window for %q", key)
	}

	res, err := hitScript.Run(ctx, r.client, []string{ratePrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("count rate hit %q: %w", key, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("count rate hit %q: unexpected reply %v", key, res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
