package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const viewPrefix = "view:"

type ViewRepo struct {
	client *goredis.Client
}

func NewViewRepo(client *goredis.Client) *ViewRepo {
	return &ViewRepo{client: client}
}

// MarkViewed reports true the first time a viewer is seen for an item inside window.
func (r *ViewRepo) MarkViewed(ctx context.Context, kind string, id int64, viewer string, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(kind) == "" || id <= 0 || strings.TrimSpace(viewer) == "" {
		return false, fmt.Errorf("invalid view payload")
	}
	if window <= 0 {
		window = 24 * time.Hour
	}

	key := viewPrefix + kind + ":" + strconv.FormatInt(id, 10) + ":" + viewer
	first, err := r.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("mark view: %w", err)
	}
	return first, nil
}
