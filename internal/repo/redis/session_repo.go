package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/coinmews/coinmews/internal/domain/enums"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
)

const (
	sessionPrefix        = "auth:session:"
	refreshPrefix        = "auth:refresh:"
	sessionRefreshPrefix = "auth:session_refresh:"
	userSessionsPrefix   = "auth:user_sessions:"
)

// SessionRepo keeps refresh sessions. Refresh tokens are only stored hashed.
type SessionRepo struct {
	client *goredis.Client
	now    func() time.Time
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client, now: time.Now}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID <= 0 || ttl <= 0 {
		return authsvc.ErrInvalidInput
	}

	pipe := r.client.TxPipeline()
	writeSession(ctx, pipe, session, authsvc.HashToken(refreshToken), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create redis session: %w", err)
	}

	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	session.SID = sid
	return session, nil
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	return r.lookupRefresh(ctx, r.client, authsvc.HashToken(refreshToken))
}

// RotateRefresh swaps the refresh token of a session. The old token is
// watched so two concurrent rotations cannot both succeed.
func (r *SessionRepo) RotateRefresh(ctx context.Context, oldRefreshToken, newRefreshToken string, ttl time.Duration) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(newRefreshToken) == "" || ttl <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrInvalidInput
	}

	oldHash := authsvc.HashToken(oldRefreshToken)
	newHash := authsvc.HashToken(newRefreshToken)

	var rotated authsvc.SessionRecord
	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		session, err := r.lookupRefresh(ctx, tx, oldHash)
		if err != nil {
			return err
		}

		exists, err := tx.Exists(ctx, sessionKey(session.SID)).Result()
		if err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		if exists == 0 {
			return authsvc.ErrSessionNotFound
		}

		session.ExpiresAt = r.now().UTC().Add(ttl)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, refreshKey(oldHash))
			writeSession(ctx, pipe, session, newHash, ttl)
			return nil
		})
		if err != nil {
			return err
		}

		rotated = session
		return nil
	}, refreshKey(oldHash))
	if err != nil {
		if errors.Is(err, goredis.TxFailedErr) {
			return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
		}
		if errors.Is(err, authsvc.ErrRefreshNotFound) || errors.Is(err, authsvc.ErrSessionNotFound) || errors.Is(err, authsvc.ErrUnauthorized) {
			return authsvc.SessionRecord{}, err
		}
		return authsvc.SessionRecord{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return rotated, nil
}

// SetRole rewrites the role cached on a live session and its current refresh entry.
func (r *SessionRepo) SetRole(ctx context.Context, sid string, role enums.Role) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" || !role.Valid() {
		return authsvc.ErrInvalidInput
	}

	exists, err := r.client.Exists(ctx, sessionKey(sid)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return authsvc.ErrSessionNotFound
	}

	refreshHash, err := r.client.Get(ctx, sessionRefreshKey(sid)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session refresh pointer: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(sid), "role", string(role))
		if refreshHash != "" {
			pipe.HSet(ctx, refreshKey(refreshHash), "role", string(role))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set session role: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	sessionValues, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return fmt.Errorf("load session for delete: %w", err)
	}

	refreshHash, err := r.client.Get(ctx, sessionRefreshKey(sid)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session refresh pointer: %w", err)
	}

	var userID int64
	if value, ok := sessionValues["user_id"]; ok {
		parsed, parseErr := strconv.ParseInt(value, 10, 64)
		if parseErr == nil && parsed > 0 {
			userID = parsed
		}
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sid), sessionRefreshKey(sid))
	if refreshHash != "" {
		pipe.Del(ctx, refreshKey(refreshHash))
	}
	if userID > 0 {
		pipe.SRem(ctx, userSessionsKey(userID), sid)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	for _, sid := range sids {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return err
		}
	}

	if err := r.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete user sessions key: %w", err)
	}

	return nil
}

func (r *SessionRepo) lookupRefresh(ctx context.Context, cmd goredis.Cmdable, refreshHash string) (authsvc.SessionRecord, error) {
	values, err := cmd.HGetAll(ctx, refreshKey(refreshHash)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh hash: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}

	sid := strings.TrimSpace(values["sid"])
	if sid == "" {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	session.SID = sid

	return session, nil
}

func writeSession(ctx context.Context, pipe goredis.Pipeliner, session authsvc.SessionRecord, refreshHash string, ttl time.Duration) {
	fields := map[string]interface{}{
		"user_id":    session.UserID,
		"role":       string(session.Role),
		"expires_at": session.ExpiresAt.Unix(),
	}

	pipe.HSet(ctx, sessionKey(session.SID), fields)
	pipe.Expire(ctx, sessionKey(session.SID), ttl)
	pipe.HSet(ctx, refreshKey(refreshHash), map[string]interface{}{
		"user_id":    session.UserID,
		"sid":        session.SID,
		"role":       string(session.Role),
		"expires_at": session.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, refreshKey(refreshHash), ttl)
	pipe.Set(ctx, sessionRefreshKey(session.SID), refreshHash, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.SID)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
}

func parseSessionRecord(values map[string]string) (authsvc.SessionRecord, error) {
	userID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		UserID:    userID,
		Role:      enums.Role(values["role"]),
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}

func refreshKey(hash string) string {
	return refreshPrefix + hash
}

func sessionRefreshKey(sid string) string {
	return sessionRefreshPrefix + sid
}

func userSessionsKey(userID int64) string {
	return userSessionsPrefix + strconv.FormatInt(userID, 10)
}
