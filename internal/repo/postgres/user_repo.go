package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrTelegramLinked = errors.New("telegram account already linked")
)

const userColumns = `id, email, display_name, password_hash, role, telegram_id, totp_secret, totp_enabled, is_active, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, email, displayName, passwordHash string, role enums.Role) (model.User, error) {
	if r.pool == nil {
		return model.User{}, errNilPool
	}
	if role == "" {
		role = enums.RoleUser
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (email, display_name, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING `+userColumns, strings.ToLower(strings.TrimSpace(email)), displayName, passwordHash, string(role)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, "find user by email", `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (model.User, error) {
	return r.findOne(ctx, "find user by id", `WHERE id = $1`, id)
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	if telegramID == 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id")
	}
	return r.findOne(ctx, "find user by telegram_id", `WHERE telegram_id = $1`, telegramID)
}

func (r *UserRepo) SetTOTPSecret(ctx context.Context, userID int64, secret string) error {
	return r.exec(ctx, "set totp secret", `
UPDATE users SET totp_secret = $2, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
`, userID, secret)
}

func (r *UserRepo) EnableTOTP(ctx context.Context, userID int64) error {
	return r.exec(ctx, "enable totp", `
UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1 AND totp_secret <> ''
`, userID)
}

func (r *UserRepo) LinkTelegram(ctx context.Context, userID, telegramID int64) error {
	err := r.exec(ctx, "link telegram", `
UPDATE users SET telegram_id = $2, updated_at = NOW() WHERE id = $1
`, userID, telegramID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrTelegramLinked
	}
	return err
}

func (r *UserRepo) SetRole(ctx context.Context, userID int64, role enums.Role) error {
	return r.exec(ctx, "set role", `
UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
`, userID, string(role))
}

func (r *UserRepo) findOne(ctx context.Context, op, where string, arg any) (model.User, error) {
	if r.pool == nil {
		return model.User{}, errNilPool
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (r *UserRepo) exec(ctx context.Context, op, query string, args ...any) error {
	if r.pool == nil {
		return errNilPool
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user model.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&role,
		&user.TelegramID,
		&user.TOTPSecret,
		&user.TOTPEnabled,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return model.User{}, err
	}
	user.Role = enums.Role(role)
	return user, nil
}
