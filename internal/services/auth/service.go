package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
)

const (
	minRefreshTTL = 30 * 24 * time.Hour
	maxRefreshTTL = 90 * 24 * time.Hour

	minPasswordLength = 8
	maxPasswordLength = 72
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string, ttl time.Duration) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, oldRefreshToken, newRefreshToken string, ttl time.Duration) (SessionRecord, error)
	SetRole(ctx context.Context, sid string, role enums.Role) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type UserStore interface {
	Create(ctx context.Context, email, displayName, passwordHash string, role enums.Role) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	SetTOTPSecret(ctx context.Context, userID int64, secret string) error
	EnableTOTP(ctx context.Context, userID int64) error
	SetRole(ctx context.Context, userID int64, role enums.Role) error
}

type Config struct {
	RefreshTTL time.Duration
	TOTPIssuer string
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	users      UserStore
	refreshTTL time.Duration
	totpIssuer string
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore, users UserStore, cfg Config, logger *zap.Logger) *Service {
	ttl := cfg.RefreshTTL
	if ttl < minRefreshTTL {
		ttl = minRefreshTTL
	}
	if ttl > maxRefreshTTL {
		ttl = maxRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.TOTPIssuer)
	if issuer == "" {
		issuer = "Coinmews"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		jwt:        jwtManager,
		sessions:   sessions,
		users:      users,
		refreshTTL: ttl,
		totpIssuer: issuer,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	errs := validate.Errors{}
	errs.Check(validate.Required(email) && strings.Contains(email, "@") && validate.MaxLength(email, 254), "email", "must be a valid email address")
	errs.Check(len(password) >= minPasswordLength && len(password) <= maxPasswordLength, "password", fmt.Sprintf("must be %d-%d characters", minPasswordLength, maxPasswordLength))
	errs.Check(validate.LengthBetween(displayName, 2, 64), "display_name", "must be 2-64 characters")
	if err := errs.Err(); err != nil {
		return AuthResult{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, displayName, hash, enums.RoleUser)
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.issueForUser(ctx, user)
}

// Login verifies credentials; staff with TOTP enabled must also pass totpCode.
func (s *Service) Login(ctx context.Context, email, password, totpCode string) (AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		if strings.TrimSpace(totpCode) == "" {
			return AuthResult{}, ErrTOTPRequired
		}
		if !ValidateTOTP(user.TOTPSecret, totpCode, s.now()) {
			return AuthResult{}, ErrInvalidTOTP
		}
	}

	return s.issueForUser(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session, err := s.sessions.RotateRefresh(ctx, refreshToken, newRefreshToken, s.refreshTTL)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) || errors.Is(err, ErrSessionNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, err
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			_ = s.sessions.DeleteSession(ctx, session.SID)
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, err
	}
	if !user.IsActive {
		_ = s.sessions.DeleteAllForUser(ctx, user.ID)
		return AuthResult{}, ErrUnauthorized
	}
	if session.Role != user.Role {
		if err := s.sessions.SetRole(ctx, session.SID, user.Role); err != nil {
			return AuthResult{}, fmt.Errorf("sync session role: %w", err)
		}
	}

	accessToken, accessExpiresAt, err := s.jwt.GenerateAccessToken(user.ID, session.SID, user.Role)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpiresAt,
		User:          user,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrUnauthorized
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	return s.sessions.DeleteAllForUser(ctx, userID)
}

// ChangeRole stores the new role and revokes every session of the user, so
// access tokens minted under the old role stop validating at once.
func (s *Service) ChangeRole(ctx context.Context, userID int64, role enums.Role) error {
	if userID <= 0 || !role.Valid() {
		return ErrInvalidInput
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return err
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.logger.Info("user role changed", zap.Int64("user_id", userID), zap.String("role", string(role)))
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, token string) (Identity, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}
	if session.UserID != claims.UserID {
		return Identity{}, ErrUnauthorized
	}

	return Identity{UserID: claims.UserID, SID: claims.SID, Role: session.Role}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrUnauthorized
		}
		return model.User{}, err
	}
	return user, nil
}

// SetupTOTP stores a fresh secret; it stays disabled until ConfirmTOTP.
func (s *Service) SetupTOTP(ctx context.Context, userID int64) (TOTPSetup, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return TOTPSetup{}, err
	}

	secret, otpURL, err := GenerateTOTPSecret(s.totpIssuer, user.Email)
	if err != nil {
		return TOTPSetup{}, fmt.Errorf("generate totp secret: %w", err)
	}
	qr, err := MakeQRCodeDataURL(otpURL, 256)
	if err != nil {
		return TOTPSetup{}, fmt.Errorf("render totp qr: %w", err)
	}
	if err := s.users.SetTOTPSecret(ctx, user.ID, secret); err != nil {
		return TOTPSetup{}, err
	}

	return TOTPSetup{Secret: secret, OTPAuthURL: otpURL, QRDataURL: qr}, nil
}

func (s *Service) ConfirmTOTP(ctx context.Context, userID int64, code string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return ErrTOTPNotStarted
	}
	if !ValidateTOTP(user.TOTPSecret, code, s.now()) {
		return ErrInvalidTOTP
	}
	if err := s.users.EnableTOTP(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("totp enabled", zap.Int64("user_id", user.ID))
	return nil
}

func (s *Service) issueForUser(ctx context.Context, user model.User) (AuthResult, error) {
	sid, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}

	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sid,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: s.now().UTC().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken, s.refreshTTL); err != nil {
		return AuthResult{}, err
	}

	accessToken, accessExpiresAt, err := s.jwt.GenerateAccessToken(user.ID, sid, user.Role)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpiresAt,
		User:          user,
	}, nil
}
