package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/audit"
)

var (
	ErrStaffNotFound  = errors.New("staff user not found")
	ErrNotStaff       = errors.New("user is not staff")
	ErrAlreadyLinked  = errors.New("telegram account already linked")
	ErrLinkingOffline = errors.New("account linking is not configured")
)

type AccountLinker interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entries ...audit.Entry)
}

func (s *Service) AttachLinker(linker AccountLinker, recorder AuditRecorder) {
	s.linker = linker
	s.audit = recorder
}

// LinkStaffAccount binds a Telegram account to a staff user so their button presses count as decisions.
func (s *Service) LinkStaffAccount(ctx context.Context, actorID, userID, telegramID int64) (model.User, error) {
	if s.linker == nil {
		return model.User{}, ErrLinkingOffline
	}
	if telegramID <= 0 {
		return model.User{}, validate.Errors{"telegram_id": "must be a positive Telegram user id"}
	}

	user, err := s.linker.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrStaffNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	if !user.Role.IsStaff() {
		return model.User{}, ErrNotStaff
	}

	if err := s.linker.LinkTelegram(ctx, userID, telegramID); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrTelegramLinked):
			return model.User{}, ErrAlreadyLinked
		case errors.Is(err, pgrepo.ErrUserNotFound):
			return model.User{}, ErrStaffNotFound
		}
		return model.User{}, fmt.Errorf("link telegram: %w", err)
	}
	user.TelegramID = &telegramID

	if s.audit != nil {
		s.audit.Record(ctx, audit.Entry{
			ActorID: &actorID,
			Action:  enums.AuditActionTelegramLinked,
			Payload: map[string]any{"user_id": userID, "telegram_id": telegramID},
		})
	}
	if s.sender != nil {
		if err := s.sender.SendText(ctx, telegramID, fmt.Sprintf("This account is now linked to %s. Moderation buttons will act on your behalf.", staffName(user))); err != nil {
			s.logger.Warn("send link confirmation failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		}
	}
	return user, nil
}
