package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/model"
	tginfra "github.com/coinmews/coinmews/internal/infra/telegram"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/submissions"
)

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendSubmissionNotice(ctx context.Context, chatID int64, text string, submissionID int64, rejects []tginfra.RejectOption) error
	MarkDecided(ctx context.Context, chatID int64, messageID int, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type StaffDirectory interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
}

type Reviewer interface {
	Approve(ctx context.Context, id, actorID int64, feedback string) (model.Submission, error)
	Reject(ctx context.Context, id, actorID int64, feedback string) (model.Submission, error)
}

// Service posts new submissions to the moderators chat and turns button presses into decisions.
type Service struct {
	sender    Sender
	chatID    int64
	publicURL string
	users     StaffDirectory
	reviewer  Reviewer
	linker    AccountLinker
	audit     AuditRecorder
	logger    *zap.Logger
}

func NewService(sender Sender, chatID int64, publicURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sender:    sender,
		chatID:    chatID,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

func (s *Service) AttachReviewer(users StaffDirectory, reviewer Reviewer) {
	s.users = users
	s.reviewer = reviewer
}

// NotifySubmission is a no-op when no bot or chat is configured.
func (s *Service) NotifySubmission(ctx context.Context, sub model.Submission) error {
	if s.sender == nil || s.chatID == 0 {
		return nil
	}
	return s.sender.SendSubmissionNotice(ctx, s.chatID, s.formatNotice(sub), sub.ID, rejectOptions())
}

func (s *Service) HandleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	if s.sender == nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "start", "whoami":
		return s.sender.SendText(ctx, update.ChatID, fmt.Sprintf("Your Telegram ID is %d. Ask an admin to link it to your staff account.", update.UserID))
	case "reasons":
		lines := []string{"Reject reasons:"}
		for _, reason := range RejectReasons() {
			lines = append(lines, fmt.Sprintf("- %s: %s", reason.Code, reason.Feedback))
		}
		return s.sender.SendText(ctx, update.ChatID, strings.Join(lines, "\n"))
	}
	return nil
}

// HandleCallback applies an Approve/Reject press. Decision failures are answered in the chat and never
// stop the listener; only transport errors are returned.
func (s *Service) HandleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	if s.sender == nil {
		return nil
	}

	action, ok := tginfra.ParseCallbackData(update.Data)
	if !ok {
		return s.sender.AnswerCallback(ctx, update.CallbackID, "Unknown action")
	}
	if s.users == nil || s.reviewer == nil {
		return s.sender.AnswerCallback(ctx, update.CallbackID, "Moderation is not available")
	}

	staff, err := s.users.FindByTelegramID(ctx, update.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			s.logger.Warn("moderation callback from unlinked telegram account", zap.Int64("telegram_id", update.UserID))
			return s.sender.AnswerCallback(ctx, update.CallbackID, "Your Telegram account is not linked to a staff user")
		}
		s.logger.Error("lookup staff by telegram id failed", zap.Int64("telegram_id", update.UserID), zap.Error(err))
		return s.sender.AnswerCallback(ctx, update.CallbackID, "Action failed")
	}
	if !staff.IsActive || !staff.Role.IsStaff() {
		return s.sender.AnswerCallback(ctx, update.CallbackID, "Not allowed")
	}

	var (
		sub     model.Submission
		verdict string
	)
	if action.Approve {
		verdict = "approved"
		sub, err = s.reviewer.Approve(ctx, action.SubmissionID, staff.ID, "")
	} else {
		verdict = "rejected"
		sub, err = s.reviewer.Reject(ctx, action.SubmissionID, staff.ID, RejectFeedback(action.ReasonCode))
	}
	if err != nil {
		return s.sender.AnswerCallback(ctx, update.CallbackID, s.failureText(action.SubmissionID, staff.ID, err))
	}

	s.logger.Info("submission decided via telegram",
		zap.Int64("submission_id", sub.ID),
		zap.Int64("staff_id", staff.ID),
		zap.String("status", string(sub.Status)),
	)

	if err := s.sender.AnswerCallback(ctx, update.CallbackID, strings.ToUpper(verdict[:1])+verdict[1:]); err != nil {
		return err
	}
	text := fmt.Sprintf("Submission #%d %q %s by %s", sub.ID, sub.Title, verdict, staffName(staff))
	if sub.Feedback != nil && *sub.Feedback != "" {
		text += "\nFeedback: " + *sub.Feedback
	}
	if err := s.sender.MarkDecided(ctx, update.ChatID, update.MessageID, text); err != nil {
		s.logger.Warn("mark telegram notice decided failed", zap.Int64("submission_id", sub.ID), zap.Error(err))
	}
	return nil
}

func (s *Service) failureText(submissionID, staffID int64, err error) string {
	switch {
	case errors.Is(err, submissions.ErrNotFound):
		return "Submission not found"
	case errors.Is(err, submissions.ErrInvalidTransition):
		return "Submission is already decided"
	case errors.Is(err, submissions.ErrModelMissing), errors.Is(err, submissions.ErrModelNotFound):
		return "Submission has no backing record"
	}
	s.logger.Error("telegram moderation decision failed",
		zap.Int64("submission_id", submissionID),
		zap.Int64("staff_id", staffID),
		zap.Error(err),
	)
	return "Action failed"
}

func (s *Service) formatNotice(sub model.Submission) string {
	lines := []string{
		fmt.Sprintf("New submission #%d", sub.ID),
		fmt.Sprintf("Type: %s", sub.Type),
		fmt.Sprintf("Title: %s", defaultString(sub.Title, "-")),
	}
	if sub.SubmittedBy != nil {
		lines = append(lines, fmt.Sprintf("Submitted by user #%d", *sub.SubmittedBy))
	}
	if ref, ok := sub.Ref(); ok {
		lines = append(lines, fmt.Sprintf("Record: %s #%d", ref.Type, ref.ID))
	}
	if s.publicURL != "" {
		lines = append(lines, fmt.Sprintf("Review: %s/admin/submissions/%d", s.publicURL, sub.ID))
	}
	return strings.Join(lines, "\n")
}

func staffName(user model.User) string {
	if strings.TrimSpace(user.DisplayName) != "" {
		return user.DisplayName
	}
	return fmt.Sprintf("staff #%d", user.ID)
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
