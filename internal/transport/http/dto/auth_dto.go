package dto

import (
	"time"

	"github.com/coinmews/coinmews/internal/domain/model"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	TOTPEnabled bool      `json:"totp_enabled"`
	TelegramID  *int64    `json:"telegram_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuthTokensResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresInSec int64        `json:"expires_in_sec"`
	Me           UserResponse `json:"me"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}

type TOTPSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRDataURL  string `json:"qr_data_url"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

func NewUserResponse(user model.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TOTPEnabled: user.TOTPEnabled,
		TelegramID:  user.TelegramID,
		CreatedAt:   user.CreatedAt,
	}
}
