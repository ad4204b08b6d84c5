// Package dto contiene los cuerpos de request/response de la API.
package dto

import (
	"time"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"` // "Bearer"
	ExpiresIn    int64           `json:"expires_in"` // segundos
	Identity     IdentitySummary `json:"identity"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// IdentitySummary nunca incluye el hash de password.
type IdentitySummary struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewIdentitySummary(i *repository.Identity) IdentitySummary {
	return IdentitySummary{
		ID:          i.ID,
		TenantID:    i.TenantID,
		Email:       i.Email,
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		Role:        string(i.Role),
		Active:      i.Active,
		LastLoginAt: i.LastLoginAt,
		CreatedAt:   i.CreatedAt,
	}
}
