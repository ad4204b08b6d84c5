package dto

import (
	"encoding/json"
	"time"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
)

type CreatePropertyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Units   int    `json:"units"`
}

type PropertyResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city,omitempty"`
	Units     int       `json:"units"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPropertyResponse(p repository.Property) PropertyResponse {
	return PropertyResponse{
		ID: p.ID, TenantID: p.TenantID, Name: p.Name, Address: p.Address,
		City: p.City, Units: p.Units, CreatedBy: p.CreatedBy, CreatedAt: p.CreatedAt,
	}
}

type PropertyListResponse struct {
	Items []PropertyResponse `json:"items"`
}

type ActivityWebhookRequest struct {
	TenantID string          `json:"tenant_id"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type ActivityResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
