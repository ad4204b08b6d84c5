package repository

import (
	"encoding/json"
	"time"
)

// Property es un inmueble administrado por un tenant.
type Property struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	City      string
	Units     int
	CreatedBy string
	CreatedAt time.Time
}

// CreatePropertyInput: TenantID y CreatedBy los pone el servidor.
type CreatePropertyInput struct {
	TenantID  string
	Name      string
	Address   string
	City      string
	Units     int
	CreatedBy string
}

func (in *CreatePropertyInput) SetTenantID(id string) { in.TenantID = id }

// ActivityEntry es una fila del log de actividad de un tenant.
type ActivityEntry struct {
	ID         string
	TenantID   string
	IdentityID string
	Kind       string
	Payload    json.RawMessage
	CreatedAt  time.Time
}

type CreateActivityInput struct {
	TenantID   string
	IdentityID string
	Kind       string
	Payload    json.RawMessage
}

func (in *CreateActivityInput) SetTenantID(id string) { in.TenantID = id }
