package repository

import (
	"context"
	"time"
)

// Tenant representa una cuenta de cliente (inmobiliaria, administradora).
type Tenant struct {
	ID        string
	Slug      string
	Name      string
	Quotas    Quotas
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Quotas limita recursos por tenant. 0 = sin límite.
type Quotas struct {
	MaxProperties int
	MaxUsers      int
}

// CreateTenantInput contiene los datos para provisionar un tenant.
type CreateTenantInput struct {
	Slug   string
	Name   string
	Quotas Quotas
}

// TenantRepository define operaciones sobre tenants.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Create(ctx context.Context, input CreateTenantInput) (*Tenant, error)
}
