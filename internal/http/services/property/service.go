// Package property expone el recurso de inmuebles. Todo acceso pasa por la
// Data Access Boundary; las queries confían en RLS para el filtrado.
package property

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
)

var ErrMissingFields = errors.New("missing required fields")

// Boundary es el subconjunto de *tenantsql.Boundary que usa el service.
type Boundary interface {
	WithTenantConnection(ctx context.Context, fn func(tenantsql.Conn) error) error
	WithTenantTx(ctx context.Context, fn func(tenantsql.Conn) error) error
}

// Data son las queries tenant-scoped. pg.TenantData lo implementa.
type Data interface {
	ListProperties(ctx context.Context, c tenantsql.Conn, limit int) ([]repository.Property, error)
	CountProperties(ctx context.Context, c tenantsql.Conn) (int, error)
	InsertProperty(ctx context.Context, c tenantsql.Conn, in repository.CreatePropertyInput) (repository.Property, error)
	TenantQuota(ctx context.Context, c tenantsql.Conn, tenantID string) (repository.Quotas, error)
	InsertActivity(ctx context.Context, c tenantsql.Conn, in repository.CreateActivityInput) (repository.ActivityEntry, error)
}

type Service struct {
	boundary Boundary
	data     Data
}

func NewService(b Boundary, d Data) *Service {
	return &Service{boundary: b, data: d}
}

func (s *Service) List(ctx context.Context, limit int) ([]repository.Property, error) {
	var out []repository.Property
	err := s.boundary.WithTenantConnection(ctx, func(c tenantsql.Conn) error {
		var err error
		out, err = s.data.ListProperties(ctx, c, limit)
		return err
	})
	return out, err
}

type CreateInput struct {
	Name    string
	Address string
	City    string
	Units   int
}

// Create inserta el inmueble y su entrada de actividad en una sola tx. La
// cuota se lee con FOR UPDATE así dos creates del mismo tenant se serializan.
func (s *Service) Create(ctx context.Context, in CreateInput) (*repository.Property, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	if in.Name == "" || in.Address == "" {
		return nil, ErrMissingFields
	}
	if in.Units < 0 {
		return nil, repository.ErrInvalidInput
	}
	if in.Units == 0 {
		in.Units = 1
	}

	create := repository.CreatePropertyInput{Name: in.Name, Address: in.Address, City: in.City, Units: in.Units}
	if err := tenantsql.EnrichCreate(ctx, &create); err != nil {
		return nil, err
	}
	scope, _ := tenantsql.ScopeFrom(ctx)
	create.CreatedBy = scope.IdentityID

	var out repository.Property
	err := s.boundary.WithTenantTx(ctx, func(c tenantsql.Conn) error {
		q, err := s.data.TenantQuota(ctx, c, create.TenantID)
		if err != nil {
			return err
		}
		if q.MaxProperties > 0 {
			n, err := s.data.CountProperties(ctx, c)
			if err != nil {
				return err
			}
			if n >= q.MaxProperties {
				return repository.ErrQuotaExceeded
			}
		}

		out, err = s.data.InsertProperty(ctx, c, create)
		if err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]any{"property_id": out.ID, "name": out.Name})
		act := repository.CreateActivityInput{
			IdentityID: scope.IdentityID,
			Kind:       "property.created",
			Payload:    payload,
		}
		if err := tenantsql.EnrichCreate(ctx, &act); err != nil {
			return err
		}
		_, err = s.data.InsertActivity(ctx, c, act)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
