// Package webhook procesa eventos de sistemas externos. No hay usuario: el
// tenant viene en el payload y se confía porque el emisor ya se autenticó
// con el secreto compartido.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

var (
	ErrInvalidTenant = errors.New("tenant_id must be a uuid")
	ErrMissingKind   = errors.New("kind is required")
)

type Boundary interface {
	WithTenantTx(ctx context.Context, fn func(tenantsql.Conn) error) error
}

type ActivityWriter interface {
	InsertActivity(ctx context.Context, c tenantsql.Conn, in repository.CreateActivityInput) (repository.ActivityEntry, error)
}

type Service struct {
	boundary Boundary
	writer   ActivityWriter
}

func NewService(b Boundary, w ActivityWriter) *Service {
	return &Service{boundary: b, writer: w}
}

type ActivityInput struct {
	TenantID string
	Kind     string
	Payload  json.RawMessage
}

// RecordActivity escribe una fila de actividad con scope explícito.
func (s *Service) RecordActivity(ctx context.Context, in ActivityInput) (*repository.ActivityEntry, error) {
	tid, err := uuid.Parse(strings.TrimSpace(in.TenantID))
	if err != nil {
		return nil, ErrInvalidTenant
	}
	in.Kind = strings.TrimSpace(in.Kind)
	if in.Kind == "" {
		return nil, ErrMissingKind
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return nil, repository.ErrInvalidInput
	}

	ctx = tenantsql.WithScope(ctx, tenantsql.Scope{TenantID: tid.String()})
	ctx = logger.With(ctx, logger.TenantID(tid.String()), logger.Component("webhook"))

	act := repository.CreateActivityInput{Kind: in.Kind, Payload: in.Payload}
	if err := tenantsql.EnrichCreate(ctx, &act); err != nil {
		return nil, err
	}

	var out repository.ActivityEntry
	err = s.boundary.WithTenantTx(ctx, func(c tenantsql.Conn) error {
		var err error
		out, err = s.writer.InsertActivity(ctx, c, act)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("webhook activity recorded", logger.String("kind", out.Kind))
	return &out, nil
}
