package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
)

// SessionRepo implementa repository.SessionRepository.
type SessionRepo struct{ pool *pgxpool.Pool }

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) Create(ctx context.Context, s repository.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session (token_hash, identity_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		s.TokenHash, s.IdentityID, s.ExpiresAt, s.CreatedAt)
	return mapErr(err)
}

func (r *SessionRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.Session, error) {
	var s repository.Session
	err := r.pool.QueryRow(ctx,
		`SELECT token_hash, identity_id::text, expires_at, created_at FROM session WHERE token_hash = $1`,
		tokenHash).Scan(&s.TokenHash, &s.IdentityID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *SessionRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM session WHERE token_hash = $1`, tokenHash)
	return mapErr(err)
}

func (r *SessionRepo) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session WHERE identity_id = $1`, identityID)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, nil
		}
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
