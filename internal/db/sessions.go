package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/userhub/backend/internal/model"
)

func (db *Postgres) CreateSession(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, role, refresh_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	return db.Pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Role.String(),
		session.RefreshHash,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
}

func (db *Postgres) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT id, user_id, role, refresh_hash, expires_at, revoked_at, created_at
		FROM sessions
		WHERE id = $1
	`
	var (
		session model.Session
		role    string
	)
	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&role,
		&session.RefreshHash,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if session.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("session %s: %w", session.ID, err)
	}
	return &session, nil
}

// RotateSession swaps the refresh hash only if oldHash is still current and
// the session is live, so two concurrent refreshes cannot both succeed.
func (db *Postgres) RotateSession(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE sessions
		SET refresh_hash = $3, expires_at = $4
		WHERE id = $1 AND refresh_hash = $2 AND revoked_at IS NULL AND expires_at > NOW()
	`, id, oldHash, newHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) RevokeSession(ctx context.Context, id uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
	return err
}

// DeleteExpiredSessions removes sessions that expired or were revoked before
// the cutoff.
func (db *Postgres) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM sessions
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
