package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/userhub/backend/internal/model"
)

const userColumns = `id, name, email, password_hash, role, image, created_at, updated_at`

func (db *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role.String(),
		user.Image,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (db *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

// ListUsers returns identities with the given role whose name or email
// contains search, case-insensitively. An empty search matches everything.
func (db *Postgres) ListUsers(ctx context.Context, role model.Role, search string) ([]model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' ESCAPE '\' OR email ILIKE '%' || $2 || '%' ESCAPE '\')
		ORDER BY created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, role.String(), escapeLike(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateUser writes name, email and image of the identity with user.ID and
// user.Role, then refreshes user from the stored row. The role itself is
// never updated.
func (db *Postgres) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, image = $3, updated_at = NOW()
		WHERE id = $4 AND role = $5
		RETURNING ` + userColumns
	updated, err := scanUser(db.Pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Image,
		user.ID,
		user.Role.String(),
	))
	if err != nil {
		return mapWriteError(err)
	}
	*user = *updated
	return nil
}

func (db *Postgres) DeleteUser(ctx context.Context, id uuid.UUID, role model.Role) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND role = $2`, id, role.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user model.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	return &user, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
