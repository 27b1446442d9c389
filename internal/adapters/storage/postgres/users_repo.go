package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/domain/users"

	"github.com/jackc/pgx/v5/pgconn"
)

// código de Postgres para unique_violation
const uniqueViolation = "23505"

const userColumns = `
	id, user_name, email, role, password_hash,
	created_at, updated_at
`

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		u.ID,
		u.UserName,
		u.Email,
		string(u.Role),
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapUserErr(err)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
}

func (r *UsersRepo) ListByIDs(ctx context.Context, ids []string) ([]users.User, error) {
	if len(ids) == 0 {
		return []users.User{}, nil
	}
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
}

func (r *UsersRepo) Update(ctx context.Context, id string, p users.Patch) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET
			user_name = COALESCE($2, user_name),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			updated_at = $5
		WHERE id = $1
		RETURNING `+userColumns,
		id,
		nullString(p.UserName),
		nullString(p.Email),
		nullString(p.PasswordHash),
		p.UpdatedAt,
	)
	u, err := scanUser(row)
	return u, mapUserErr(err)
}

func (r *UsersRepo) Delete(ctx context.Context, id string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
	return scanUser(row)
}

func (r *UsersRepo) query(ctx context.Context, q string, args ...any) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(s scanner) (users.User, error) {
	var u users.User
	var role string
	if err := s.Scan(
		&u.ID,
		&u.UserName,
		&u.Email,
		&role,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}

	parsed, err := access.ParseRole(role)
	if err != nil {
		return users.User{}, err
	}
	u.Role = parsed
	return u, nil
}

func mapUserErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return users.ErrEmailTaken
	}
	return err
}
