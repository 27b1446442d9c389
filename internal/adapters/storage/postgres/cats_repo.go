package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/domain/cats"
)

const catColumns = `
	id, owner_id,
	cat_name, weight, filename,
	birthdate, lon, lat,
	created_at, updated_at
`

type CatsRepo struct {
	db *sql.DB
}

func NewCatsRepo(db *sql.DB) *CatsRepo {
	return &CatsRepo{db: db}
}

func (r *CatsRepo) Create(ctx context.Context, c cats.Cat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cats (`+catColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Weight,
		c.Filename,
		c.Birthdate,
		c.Location.Lon(),
		c.Location.Lat(),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *CatsRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cats.Cat{}, cats.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+catColumns+` FROM cats WHERE id = $1`, id)
	return scanCat(row)
}

func (r *CatsRepo) List(ctx context.Context) ([]cats.Cat, error) {
	return r.query(ctx, `SELECT `+catColumns+` FROM cats ORDER BY created_at ASC`)
}

func (r *CatsRepo) ListByOwner(ctx context.Context, ownerID string) ([]cats.Cat, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return []cats.Cat{}, nil
	}
	return r.query(ctx, `
		SELECT `+catColumns+` FROM cats
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`, ownerID)
}

// ListWithinBox: bordes incluidos. Con un box invertido BETWEEN no matchea nada.
func (r *CatsRepo) ListWithinBox(ctx context.Context, b cats.Box) ([]cats.Cat, error) {
	return r.query(ctx, `
		SELECT `+catColumns+` FROM cats
		WHERE lon >= $1 AND lon <= $2
		  AND lat >= $3 AND lat <= $4
		ORDER BY created_at ASC
	`, b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}

// UpdateWhere resuelve scope y patch en un solo UPDATE ... RETURNING.
func (r *CatsRepo) UpdateWhere(ctx context.Context, s access.Scope, p cats.Patch) (cats.Cat, error) {
	var lon, lat sql.NullFloat64
	if p.Location != nil {
		lon = sql.NullFloat64{Float64: p.Location.Lon(), Valid: true}
		lat = sql.NullFloat64{Float64: p.Location.Lat(), Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE cats
		SET
			cat_name = COALESCE($3, cat_name),
			weight = COALESCE($4, weight),
			filename = COALESCE($5, filename),
			birthdate = COALESCE($6, birthdate),
			lon = COALESCE($7, lon),
			lat = COALESCE($8, lat),
			owner_id = COALESCE($9, owner_id),
			updated_at = $10
		WHERE id = $1 AND ($2::text = '' OR owner_id = $2::text)
		RETURNING `+catColumns,
		s.ID,
		s.OwnerID,
		nullString(p.Name),
		nullFloat(p.Weight),
		nullString(p.Filename),
		nullTime(p.Birthdate),
		lon,
		lat,
		nullString(p.OwnerID),
		p.UpdatedAt,
	)
	return scanCat(row)
}

func (r *CatsRepo) DeleteWhere(ctx context.Context, s access.Scope) (cats.Cat, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM cats
		WHERE id = $1 AND ($2::text = '' OR owner_id = $2::text)
		RETURNING `+catColumns,
		s.ID,
		s.OwnerID,
	)
	return scanCat(row)
}

func (r *CatsRepo) query(ctx context.Context, q string, args ...any) ([]cats.Cat, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cats.Cat, 0)
	for rows.Next() {
		c, err := scanCat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCat(s scanner) (cats.Cat, error) {
	var c cats.Cat
	var lon, lat float64
	if err := s.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Weight,
		&c.Filename,
		&c.Birthdate,
		&lon,
		&lat,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cats.Cat{}, cats.ErrNotFound
		}
		return cats.Cat{}, err
	}
	// ojo: birthdate es DATE, pgx lo mapea a time.Time medianoche UTC
	c.Birthdate = c.Birthdate.UTC()
	c.Location = cats.NewPoint(lon, lat)
	return c, nil
}
