package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/domain/cats"
)

type catRepo struct {
	mu   sync.RWMutex
	byID map[string]cats.Cat
}

func NewCatRepo() cats.Repository {
	return &catRepo{
		byID: make(map[string]cats.Cat),
	}
}

func (r *catRepo) Create(ctx context.Context, c cats.Cat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("cat id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("cat already exists")
	}
	r.byID[c.ID] = c
	return nil
}

func (r *catRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}
	return c, nil
}

func (r *catRepo) List(ctx context.Context) ([]cats.Cat, error) {
	return r.filter(func(cats.Cat) bool { return true }), nil
}

func (r *catRepo) ListByOwner(ctx context.Context, ownerID string) ([]cats.Cat, error) {
	return r.filter(func(c cats.Cat) bool { return c.OwnerID == ownerID }), nil
}

func (r *catRepo) ListWithinBox(ctx context.Context, b cats.Box) ([]cats.Cat, error) {
	return r.filter(func(c cats.Cat) bool { return b.Contains(c.Location) }), nil
}

// UpdateWhere evalúa el scope y aplica el patch bajo el mismo lock.
func (r *catRepo) UpdateWhere(ctx context.Context, s access.Scope, p cats.Patch) (cats.Cat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[s.ID]
	if !ok || !s.Matches(c.ID, c.OwnerID) {
		return cats.Cat{}, cats.ErrNotFound
	}
	c = p.Apply(c)
	r.byID[c.ID] = c
	return c, nil
}

func (r *catRepo) DeleteWhere(ctx context.Context, s access.Scope) (cats.Cat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[s.ID]
	if !ok || !s.Matches(c.ID, c.OwnerID) {
		return cats.Cat{}, cats.ErrNotFound
	}
	delete(r.byID, c.ID)
	return c, nil
}

func (r *catRepo) filter(keep func(cats.Cat) bool) []cats.Cat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cats.Cat, 0)
	for _, c := range r.byID {
		if keep(c) {
			out = append(out, c)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
