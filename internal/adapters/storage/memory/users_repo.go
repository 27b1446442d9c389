package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-registry/internal/domain/users"
)

type userRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byEmail map[string]string // email normalizado -> id
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID:    make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	if _, taken := r.byEmail[emailKey(u.Email)]; taken {
		return users.ErrEmailTaken
	}
	r.byID[u.ID] = u
	r.byEmail[emailKey(u.Email)] = u.ID
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, id string, p users.Patch) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	next := p.Apply(u)

	oldKey, newKey := emailKey(u.Email), emailKey(next.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return users.User{}, users.ErrEmailTaken
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = id
	}
	r.byID[id] = next
	return next, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, emailKey(u.Email))
	return u, nil
}
