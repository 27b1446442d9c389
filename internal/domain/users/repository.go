package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	ListByIDs(ctx context.Context, ids []string) ([]User, error)
	// Update y Delete devuelven el registro resultante / borrado, o ErrNotFound.
	Update(ctx context.Context, id string, p Patch) (User, error)
	Delete(ctx context.Context, id string) (User, error)
}

// PasswordHasher es el colaborador externo que hashea credenciales.
type PasswordHasher interface {
	Hash(password string) (string, error)
}
