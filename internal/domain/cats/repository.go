package cats

import (
	"context"
	"errors"

	"pet-registry/internal/domain/access"
)

var ErrNotFound = errors.New("cat not found")

type Repository interface {
	Create(ctx context.Context, c Cat) error
	GetByID(ctx context.Context, id string) (Cat, error)
	List(ctx context.Context) ([]Cat, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Cat, error)
	ListWithinBox(ctx context.Context, b Box) ([]Cat, error)

	// UpdateWhere y DeleteWhere aplican el scope como un único predicado atómico
	// (id, y owner si el scope lo restringe). Sin match => ErrNotFound.
	UpdateWhere(ctx context.Context, s access.Scope, p Patch) (Cat, error)
	DeleteWhere(ctx context.Context, s access.Scope) (Cat, error)
}

// OwnerDirectory resuelve los dueños para la expansión.
// Se usa para no importar el paquete users desde acá.
type OwnerDirectory interface {
	Owners(ctx context.Context, ids []string) (map[string]Owner, error)
}
