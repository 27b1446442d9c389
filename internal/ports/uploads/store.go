package uploads

import (
	"context"
	"io"
)

// Store guarda archivos subidos.
type Store interface {
	// Save devuelve el nombre con el que quedó guardado.
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	// Delete borra un archivo guardado. Borrar uno inexistente no es error.
	Delete(ctx context.Context, name string) error
}
