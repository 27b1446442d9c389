package router

import (
	"context"

	"pet-registry/internal/domain/cats"
	"pet-registry/internal/domain/users"
)

// ownerDirectory expone los perfiles públicos de users como dueños de gatos.
type ownerDirectory struct {
	users *users.Service
}

func (d ownerDirectory) Owners(ctx context.Context, ids []string) (map[string]cats.Owner, error) {
	profiles, err := d.users.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]cats.Owner, len(profiles))
	for id, p := range profiles {
		out[id] = cats.Owner{ID: p.ID, UserName: p.UserName, Email: p.Email}
	}
	return out, nil
}

// parseCoordinates usa el mismo parser que el resto del dominio para el campo "coordinates".
func parseCoordinates(raw string) (float64, float64, error) {
	p, err := cats.ParsePoint("coordinates", raw)
	if err != nil {
		return 0, 0, err
	}
	return p.Lon(), p.Lat(), nil
}
