package cats

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/platform/apperr"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo   Repository
	owners OwnerDirectory
	now    func() time.Time
}

func NewService(repo Repository, owners OwnerDirectory) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		now:    time.Now,
	}
}

// CreateInput llega como texto (form multipart); los numéricos se convierten acá.
// Filename y Location los resuelven los colaboradores de upload/geo antes del handler.
type CreateInput struct {
	Name      string
	Weight    string
	Birthdate string

	Filename string
	Location *Location
}

// UpdateInput: nil = no tocar. OwnerID solo se respeta en la ruta admin.
type UpdateInput struct {
	Name      *string
	Weight    *string
	Birthdate *string
	Filename  *string
	Location  *Location
	OwnerID   *string
}

func (s *Service) List(ctx context.Context) ([]Detail, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s.expand(ctx, items)
}

// ListByOwner devuelve solo los gatos del principal. Vacío no es error.
func (s *Service) ListByOwner(ctx context.Context, p *access.Principal) ([]Detail, error) {
	ownerID, err := access.SelfScope(p)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s.expand(ctx, items)
}

func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	c, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Detail{}, classify(err, "No cat found")
	}
	return s.expandOne(ctx, c)
}

// ListWithinBox devuelve los gatos dentro del rectángulo (bordes incluidos).
// Las esquinas vienen como "longitud,latitud". Un box invertido da lista vacía.
func (s *Service) ListWithinBox(ctx context.Context, topRight, bottomLeft string) ([]Detail, error) {
	b, err := ParseBox(topRight, bottomLeft)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	items, err := s.repo.ListWithinBox(ctx, b)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s.expand(ctx, items)
}

func (s *Service) Create(ctx context.Context, p *access.Principal, in CreateInput) (Detail, error) {
	pr, err := access.Require(p)
	if err != nil {
		return Detail{}, err
	}

	name := strings.TrimSpace(in.Name)
	var verr error
	if name == "" {
		verr = multierr.Append(verr, errors.New("cat_name is required"))
	}
	weight, werr := parseWeight(in.Weight)
	verr = multierr.Append(verr, werr)
	birthdate, berr := parseBirthdate(in.Birthdate)
	verr = multierr.Append(verr, berr)
	if strings.TrimSpace(in.Filename) == "" {
		verr = multierr.Append(verr, errors.New("filename is required"))
	}
	if in.Location == nil {
		verr = multierr.Append(verr, errors.New("location is required"))
	} else {
		verr = multierr.Append(verr, validLocation(*in.Location))
	}
	if err := apperr.FromValidation(verr); err != nil {
		return Detail{}, err
	}

	now := s.now()
	c := Cat{
		ID:        uuid.NewString(),
		OwnerID:   pr.ID,
		Name:      name,
		Weight:    weight,
		Filename:  strings.TrimSpace(in.Filename),
		Birthdate: birthdate,
		Location:  *in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Detail{}, apperr.Store(err)
	}
	return s.expandOne(ctx, c)
}

// UpdateAsOwner modifica un gato propio. El dueño no puede reasignar el gato:
// OwnerID se descarta. Si el gato no existe o es de otro => NotFound.
func (s *Service) UpdateAsOwner(ctx context.Context, p *access.Principal, id string, in UpdateInput) (Detail, error) {
	scope, err := access.OwnerScope(p, id)
	if err != nil {
		return Detail{}, err
	}
	in.OwnerID = nil
	return s.update(ctx, scope, in)
}

// UpdateAsAdmin puede tocar cualquier campo de cualquier gato, incluido el dueño.
func (s *Service) UpdateAsAdmin(ctx context.Context, p *access.Principal, id string, in UpdateInput) (Detail, error) {
	scope, err := access.AdminScope(p, id)
	if err != nil {
		return Detail{}, err
	}
	return s.update(ctx, scope, in)
}

func (s *Service) DeleteAsOwner(ctx context.Context, p *access.Principal, id string) (Detail, error) {
	scope, err := access.OwnerScope(p, id)
	if err != nil {
		return Detail{}, err
	}
	return s.delete(ctx, scope)
}

func (s *Service) DeleteAsAdmin(ctx context.Context, p *access.Principal, id string) (Detail, error) {
	scope, err := access.AdminScope(p, id)
	if err != nil {
		return Detail{}, err
	}
	return s.delete(ctx, scope)
}

func (s *Service) update(ctx context.Context, scope access.Scope, in UpdateInput) (Detail, error) {
	patch, err := s.buildPatch(ctx, in)
	if err != nil {
		return Detail{}, err
	}

	c, err := s.repo.UpdateWhere(ctx, scope, patch)
	if err != nil {
		return Detail{}, classify(err, "Cat not found")
	}
	return s.expandOne(ctx, c)
}

func (s *Service) delete(ctx context.Context, scope access.Scope) (Detail, error) {
	c, err := s.repo.DeleteWhere(ctx, scope)
	if err != nil {
		return Detail{}, classify(err, "No cat found")
	}
	return s.expandOne(ctx, c)
}

func (s *Service) buildPatch(ctx context.Context, in UpdateInput) (Patch, error) {
	patch := Patch{UpdatedAt: s.now()}
	var verr error

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			verr = multierr.Append(verr, errors.New("cat_name is required"))
		}
		patch.Name = &v
	}
	if in.Weight != nil {
		w, err := parseWeight(*in.Weight)
		verr = multierr.Append(verr, err)
		patch.Weight = &w
	}
	if in.Birthdate != nil {
		b, err := parseBirthdate(*in.Birthdate)
		verr = multierr.Append(verr, err)
		patch.Birthdate = &b
	}
	if in.Filename != nil {
		v := strings.TrimSpace(*in.Filename)
		if v == "" {
			verr = multierr.Append(verr, errors.New("filename is required"))
		}
		patch.Filename = &v
	}
	if in.Location != nil {
		loc := *in.Location
		if loc.Type == "" {
			loc.Type = PointType
		}
		verr = multierr.Append(verr, validLocation(loc))
		patch.Location = &loc
	}
	if in.OwnerID != nil {
		v := strings.TrimSpace(*in.OwnerID)
		patch.OwnerID = &v
	}
	if err := apperr.FromValidation(verr); err != nil {
		return Patch{}, err
	}

	// El nuevo dueño tiene que existir.
	if patch.OwnerID != nil {
		found, err := s.owners.Owners(ctx, []string{*patch.OwnerID})
		if err != nil {
			return Patch{}, err
		}
		if _, ok := found[*patch.OwnerID]; !ok {
			return Patch{}, apperr.Validation("owner does not exist")
		}
	}
	return patch, nil
}

func (s *Service) expandOne(ctx context.Context, c Cat) (Detail, error) {
	out, err := s.expand(ctx, []Cat{c})
	if err != nil {
		return Detail{}, err
	}
	return out[0], nil
}

// expand agrega el dueño a cada gato. Si el dueño ya no existe (se borró su cuenta)
// queda solo el id.
func (s *Service) expand(ctx context.Context, items []Cat) ([]Detail, error) {
	out := make([]Detail, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	seen := map[string]struct{}{}
	ids := make([]string, 0, len(items))
	for _, c := range items {
		if _, ok := seen[c.OwnerID]; ok {
			continue
		}
		seen[c.OwnerID] = struct{}{}
		ids = append(ids, c.OwnerID)
	}

	owners, err := s.owners.Owners(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range items {
		o, ok := owners[c.OwnerID]
		if !ok {
			o = Owner{ID: c.OwnerID}
		}
		out = append(out, Detail{Cat: c, Owner: o})
	}
	return out, nil
}

func classify(err error, notFoundMsg string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, notFoundMsg, err)
	}
	return apperr.Store(err)
}

func parseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("weight is required")
	}
	w, err := parseFinite(s)
	if err != nil {
		return 0, errors.New("weight must be a number")
	}
	if w <= 0 {
		return 0, errors.New("weight must be greater than 0")
	}
	return w, nil
}

func parseBirthdate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("birthdate is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.New("birthdate must be YYYY-MM-DD")
	}
	return t, nil
}
