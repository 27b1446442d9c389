package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/platform/apperr"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	minUserNameLen = 3
	minPasswordLen = 4
)

type Service struct {
	repo   Repository
	hasher PasswordHasher
	now    func() time.Time
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

type RegisterInput struct {
	UserName string
	Email    string
	Password string
	// Role se ignora siempre: el registro crea usuarios con rol user.
	Role string
}

type UpdateInput struct {
	UserName *string
	Email    *string
	Password *string
}

func (s *Service) List(ctx context.Context) ([]Public, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	out := make([]Public, 0, len(items))
	for _, u := range items {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Public, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Public{}, classify(err, "No user found")
	}
	return u.Public(), nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Public, error) {
	name := strings.TrimSpace(in.UserName)
	email := strings.TrimSpace(in.Email)

	var verr error
	verr = multierr.Append(verr, validateUserName(name))
	verr = multierr.Append(verr, validateEmail(email))
	verr = multierr.Append(verr, validatePassword(in.Password))
	if err := apperr.FromValidation(verr); err != nil {
		return Public{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Public{}, apperr.Store(fmt.Errorf("hash password: %w", err))
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		UserName:     name,
		Email:        email,
		Role:         access.RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return Public{}, classify(err, "User not created")
	}
	return u.Public(), nil
}

// UpdateCurrent siempre opera sobre el principal; no hay forma de tocar a otro usuario.
func (s *Service) UpdateCurrent(ctx context.Context, p *access.Principal, in UpdateInput) (Public, error) {
	id, err := access.SelfScope(p)
	if err != nil {
		return Public{}, err
	}

	patch := Patch{UpdatedAt: s.now()}
	var verr error

	if in.UserName != nil {
		v := strings.TrimSpace(*in.UserName)
		verr = multierr.Append(verr, validateUserName(v))
		patch.UserName = &v
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		verr = multierr.Append(verr, validateEmail(v))
		patch.Email = &v
	}
	if in.Password != nil {
		verr = multierr.Append(verr, validatePassword(*in.Password))
	}
	if err := apperr.FromValidation(verr); err != nil {
		return Public{}, err
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return Public{}, apperr.Store(fmt.Errorf("hash password: %w", err))
		}
		patch.PasswordHash = &hash
	}

	u, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Public{}, classify(err, "No user found")
	}
	return u.Public(), nil
}

func (s *Service) DeleteCurrent(ctx context.Context, p *access.Principal) (Public, error) {
	id, err := access.SelfScope(p)
	if err != nil {
		return Public{}, err
	}

	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		return Public{}, classify(err, "No user found")
	}
	return u.Public(), nil
}

// CheckSession proyecta el principal ya resuelto. No consulta el store.
func (s *Service) CheckSession(p *access.Principal) (Public, bool) {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return Public{}, false
	}
	return Public{
		ID:       p.ID,
		UserName: p.Name,
		Email:    p.Email,
	}, true
}

// PublicProfiles resuelve varios usuarios de una vez (expansión de owner en cats).
// Los ids inexistentes simplemente no aparecen en el resultado.
func (s *Service) PublicProfiles(ctx context.Context, ids []string) (map[string]Public, error) {
	out := make(map[string]Public, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Store(err)
	}
	for _, u := range items {
		out[u.ID] = u.Public()
	}
	return out, nil
}

func classify(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, notFoundMsg, err)
	case errors.Is(err, ErrEmailTaken):
		return apperr.Wrap(apperr.KindValidation, ErrEmailTaken.Error(), err)
	default:
		return apperr.Store(err)
	}
}

func validateUserName(name string) error {
	if utf8.RuneCountInString(name) < minUserNameLen {
		return fmt.Errorf("user_name must be at least %d characters long", minUserNameLen)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email is invalid")
	}
	return nil
}

func validatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}
	return nil
}
