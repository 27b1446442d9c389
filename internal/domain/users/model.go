package users

import (
	"time"

	"pet-registry/internal/domain/access"
)

// User es el registro completo. PasswordHash nunca sale del paquete hacia la API.
type User struct {
	ID string

	UserName string
	Email    string
	Role     access.Role

	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public es la proyección segura: sin hash ni rol.
type Public struct {
	ID       string
	UserName string
	Email    string
}

func (u User) Public() Public {
	return Public{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
	}
}

// Patch es un update parcial. nil = no tocar. El rol no está a propósito.
type Patch struct {
	UserName     *string
	Email        *string
	PasswordHash *string
	UpdatedAt    time.Time
}

// Apply aplica el patch sobre u. Lo usan los stores que no pueden expresar el update en el motor.
func (p Patch) Apply(u User) User {
	if p.UserName != nil {
		u.UserName = *p.UserName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if !p.UpdatedAt.IsZero() {
		u.UpdatedAt = p.UpdatedAt
	}
	return u
}
