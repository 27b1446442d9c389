package access

import (
	"fmt"
	"strings"

	"pet-registry/internal/platform/apperr"
)

// Role es el rol del usuario. Solo existen dos valores válidos.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole valida un rol recibido como texto (claims, headers, store).
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsAdmin responde si el rol habilita operaciones de administración.
func IsAdmin(r Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// Principal es el usuario autenticado que llega resuelto desde el middleware de auth.
type Principal struct {
	ID    string
	Role  Role
	Name  string
	Email string
}

// Scope es el predicado que el store aplica de forma atómica en update/delete.
// OwnerID vacío = sin restricción de dueño (solo admin).
type Scope struct {
	ID      string
	OwnerID string
}

// Restricted indica si el predicado incluye la condición de dueño.
func (s Scope) Restricted() bool {
	return s.OwnerID != ""
}

// Matches evalúa el predicado contra un registro (id, owner). Lo usan los stores en memoria.
func (s Scope) Matches(id, ownerID string) bool {
	if s.ID != id {
		return false
	}
	return !s.Restricted() || s.OwnerID == ownerID
}

// Require exige un principal presente con id.
func Require(p *Principal) (Principal, error) {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return Principal{}, apperr.Unauthenticated("No user")
	}
	return *p, nil
}

// SelfScope devuelve el id sobre el que se acotan lecturas y mutaciones propias.
func SelfScope(p *Principal) (string, error) {
	pr, err := Require(p)
	if err != nil {
		return "", err
	}
	return pr.ID, nil
}

// OwnerScope arma el predicado {id, owner == principal}.
// Si no matchea nada el caller debe responder NotFound, nunca Forbidden.
func OwnerScope(p *Principal, id string) (Scope, error) {
	pr, err := Require(p)
	if err != nil {
		return Scope{}, err
	}
	return Scope{ID: strings.TrimSpace(id), OwnerID: pr.ID}, nil
}

// AdminScope exige rol admin y arma el predicado {id} sin condición de dueño.
func AdminScope(p *Principal, id string) (Scope, error) {
	pr, err := Require(p)
	if err != nil {
		return Scope{}, err
	}
	if !IsAdmin(pr.Role) {
		return Scope{}, apperr.Forbidden("Not admin")
	}
	return Scope{ID: strings.TrimSpace(id)}, nil
}
