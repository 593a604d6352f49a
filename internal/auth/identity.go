package auth

import (
	"errors"

	"github.com/google/uuid"
)

// Ошибки идентификации.
var (
	ErrNoIdentity   = errors.New("no identity in request")
	ErrInvalidToken = errors.New("invalid token")
)

// Роль пользователя в системе.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
	RoleUnknown Role = "unknown"
)

// Identity — аутентифицированный субъект запроса. Выдаётся внешним
// провайдером идентичности и передаётся явно в каждый вызов леджеров
// и координатора: никакого чтения амбиентного глобального состояния.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin — администратор действует от имени любого врача и пациента.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

func ParseRole(s string) Role {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s)
	default:
		return RoleUnknown
	}
}
