package auth

import "shared-access-core/internal/domain/permissions"

// Claims es la identidad del caller: quién es y con qué rol actúa.
type Claims struct {
	UserID string
	Name   string
	Phone  string
	Role   permissions.Role
}

// IsOwnerOf: el owner de una cuenta es el usuario cuyo id es el accountID.
func (c Claims) IsOwnerOf(accountID string) bool {
	return c.UserID != "" && c.UserID == accountID
}
