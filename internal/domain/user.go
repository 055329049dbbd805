package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Address is one labeled shipping address on a user profile.
type Address struct {
	Label string `json:"label"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// User holds the account record. PasswordHash is empty for accounts that
// authenticate through an external identity provider; exactly one of the two
// login paths applies.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ExternalID   string    `json:"-"`
	Role         Role      `json:"role"`
	Addresses    []Address `json:"addresses"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasLocalCredential reports whether the account can log in with a password.
func (u *User) HasLocalCredential() bool {
	return u.PasswordHash != ""
}
