// Package principals manages the principal registry: the canonical record of
// every authenticated actor, their role, and their blocked status.
//
// The registry is the root of the authorization model. Its resolver is the
// single privileged path used to answer "is this caller an admin" during
// policy evaluation, and its registration hook materializes a registry row
// whenever the external identity provider creates a new identity.
package principals

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Role held by a principal. Stored on the registry row and immutable except
// via administrator action.
type Role string

const (
	// RoleNone indicates the principal has no registry row. Treated as "not
	// admin" everywhere.
	RoleNone = Role("")

	RoleCustomer = Role("customer")
	RoleAdmin    = Role("admin")
)

// Principal is a registry row. The subject is the identity key assigned by
// the external identity provider; it is unique and immutable.
type Principal struct {
	Subject string    `json:"subject"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Address string    `json:"address,omitempty"`
	Role    Role      `json:"role"`
	Blocked bool      `json:"blocked"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// PK implements storage.Model.
func (p Principal) PK() string {
	return p.Subject
}

func (p Principal) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Subject, validation.Required),
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
		validation.Field(&p.Role, validation.Required, validation.In(RoleCustomer, RoleAdmin)),
	)
}
