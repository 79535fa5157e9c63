// Package auth provides utilities for authenticating requests.
//
// Authentication is delegated to an external identity provider, which verifies
// the identity of the client. The resulting identity is encoded as a signed
// JWT that the client presents on future requests, either as a bearer token or
// basic auth credential.
//
// Request handling code should use IdentityFromContext to recover the caller's
// identity. Anonymous requests yield ErrNotFound, which callers may treat as
// an unauthenticated but otherwise valid request.
package auth

import (
	"time"

	"github.com/dpup/bookstore/errors"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
)

var (
	// No identity was found within the incoming context.
	ErrNotFound = errors.NewC("identity not found", codes.Unauthenticated)

	// The token's expiration date was in the past.
	ErrExpired = errors.NewC("token has expired", codes.Unauthenticated)

	// The token was not signed correctly.
	ErrInvalidToken = errors.NewC("token is invalid", codes.InvalidArgument)

	// Invalid authorization header.
	ErrInvalidHeader = errors.NewC("bad authorization header", codes.InvalidArgument)

	// Allows for time to be stubbed in tests.
	timeFunc = time.Now
)

// Claims registered as part of a bookstore identity token.
type Claims struct {
	// Standard public JWT claims per https://www.iana.org/assignments/jwt/jwt.xhtml
	jwt.RegisteredClaims
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	EmailVerified bool             `json:"email_verified"`
	AuthTime      *jwt.NumericDate `json:"auth_time,omitempty"`

	// Custom claims.
	Provider string `json:"idp"`
}

func (c *Claims) Validate() error {
	if c.Provider == "" {
		return errors.Mark(ErrInvalidToken, 0).Append("missing provider")
	}
	return nil
}
