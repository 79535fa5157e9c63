package auth

import (
	"context"
	"time"

	"github.com/dpup/bookstore/errors"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

// Leeway for JWT expiration checks.
const jwtLeeway = 5 * time.Second

type Identity struct {

	// Unique identifier for the session that authenticated the identity. Maps to
	// the `jti` JWT claim.
	SessionID string

	// The time at which the identity was authenticated. Maps to `auth_time` JWT
	// claim. May differ from IssuedAt if a token is refreshed.
	AuthTime time.Time

	// Identity provider specific identifier. Maps to `sub` JWT claim.
	Subject string

	// Name of the identity provider used to authenticate the user. Maps to
	// custom `idp` JWT claim.
	Provider string

	// The email address received from the identity provider, if available. Maps
	// to `email` JWT claim.
	Email string

	// Whether the identity provider has verified the email address. Maps to
	// `email_verified` JWT claim.
	EmailVerified bool

	// Name received from the identity provider, if available. Maps to `name`
	// JWT claim.
	Name string
}

// IdentityExtractor is a function which returns a user identity from a given
// context. Extractors should return ErrNotFound if no identity is found.
type IdentityExtractor func(ctx context.Context) (Identity, error)

type identityExtractorsKey struct{}

// WithIdentityExtractors attaches a list of identity extractors to the context.
func WithIdentityExtractors(ctx context.Context, extractors ...IdentityExtractor) context.Context {
	return context.WithValue(ctx, identityExtractorsKey{}, extractors)
}

// WithDefaultExtractors returns a context with the standard identity
// extractors attached. Incoming request plumbing should call this once per
// request before handing the context to services.
func WithDefaultExtractors(ctx context.Context) context.Context {
	return WithIdentityExtractors(ctx, identityFromAuthHeader)
}

// IdentityFromContext parses and verifies a JWT received from the incoming
// request context. Returns ErrNotFound for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	extractors, ok := ctx.Value(identityExtractorsKey{}).([]IdentityExtractor)
	if !ok {
		return Identity{}, errors.New("auth: no identity extractors registered. See WithDefaultExtractors")
	}
	for _, extract := range extractors {
		i, err := extract(ctx)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return i, err
	}
	return Identity{}, ErrNotFound
}

// IdentityToken creates a signed JWT for the given identity.
func IdentityToken(ctx context.Context, identity Identity) (string, error) {
	// Both issuer and audience are set to this server, indicating that the token
	// was created here and is only intended to be used here.
	iss := issuer()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        identity.SessionID,
			Subject:   identity.Subject,
			Audience:  jwt.ClaimStrings{iss},
			Issuer:    iss,
			IssuedAt:  jwt.NewNumericDate(timeFunc()),
			ExpiresAt: jwt.NewNumericDate(timeFunc().Add(expirationFromContext(ctx))),
		},
		Name:          identity.Name,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		Provider:      identity.Provider,
		AuthTime:      jwt.NewNumericDate(identity.AuthTime),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(signingKeyFromContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, 0).WithCode(codes.Unauthenticated)
	}
	return ss, nil
}

// ParseIdentityToken takes a signed JWT, validates it, and returns the
// identity information encoded within. Invalid and expired tokens error.
func ParseIdentityToken(ctx context.Context, tokenString string) (Identity, error) {
	iss := issuer()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return signingKeyFromContext(ctx), nil
		},
		jwt.WithIssuer(iss),
		jwt.WithAudience(iss),
		jwt.WithLeeway(jwtLeeway),
		jwt.WithTimeFunc(timeFunc),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Identity{}, errors.Wrap(err, 0).WithCode(codes.Unauthenticated)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if err := claims.Validate(); err != nil {
			return Identity{}, err
		}
		return Identity{
			Provider:      claims.Provider,
			SessionID:     claims.ID,
			AuthTime:      claims.AuthTime.Time,
			Subject:       claims.Subject,
			Email:         claims.Email,
			EmailVerified: claims.EmailVerified,
			Name:          claims.Name,
		}, nil
	}

	return Identity{}, errors.Mark(ErrInvalidToken, 0).Append("invalid claims")
}

// WithIdentityForTest creates a new context with the given identity attached.
// This is useful for testing, where we want to simulate a request with a given
// identity.
func WithIdentityForTest(ctx context.Context, identity Identity) context.Context {
	ctx = WithDefaultExtractors(ctx)
	if identity == (Identity{}) {
		// Short-circuit to avoid serialization/deserialization of empty identity.
		return ctx
	}
	tokenString, _ := IdentityToken(ctx, identity)
	md := metadata.Pairs("authorization", tokenString)
	return metadata.NewIncomingContext(ctx, md)
}
