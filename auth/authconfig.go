package auth

import (
	"context"
	"time"

	"github.com/dpup/bookstore"
)

func init() {
	bookstore.RegisterConfigKeys(
		bookstore.ConfigKeyInfo{
			Key:         "auth.signingKey",
			Description: "JWT signing key for identity tokens",
			Type:        "string",
		},
		bookstore.ConfigKeyInfo{
			Key:         "auth.expiration",
			Description: "How long identity tokens should be valid for",
			Type:        "duration",
			Default:     "24h",
		},
	)
}

const defaultTokenExpiration = time.Hour * 24

type signingKeyKey struct{}

type tokenExpirationKey struct{}

// WithSigningKey overrides the configured JWT signing key for the scope of the
// returned context.
func WithSigningKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, signingKeyKey{}, key)
}

// WithExpiration overrides the configured token expiration for the scope of
// the returned context.
func WithExpiration(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, tokenExpirationKey{}, d)
}

func signingKeyFromContext(ctx context.Context) []byte {
	if v, ok := ctx.Value(signingKeyKey{}).(string); ok && v != "" {
		return []byte(v)
	}
	if v := bookstore.ConfigString("auth.signingKey"); v != "" {
		return []byte(v)
	}
	return []byte("Paperbacks and hardcovers, freshly signed.")
}

func expirationFromContext(ctx context.Context) time.Duration {
	if v, ok := ctx.Value(tokenExpirationKey{}).(time.Duration); ok && v != 0 {
		return v
	}
	if v := bookstore.ConfigDuration("auth.expiration"); v != 0 {
		return v
	}
	return defaultTokenExpiration
}

func issuer() string {
	if v := bookstore.ConfigString("address"); v != "" {
		return v
	}
	return "bookstore"
}
