package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func testIdentity() Identity {
	return Identity{
		SessionID:     "session-1",
		AuthTime:      time.Now().Truncate(time.Second),
		Subject:       "user-123",
		Provider:      "test",
		Email:         "reader@example.com",
		EmailVerified: true,
		Name:          "Avid Reader",
	}
}

func TestIdentityTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := testIdentity()

	token, err := IdentityToken(ctx, want)
	require.NoError(t, err)

	got, err := ParseIdentityToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, want.Subject, got.Subject)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Provider, got.Provider)
	assert.Equal(t, want.SessionID, got.SessionID)
	assert.True(t, got.EmailVerified)
}

func TestIdentityFromContext(t *testing.T) {
	ctx := WithIdentityForTest(context.Background(), testIdentity())
	got, err := IdentityFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.Subject)
}

func TestIdentityFromContextAnonymous(t *testing.T) {
	ctx := WithIdentityForTest(context.Background(), Identity{})
	_, err := IdentityFromContext(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseIdentityTokenExpired(t *testing.T) {
	ctx := context.Background()

	timeFunc = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := IdentityToken(ctx, testIdentity())
	require.NoError(t, err)
	timeFunc = time.Now

	_, err = ParseIdentityToken(ctx, token)
	assert.Error(t, err)
}

func TestParseIdentityTokenWrongKey(t *testing.T) {
	signed, err := IdentityToken(WithSigningKey(context.Background(), "other key"), testIdentity())
	require.NoError(t, err)

	_, err = ParseIdentityToken(context.Background(), signed)
	assert.Error(t, err)
}

func TestIdentityFromAuthHeaderMalformed(t *testing.T) {
	ctx := WithDefaultExtractors(context.Background())
	ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "digest abc123"))
	_, err := IdentityFromContext(ctx)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}
