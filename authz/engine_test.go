package authz_test

import (
	"context"
	"testing"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestDetermineEffect(t *testing.T) {
	tests := []struct {
		name          string
		action        authz.Action
		roles         []authz.Role
		defaultEffect authz.Effect
		want          authz.Effect
	}{
		{
			name:          "allow admin write access",
			action:        "write",
			roles:         []authz.Role{"admin"},
			defaultEffect: authz.Deny,
			want:          authz.Allow,
		},
		{
			name:          "allow write access when one role matches",
			action:        "write",
			roles:         []authz.Role{"admin", "standard"},
			defaultEffect: authz.Deny,
			want:          authz.Allow,
		},
		{
			name:          "deny standard write access",
			action:        "write",
			roles:         []authz.Role{"standard"},
			defaultEffect: authz.Deny,
			want:          authz.Deny,
		},
		{
			name:          "deny no roles write access",
			action:        "write",
			roles:         []authz.Role{},
			defaultEffect: authz.Deny,
			want:          authz.Deny,
		},
		{
			name:          "deny role explicitly overrides",
			action:        "write",
			roles:         []authz.Role{"admin", "suspended"},
			defaultEffect: authz.Deny,
			want:          authz.Deny,
		},
		{
			name:          "deny role overrides default allow",
			action:        "write",
			roles:         []authz.Role{"suspended"},
			defaultEffect: authz.Allow,
			want:          authz.Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := authz.New(
				authz.WithPolicy(authz.Allow, authz.Role("admin"), authz.Action("write")),
				authz.WithPolicy(authz.Deny, authz.Role("suspended"), authz.Action("write")),
			)
			got, _ := e.DetermineEffect(tt.action, tt.roles, tt.defaultEffect)
			assert.Equal(t, tt.want, got)
		})
	}
}

type testNote struct {
	id     string
	author string
	public bool
}

func testEngine() *authz.Engine {
	notes := map[string]*testNote{
		"1": {id: "1", author: "bob", public: false},
		"2": {id: "2", author: "betty", public: true},
	}
	return authz.New(
		authz.WithPolicy(authz.Allow, authz.RoleOwner, authz.Action("notes.edit")),
		authz.WithPolicy(authz.Allow, authz.RoleOwner, authz.Action("notes.view")),
		authz.WithPolicy(authz.Allow, authz.RoleAnyone, authz.Action("notes.view_public")),
		authz.WithPolicy(authz.Deny, authz.Role("suspended"), authz.Action("notes.edit")),
		authz.WithObjectFetcher("note", authz.AsObjectFetcher(authz.MapFetcher(notes))),
		authz.WithRoleDescriber("note", authz.Compose(
			authz.OwnershipRole(authz.RoleOwner, func(n *testNote) string { return n.author }),
			authz.StaticRole(authz.RoleAnyone, func(context.Context, auth.Identity, *testNote) bool { return true }),
			authz.StaticRole(authz.Role("suspended"), func(_ context.Context, subject auth.Identity, _ *testNote) bool {
				return subject.Subject == "mallory"
			}),
		)),
	)
}

func identityCtx(t *testing.T, subject string) context.Context {
	t.Helper()
	return auth.WithIdentityForTest(t.Context(), auth.Identity{
		Subject:  subject,
		Provider: "test",
		Email:    subject + "@example.com",
	})
}

func TestAuthorize_OwnerAllowed(t *testing.T) {
	err := testEngine().Authorize(identityCtx(t, "bob"), authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "1",
		Action:   "notes.edit",
	})
	assert.NoError(t, err)
}

func TestAuthorize_NonOwnerDenied(t *testing.T) {
	err := testEngine().Authorize(identityCtx(t, "betty"), authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "1",
		Action:   "notes.edit",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
	assert.Equal(t, codes.PermissionDenied, errors.Code(err))
}

func TestAuthorize_MissingObjectDeniedGenerically(t *testing.T) {
	// A missing row looks exactly like a forbidden one.
	err := testEngine().Authorize(identityCtx(t, "betty"), authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "no-such-note",
		Action:   "notes.edit",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
	assert.Equal(t, codes.PermissionDenied, errors.Code(err))
}

func TestAuthorize_DenialIsGeneric(t *testing.T) {
	err := testEngine().Authorize(identityCtx(t, "betty"), authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "1",
		Action:   "notes.edit",
	})
	require.Error(t, err)
	// Callers must not learn which rule failed or what the row contains.
	assert.NotContains(t, err.Error(), "owner")
	assert.NotContains(t, err.Error(), "bob")
}

func TestAuthorize_DenyRoleOverridesOwner(t *testing.T) {
	e := testEngine()
	ctx := auth.WithIdentityForTest(t.Context(), auth.Identity{Subject: "mallory", Provider: "test"})

	// Even if mallory owned the note, the suspended deny would win. Here she
	// doesn't own it either, but the deny role is what gets recorded.
	err := e.Authorize(ctx, authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "2",
		Action:   "notes.edit",
	})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestAuthorize_AnonymousGetsUnauthenticated(t *testing.T) {
	ctx := auth.WithIdentityForTest(t.Context(), auth.Identity{})
	err := testEngine().Authorize(ctx, authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "1",
		Action:   "notes.edit",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
	assert.Equal(t, codes.Unauthenticated, errors.Code(err))
}

func TestAuthorize_AnonymousPublicRead(t *testing.T) {
	ctx := auth.WithIdentityForTest(t.Context(), auth.Identity{})
	err := testEngine().Authorize(ctx, authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "2",
		Action:   "notes.view_public",
	})
	assert.NoError(t, err)
}

func TestAuthorize_InsertTimeObject(t *testing.T) {
	// The candidate row is passed directly; no fetcher round-trip.
	candidate := &testNote{id: "new", author: "bob"}

	err := testEngine().Authorize(identityCtx(t, "bob"), authz.AuthorizeParams{
		Resource: "note",
		Object:   candidate,
		Action:   "notes.edit",
	})
	assert.NoError(t, err)

	err = testEngine().Authorize(identityCtx(t, "betty"), authz.AuthorizeParams{
		Resource: "note",
		Object:   candidate,
		Action:   "notes.edit",
	})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestAuthorize_MissingPolicyIsInternalError(t *testing.T) {
	err := testEngine().Authorize(identityCtx(t, "bob"), authz.AuthorizeParams{
		Resource: "note",
		ObjectID: "1",
		Action:   "notes.unknown",
	})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, errors.Code(err))
}

func TestAuthorize_AuditLogger(t *testing.T) {
	var decisions []authz.Decision
	e := testEngine()
	authz.WithAuditLogger(func(ctx context.Context, d authz.Decision) {
		decisions = append(decisions, d)
	})(e)

	_ = e.Authorize(identityCtx(t, "bob"), authz.AuthorizeParams{
		Resource: "note", ObjectID: "1", Action: "notes.edit",
	})
	_ = e.Authorize(identityCtx(t, "betty"), authz.AuthorizeParams{
		Resource: "note", ObjectID: "1", Action: "notes.edit",
	})

	require.Len(t, decisions, 2)
	assert.Equal(t, authz.Allow, decisions[0].Effect)
	assert.Equal(t, authz.Deny, decisions[1].Effect)
	assert.NotEmpty(t, decisions[1].Reason)
}

func TestRoleHierarchy(t *testing.T) {
	e := authz.New(
		authz.WithRoleHierarchy(authz.RoleAdmin, authz.RoleCustomer),
		authz.WithPolicy(authz.Allow, authz.RoleCustomer, authz.Action("orders.create")),
	)
	got, _ := e.DetermineEffect("orders.create", []authz.Role{authz.RoleAdmin}, authz.Deny)
	assert.Equal(t, authz.Allow, got, "admin should inherit customer policies")

	assert.Equal(t, []authz.Role{authz.RoleAdmin, authz.RoleCustomer}, e.RoleHierarchy(authz.RoleAdmin))
	assert.Equal(t, []authz.Role{authz.RoleCustomer}, e.RoleHierarchy(authz.RoleCustomer))
}

func TestSetRoleHierarchy_CycleDetection(t *testing.T) {
	e := authz.New(authz.WithRoleHierarchy("a", "b", "c"))
	assert.Panics(t, func() {
		e.SetRoleHierarchy("c", "a")
	})
}
