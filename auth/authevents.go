package auth

const (
	// Emitted when the external identity provider creates a brand new identity.
	IdentityCreatedEvent = "auth.identity_created"

	LoginEvent  = "auth.login"
	LogoutEvent = "auth.logout"
)

// AuthEvent is the payload published for authentication related events.
type AuthEvent struct {
	Identity Identity
}
