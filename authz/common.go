package authz

// Roles shared across the bookstore's resources. Feature packages may define
// additional roles of their own (e.g. the registry's blocked-account role).
const (
	// Granted when the principal registry resolves the caller to an admin.
	RoleAdmin = Role("admin")

	// Granted to any authenticated caller with an ordinary registry row.
	RoleCustomer = Role("customer")

	// Granted when the target row is the caller's own registry row.
	RoleSelf = Role("self")

	// Granted when the caller owns the target row (orders, reviews).
	RoleOwner = Role("owner")

	// Granted unconditionally, including to anonymous callers. Used for
	// public-read resources such as the catalog.
	RoleAnyone = Role("anyone")
)
