package authz

import (
	"context"
	"fmt"
	"slices"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/logging"

	"google.golang.org/grpc/codes"
)

// Constant name for identifying the authz engine in the plugin registry.
const PluginName = "authz"

var (
	ErrPermissionDenied = errors.NewC("you are not authorized to perform this action", codes.PermissionDenied)
	ErrUnauthenticated  = errors.NewC("the requested action requires authentication", codes.Unauthenticated)
)

// Configuration options for the Engine.
type Option func(*Engine)

// New returns a new authorization Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRoleHierarchy configures the engine with a hierarchy of roles.
//
// The first role is the most powerful, and the last role has no hierarchy
// from a single call. Multiple calls can be used to define tree hierarchies.
//
// Example:
//
//	WithRoleHierarchy("admin", "customer")
//
// In this example the "admin" role inherits every policy granted to
// "customer".
func WithRoleHierarchy(roles ...Role) Option {
	return func(e *Engine) {
		e.SetRoleHierarchy(roles...)
	}
}

// WithPolicy adds a policy to the engine.
func WithPolicy(effect Effect, role Role, action Action) Option {
	return func(e *Engine) {
		e.DefinePolicy(effect, role, action)
	}
}

// WithObjectFetcher adds an object fetcher to the engine.
func WithObjectFetcher(resource string, fetcher ObjectFetcher) Option {
	return func(e *Engine) {
		e.RegisterObjectFetcher(resource, fetcher)
	}
}

// WithRoleDescriber adds a role describer to the engine.
func WithRoleDescriber(resource string, describer RoleDescriber) Option {
	return func(e *Engine) {
		e.RegisterRoleDescriber(resource, describer)
	}
}

// WithAuditLogger configures an audit logger to receive all authorization
// decisions. The audit logger is called for both allowed and denied requests,
// providing visibility into authorization decisions for compliance and
// security monitoring.
func WithAuditLogger(logger AuditLogger) Option {
	return func(e *Engine) {
		e.auditLogger = logger
	}
}

// AuditLogger is a function that receives authorization decisions for audit
// logging.
type AuditLogger func(ctx context.Context, decision Decision)

// Decision captures the inputs and outcome of a single authorization check.
type Decision struct {
	Action            Action
	Resource          string
	ObjectID          any
	Identity          auth.Identity
	Roles             []Role
	Effect            Effect
	DefaultEffect     Effect
	EvaluatedPolicies []PolicyEvaluation
	Reason            string
}

// PolicyEvaluation records a single policy that matched during evaluation.
type PolicyEvaluation struct {
	Role   Role
	Effect Effect
}

// Engine evaluates per-(resource, action) predicates against the caller's
// identity, roles, and target row.
type Engine struct {
	policies       map[Action]map[Role]Effect
	objectFetchers map[string]ObjectFetcher
	roleDescribers map[string]RoleDescriber
	roleParents    map[Role]Role
	auditLogger    AuditLogger
}

// From bookstore.Plugin.
func (e *Engine) Name() string {
	return PluginName
}

// DefinePolicy defines a policy which allows/denies the given role to perform
// the action.
func (e *Engine) DefinePolicy(effect Effect, role Role, action Action) {
	if e.policies == nil {
		e.policies = make(map[Action]map[Role]Effect)
	}
	if e.policies[action] == nil {
		e.policies[action] = make(map[Role]Effect)
	}
	e.policies[action][role] = effect
}

// RegisterObjectFetcher registers an object fetcher for a resource key.
// '*' can be used as a wildcard to match any key which doesn't have a more
// specific fetcher.
func (e *Engine) RegisterObjectFetcher(resource string, fetcher ObjectFetcher) {
	if e.objectFetchers == nil {
		e.objectFetchers = make(map[string]ObjectFetcher)
	}
	e.objectFetchers[resource] = fetcher
}

// RegisterRoleDescriber registers a role describer for a resource key.
// '*' can be used as a wildcard to match any key which doesn't have a more
// specific describer.
func (e *Engine) RegisterRoleDescriber(resource string, describer RoleDescriber) {
	if e.roleDescribers == nil {
		e.roleDescribers = make(map[string]RoleDescriber)
	}
	e.roleDescribers[resource] = describer
}

// SetRoleHierarchy sets the hierarchy of roles.
func (e *Engine) SetRoleHierarchy(roles ...Role) {
	if len(roles) <= 1 {
		return
	}
	if e.roleParents == nil {
		e.roleParents = map[Role]Role{}
	}
	for i := range len(roles) - 1 {
		if _, exists := e.roleParents[roles[i]]; exists {
			panic("role '" + roles[i] + "' is already part of an established hierarchy")
		}
		if slices.Contains(roles[i+1:], roles[i]) {
			panic("cycle detected for role '" + roles[i] + "' in new hierarchy")
		}
		if slices.Contains(e.RoleHierarchy(roles[i+1]), roles[i]) {
			panic("cycle detected for role '" + roles[i] + "' in established hierarchy")
		}
		e.roleParents[roles[i]] = roles[i+1]
	}
}

// RoleHierarchy returns the ancestry of a single role.
func (e *Engine) RoleHierarchy(role Role) []Role {
	roles := []Role{role}
	for parent := e.roleParents[role]; parent != Role(""); parent = e.roleParents[parent] {
		roles = append(roles, parent)
	}
	return roles
}

// RoleTree returns the hierarchy of roles in tree form.
func (e *Engine) RoleTree() map[Role][]Role {
	children := make(map[Role][]Role)
	for child, parent := range e.roleParents {
		children[parent] = append(children[parent], child)
	}
	return children
}

func (e *Engine) fetcherForKey(resource string) ObjectFetcher {
	if fetcher, ok := e.objectFetchers[resource]; ok {
		return fetcher
	}
	if fetcher, ok := e.objectFetchers["*"]; ok {
		return fetcher
	}
	return nil
}

func (e *Engine) describerForKey(resource string) RoleDescriber {
	if describer, ok := e.roleDescribers[resource]; ok {
		return describer
	}
	if describer, ok := e.roleDescribers["*"]; ok {
		return describer
	}
	return nil
}

// Parameters for the Authorize method.
type AuthorizeParams struct {
	// Resource identifies which fetcher and describer to consult.
	Resource string

	// ObjectID locates the target row via the registered fetcher. Ignored when
	// Object is set.
	ObjectID any

	// Object supplies the target row directly, bypassing the fetcher. Used for
	// insert-time checks where the candidate row does not exist yet.
	Object any

	Action        Action
	DefaultEffect Effect
}

// Authorize verifies that the caller is authorized to perform the action on
// the object. This check:
//
//  1. Loads the target row via the registered ObjectFetcher, unless the
//     candidate row was supplied directly.
//  2. Gets the user's roles relative to the row (RoleDescriber).
//  3. Checks if any granted role admits the action.
//
// Denials are atomic and terminal: a generic ErrPermissionDenied (or
// ErrUnauthenticated for anonymous callers) is returned with no indication of
// which rule failed.
func (e *Engine) Authorize(ctx context.Context, cfg AuthorizeParams) error {
	if e.policies[cfg.Action] == nil {
		return errors.Codef(codes.Internal, "authz error: no policies configured for '%s'", cfg.Action)
	}
	describer := e.describerForKey(cfg.Resource)
	if describer == nil {
		return errors.Codef(codes.Internal, "authz error: no role describer for resource '%s'", cfg.Resource)
	}

	object := cfg.Object
	if object == nil {
		fetcher := e.fetcherForKey(cfg.Resource)
		if fetcher == nil {
			return errors.Codef(codes.Internal, "authz error: no object fetcher for resource '%s'", cfg.Resource)
		}
		var err error
		object, err = fetcher.FetchObject(ctx, cfg.ObjectID)
		if err != nil {
			// On a publicly readable resource the caller is entitled to learn
			// a row does not exist. Everywhere else a missing row surfaces as
			// the same generic denial an existing but forbidden row would, so
			// denied requests cannot probe row existence.
			if errors.Code(err) == codes.NotFound {
				if effect, _ := e.DetermineEffect(cfg.Action, []Role{RoleAnyone}, cfg.DefaultEffect); effect == Allow {
					return err
				}
				logging.Track(ctx, "authz.reason", "object not found")
				if _, idErr := auth.IdentityFromContext(ctx); errors.Is(idErr, auth.ErrNotFound) {
					return errors.Mark(ErrUnauthenticated, 0)
				}
				return errors.Mark(ErrPermissionDenied, 0)
			}
			return err
		}
	}

	defaultError := ErrPermissionDenied

	// Get the caller's identity.
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			logging.Track(ctx, "authz.reason", "authentication error")
			return err
		}
		// If the request is unauthenticated, still run the policy, but change the
		// default error type to Unauthenticated instead of PermissionDenied.
		defaultError = ErrUnauthenticated
	}

	// Get the user's roles relative to the object.
	roles, err := describer.DescribeRoles(ctx, identity, object)
	if err != nil {
		logging.Track(ctx, "authz.reason", "failed to describe roles")
		return err
	}

	logging.Track(ctx, "authz.action", cfg.Action)
	logging.Track(ctx, "authz.resource", cfg.Resource)
	logging.Track(ctx, "authz.objectID", cfg.ObjectID)
	logging.Track(ctx, "authz.roles", roles)

	finalEffect, evaluatedPolicies := e.DetermineEffect(cfg.Action, roles, cfg.DefaultEffect)
	logging.Track(ctx, "authz.evaluated_policies", evaluatedPolicies)
	logging.Track(ctx, "authz.effect", finalEffect.String())

	decision := Decision{
		Action:            cfg.Action,
		Resource:          cfg.Resource,
		ObjectID:          cfg.ObjectID,
		Identity:          identity,
		Roles:             roles,
		Effect:            finalEffect,
		DefaultEffect:     cfg.DefaultEffect,
		EvaluatedPolicies: evaluatedPolicies,
	}

	if finalEffect == Allow {
		decision.Reason = "allowed by policy"
		logging.Track(ctx, "authz.reason", decision.Reason)
		if e.auditLogger != nil {
			e.auditLogger(ctx, decision)
		}
		return nil
	}

	decision.Reason = denialReason(cfg.Action, roles, evaluatedPolicies)
	logging.Track(ctx, "authz.reason", decision.Reason)
	if e.auditLogger != nil {
		e.auditLogger(ctx, decision)
	}

	// The caller only sees a generic denial. The reason stays in the audit
	// trail so denied requests cannot be used to probe row state.
	return errors.Mark(defaultError, 0)
}

// denialReason describes, for the audit trail only, why access was denied.
func denialReason(action Action, roles []Role, evaluated []PolicyEvaluation) string {
	if len(roles) == 0 {
		return "no roles assigned"
	}
	if len(evaluated) == 0 {
		return fmt.Sprintf("no policies match action '%s' for the caller's roles", action)
	}
	for _, policy := range evaluated {
		if policy.Effect == Deny {
			return fmt.Sprintf("explicitly denied by role '%s'", policy.Role)
		}
	}
	return fmt.Sprintf("action '%s' not explicitly allowed (default: deny)", action)
}

// DetermineEffect determines if a user can perform an action using AWS
// IAM-style precedence:
//
//  1. Explicit Deny: if ANY role has a Deny policy for the action → Deny
//  2. Explicit Allow: if ANY role has an Allow policy (and no Deny) → Allow
//  3. Default Effect: if no policies match → use the caller's default effect
//
// Deny policies can block access even when other roles would grant it, which
// is what restrictive gates such as the blocked-account gate rely on.
//
// Returns the final effect and a list of evaluated policies for auditing.
func (e *Engine) DetermineEffect(action Action, roles []Role, defaultEffect Effect) (Effect, []PolicyEvaluation) {
	if len(roles) == 0 {
		return defaultEffect, nil
	}
	var effects effectList
	var evaluated []PolicyEvaluation

	for _, role := range roles {
		for _, r := range e.RoleHierarchy(role) {
			if roleEffect, ok := e.policies[action][r]; ok {
				effects = append(effects, roleEffect)
				evaluated = append(evaluated, PolicyEvaluation{Role: r, Effect: roleEffect})
			}
		}
	}
	return effects.Combine(defaultEffect), evaluated
}
