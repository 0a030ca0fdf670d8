package pm

import "context"

// Actor is the authenticated user making the current request, resolved
// from its access token by the HTTP layer.
type Actor struct {
	ID        string
	Email     string
	Role      Role
	CompanyID string
}

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsMember reports whether the actor holds the Member role.
func (a Actor) IsMember() bool { return a.Role == RoleMember }

type actorContextKey struct{}

// ContextWithActor attaches the authenticated actor to the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, &actor)
}

// ActorFromContext extracts the authenticated actor from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	v, ok := ctx.Value(actorContextKey{}).(*Actor)
	if !ok || v == nil {
		return Actor{}, false
	}
	return *v, true
}
