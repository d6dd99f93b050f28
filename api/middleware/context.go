package middleware

import "context"

type principalKey struct{}

// Principal is the authenticated caller attached by Auth.
type Principal struct {
	CustomerID string
	Role       string
	AccessID   string
}

func principalFrom(ctx context.Context) Principal {
	if ctx == nil {
		return Principal{}
	}
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

// WithPrincipal stores the caller on ctx, replacing any earlier one.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

func CustomerIDFromContext(ctx context.Context) string { return principalFrom(ctx).CustomerID }

func RoleFromContext(ctx context.Context) string { return principalFrom(ctx).Role }

// AccessIDFromContext returns the jti of the presented access token.
func AccessIDFromContext(ctx context.Context) string { return principalFrom(ctx).AccessID }

// WithCustomerID sets only the customer on the current principal.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	p := principalFrom(ctx)
	p.CustomerID = customerID
	return WithPrincipal(ctx, p)
}

// WithRole sets only the role on the current principal.
func WithRole(ctx context.Context, role string) context.Context {
	p := principalFrom(ctx)
	p.Role = role
	return WithPrincipal(ctx, p)
}
