package soldier

import "context"

type tokenKey struct{}

// WithToken threads a session token through the request context so the
// engine can resolve the current actor without ambient state.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the session token from the context, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
