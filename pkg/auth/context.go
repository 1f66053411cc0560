package auth

import "context"

type contextKey struct{}

// WithKeyInfo stores the authenticated key in ctx.
func WithKeyInfo(ctx context.Context, info *KeyInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// KeyInfoFromContext returns the authenticated key, if any.
func KeyInfoFromContext(ctx context.Context) (*KeyInfo, bool) {
	info, ok := ctx.Value(contextKey{}).(*KeyInfo)
	return info, ok
}
