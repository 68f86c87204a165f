package auth

import "context"

// ContextKey is the key type for values the auth layer stores in a context.
type ContextKey int

const (
	// UserIDContextKey holds the authenticated user id (int32).
	UserIDContextKey ContextKey = iota
)

// GetUserID returns the authenticated user id, or 0 for an anonymous request.
func GetUserID(ctx context.Context) int32 {
	if v, ok := ctx.Value(UserIDContextKey).(int32); ok {
		return v
	}
	return 0
}

// WithUserID returns a copy of ctx carrying the user id.
func WithUserID(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}
