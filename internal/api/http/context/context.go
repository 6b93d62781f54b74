package context

import (
	"context"
)

type ctxKey struct{}

// sessionIDKey is the context key used to store and retrieve the session ID.
var sessionIDKey = ctxKey{}

// Manager represents an HTTP context manager for session ID operations.
type Manager struct{}

// NewManager creates a new context manager instance.
//
// Returns a pointer to the newly created Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetSessionIDToContext stores the session ID in the request context.
//
// Parameters:
//   - ctx: The request context
//   - sessionID: The session ID resolved from the bearer token
//
// Returns a new context carrying the session ID.
func (m *Manager) SetSessionIDToContext(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetSessionIDFromContext retrieves the session ID from the request context.
//
// Parameters:
//   - ctx: The request context
//
// Returns the session ID and a boolean indicating if a non-empty ID was found.
func (m *Manager) GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		return "", false
	}
	return sessionID, true
}
