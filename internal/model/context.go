package model

import "context"

type ContextManager interface {
	SetSessionIDToContext(ctx context.Context, sessionID string) context.Context
	GetSessionIDFromContext(ctx context.Context) (string, bool)
}
