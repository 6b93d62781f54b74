package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_SessionID(t *testing.T) {
	m := NewManager()

	_, ok := m.GetSessionIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := m.SetSessionIDToContext(context.Background(), "sess-1")
	got, ok := m.GetSessionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", got)

	ctx = m.SetSessionIDToContext(ctx, "")
	_, ok = m.GetSessionIDFromContext(ctx)
	assert.False(t, ok)
}
