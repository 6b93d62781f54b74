package completion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Cycles(t *testing.T) {
	s := NewStatic("one", "two")
	ctx := context.Background()

	var got []string
	for range 3 {
		reply, err := s.Complete(ctx, "ignored")
		require.NoError(t, err)
		got = append(got, reply)
	}

	assert.Equal(t, []string{"one", "two", "one"}, got)
}

func TestStatic_Defaults(t *testing.T) {
	reply, err := NewStatic().Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, defaultReplies[0], reply)
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic().Complete(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}
