package completion

import (
	"context"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/model"
)

var defaultReplies = []string{
	"Sounds good!",
	"Haha, really?",
	"Tell me more.",
	"I'll get back to you on that.",
}

// Static cycles through canned replies. It stands in for Gemini when no API
// key is configured.
type Static struct {
	mu      sync.Mutex
	replies []string
	next    int
}

var _ model.Completer = (*Static)(nil)

// NewStatic returns a Static completer. With no replies it uses a built-in set.
func NewStatic(replies ...string) *Static {
	if len(replies) == 0 {
		replies = defaultReplies
	}
	return &Static{replies: replies}
}

func (s *Static) Complete(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.replies[s.next%len(s.replies)]
	s.next++
	return reply, nil
}
