// Package memory is a process-local attachment store used when no object
// storage is configured.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/model"
)

var _ model.Storage = (*Storage)(nil)

type Storage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func New() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

func (s *Storage) Upload(_ context.Context, key string, reader io.Reader, size int64, _ string) error {
	if size >= 0 {
		reader = io.LimitReader(reader, size)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("attachment %s: %w", key, model.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}
