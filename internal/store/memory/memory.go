package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"galaxyinn/backend/internal/store"
)

// Store keeps every collection as an encoded JSON document. Reads decode a fresh
// value each time, so callers never share memory with the stored state.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: map[string][]byte{}}
}

func (s *Store) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.SetMany(ctx, []store.Entry{{Key: key, Value: value}})
}

// SetMany encodes every entry before touching the map, so an encoding failure
// leaves the previous documents in place.
func (s *Store) SetMany(_ context.Context, entries []store.Entry) error {
	encoded := make(map[string][]byte, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Key, err)
		}
		encoded[e.Key] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range encoded {
		s.docs[k] = v
	}
	return nil
}

// Delete removes a key. Tests use it to simulate a document that was never written.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.docs, key)
	s.mu.Unlock()
}

func (s *Store) Close() error {
	return nil
}
