package kvstore

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	if err := validateNames(namespace, key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(_ context.Context, namespace, key string, value []byte) error {
	if err := validateNames(namespace, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.entries[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.entries[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, namespace, key string) error {
	if err := validateNames(namespace, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ns, ok := s.entries[namespace]; ok {
		delete(ns, key)
		if len(ns) == 0 {
			delete(s.entries, namespace)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of namespaces holding at least one key
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
