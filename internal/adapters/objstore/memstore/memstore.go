// Package memstore is an in memory objstore.Store for tests and dry runs
package memstore

import (
	"context"
	"slices"
	"sync"

	"nhldata/internal/adapters/objstore"
)

// Fault lets tests fail a put; attempt counts from 1 per key
type Fault func(key string, attempt int) error

// Store keeps objects in a map guarded by a mutex
type Store struct {
	mu       sync.Mutex
	objects  map[string][]byte
	attempts map[string]int
	fault    Fault
}

// New returns an empty store
func New() *Store {
	return &Store{objects: map[string][]byte{}, attempts: map[string]int{}}
}

// WithFault installs f and returns s
func (s *Store) WithFault(f Fault) *Store {
	s.mu.Lock()
	s.fault = f
	s.mu.Unlock()
	return s
}

// Put stores a copy of body
func (s *Store) Put(ctx context.Context, key string, body []byte, o objstore.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return &objstore.Error{Kind: objstore.Unknown, Key: key, Op: "put", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[key]++
	if s.fault != nil {
		if err := s.fault(key, s.attempts[key]); err != nil {
			return err
		}
	}
	if _, exists := s.objects[key]; exists && o.IfAbsent {
		return &objstore.Error{Kind: objstore.Conflict, Key: key, Op: "put"}
	}
	s.objects[key] = slices.Clone(body)
	return nil
}

// Probe always succeeds
func (s *Store) Probe(context.Context) error { return nil }

// Get returns a copy of the object at key
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return slices.Clone(b), ok
}

// Keys returns every stored key sorted
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Attempts returns how many puts targeted key, including failed ones
func (s *Store) Attempts(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[key]
}
