// Package memory holds the single-process OAuth state store used when no
// Redis address is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
)

const defaultSweepInterval = time.Minute

type entry struct {
	data      ports.OAuthState
	expiresAt time.Time
}

type StateStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore starts a janitor that sweeps expired states every interval.
// Call Close to stop it.
func NewStateStore(interval time.Duration) *StateStore {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	s := &StateStore{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.janitor(interval)
	return s
}

func (s *StateStore) Save(_ context.Context, state string, data ports.OAuthState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state] = entry{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *StateStore) Consume(_ context.Context, state string) (ports.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return ports.OAuthState{}, domain.ErrStateNotFound
	}
	delete(s.entries, state)
	if !s.now().Before(e.expiresAt) {
		return ports.OAuthState{}, domain.ErrStateNotFound
	}
	return e.data, nil
}

func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *StateStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *StateStore) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (s *StateStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}
