// Package authority implements the external authority gateway that decides
// which principals may mint. Backends: a static allowlist, a Redis set, and
// a Postgres table, plus a circuit-breaking wrapper that falls back to the
// static list while a remote backend is failing.
package authority

import (
	"context"
	"sync"

	"batchledger/internal/registry/models"
)

// Static is an in-process allowlist.
type Static struct {
	mu         sync.RWMutex
	principals map[models.Principal]struct{}
}

func NewStatic(principals ...string) *Static {
	s := &Static{principals: make(map[models.Principal]struct{}, len(principals))}
	for _, p := range principals {
		s.principals[models.Principal(p)] = struct{}{}
	}
	return s
}

func (s *Static) IsAuthorized(_ context.Context, caller models.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.principals[caller]
	return ok, nil
}

func (s *Static) Grant(caller models.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[caller] = struct{}{}
}

func (s *Static) Revoke(caller models.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.principals, caller)
}
