package provision

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	tokens   map[string]Token
	accounts map[string]CustodialAccount
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:   make(map[string]Token),
		accounts: make(map[string]CustodialAccount),
		now:      time.Now,
	}
}

func (s *MemoryStore) UpsertToken(_ context.Context, symbol, name string, decimals int) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[symbol]
	if !ok {
		t = Token{ID: uuid.New(), Symbol: symbol, CreatedAt: s.now().UTC()}
	}
	t.Name = name
	t.Decimals = decimals
	s.tokens[symbol] = t
	return t, nil
}

func (s *MemoryStore) ListTokens(_ context.Context) ([]Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *MemoryStore) UpsertCustodialAccount(_ context.Context, name string) (CustodialAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[name]; ok {
		return a, nil
	}
	a := CustodialAccount{ID: uuid.New(), Name: name, CreatedAt: s.now().UTC()}
	s.accounts[name] = a
	return a, nil
}

func (s *MemoryStore) ListCustodialAccounts(_ context.Context) ([]CustodialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CustodialAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetCustodialAccount(_ context.Context, id uuid.UUID) (CustodialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return CustodialAccount{}, ErrNotFound
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
