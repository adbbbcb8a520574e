package repo

import (
	"context"
	"sync"

	"ledger/internal/model"
)

// MemoryAccountStore implements AccountStore over a process-local map. Each
// account carries a channel-based lock held for the lifetime of a scope, so
// acquisition can honour context deadlines the way a row lock wait does.
// Scopes on disjoint account pairs proceed in parallel.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[int64]*memAccount
	txns     []model.Transaction
}

type memAccount struct {
	lock    chan struct{}
	balance int64
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[int64]*memAccount)}
}

func (s *MemoryAccountStore) CreateAccount(userID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = &memAccount{lock: make(chan struct{}, 1), balance: balance}
}

// Transactions returns the committed transaction records.
func (s *MemoryAccountStore) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// ListTransactions returns the transfers sent by the user, newest first.
func (s *MemoryAccountStore) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Transaction
	for i := len(s.txns) - 1; i >= 0; i-- {
		if s.txns[i].From == userID {
			out = append(out, s.txns[i])
		}
	}
	return out, nil
}

func (s *MemoryAccountStore) Get(ctx context.Context, userID int64) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return model.Account{UserID: userID, Balance: acct.balance}, nil
}

func (s *MemoryAccountStore) Begin(ctx context.Context, a, b int64) (TransferScope, error) {
	scope := &memScope{
		store:    s,
		snapshot: make(map[int64]model.Account, 2),
		deltas:   make(map[int64]int64, 2),
	}
	for _, id := range lockOrder(a, b) {
		s.mu.RLock()
		acct, ok := s.accounts[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		select {
		case acct.lock <- struct{}{}:
			scope.held = append(scope.held, acct)
			scope.snapshot[id] = model.Account{UserID: id, Balance: acct.balance}
		case <-ctx.Done():
			scope.release()
			return nil, storeErr(ctx.Err())
		}
	}
	return scope, nil
}

type memScope struct {
	store    *MemoryAccountStore
	held     []*memAccount
	snapshot map[int64]model.Account
	deltas   map[int64]int64
	txns     []model.Transaction
	done     bool
}

func (s *memScope) Account(userID int64) (model.Account, error) {
	acct, ok := s.snapshot[userID]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return acct, nil
}

func (s *memScope) Debit(userID, amount int64) error {
	return s.apply(userID, -amount)
}

func (s *memScope) Credit(userID, amount int64) error {
	return s.apply(userID, amount)
}

func (s *memScope) apply(userID, delta int64) error {
	if _, ok := s.snapshot[userID]; !ok {
		return model.ErrAccountNotFound
	}
	s.deltas[userID] += delta
	return nil
}

func (s *memScope) Record(txn model.Transaction) error {
	s.txns = append(s.txns, txn)
	return nil
}

func (s *memScope) Commit() error {
	if s.done {
		return nil
	}
	s.done = true

	s.store.mu.Lock()
	for id, delta := range s.deltas {
		s.store.accounts[id].balance += delta
	}
	s.store.txns = append(s.store.txns, s.txns...)
	s.store.mu.Unlock()

	s.release()
	return nil
}

func (s *memScope) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	s.release()
	return nil
}

func (s *memScope) release() {
	for _, acct := range s.held {
		<-acct.lock
	}
	s.held = nil
}
