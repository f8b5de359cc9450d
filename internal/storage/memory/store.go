// Package memory is an in-memory LedgerStore used by tests and the local
// simulation. It reproduces the transactional semantics of the SQL store:
// mutations buffer inside a session and apply on Commit, and a forUpdate read
// holds a per-account row lock until the session ends.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
)

type accountRow struct {
	row  sync.Mutex // simulated row lock for forUpdate reads
	acct models.Account
}

// MemoryLedgerStore holds accounts and ledger records in process memory.
// Safe for concurrent use.
type MemoryLedgerStore struct {
	mu       sync.Mutex // protects accounts, records, nextID, closed
	accounts map[int64]*accountRow
	records  []models.LedgerTransaction
	nextID   int64
	closed   bool
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{accounts: make(map[int64]*accountRow)}
}

func (m *MemoryLedgerStore) Begin(ctx context.Context) (interfaces.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, interfaces.ErrStoreClosed
	}
	return &session{store: m}, nil
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, owner string, initial decimal.Decimal) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return models.Account{}, interfaces.ErrStoreClosed
	}

	m.nextID++
	acct := models.Account{ID: m.nextID, OwnerName: owner, Balance: initial}
	m.accounts[acct.ID] = &accountRow{acct: acct}
	return acct, nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.accounts[id]
	if !ok {
		return models.Account{}, interfaces.ErrAccountMissing
	}
	return r.acct, nil
}

func (m *MemoryLedgerStore) TransactionsByAccount(ctx context.Context, id int64) ([]models.LedgerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.LedgerTransaction
	for _, rec := range m.records {
		if rec.AccountID == id {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *MemoryLedgerStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// session buffers mutations until Commit. Row locks taken by forUpdate reads
// are released when the session ends, in reverse acquisition order.
type session struct {
	store   *MemoryLedgerStore
	locked  []*accountRow
	deltas  map[int64]decimal.Decimal
	pending []models.LedgerTransaction
	done    bool
}

func (s *session) GetAccount(ctx context.Context, id int64, forUpdate bool) (models.Account, error) {
	s.store.mu.Lock()
	r, ok := s.store.accounts[id]
	s.store.mu.Unlock()
	if !ok {
		return models.Account{}, interfaces.ErrAccountMissing
	}

	if forUpdate && !s.holds(r) {
		// Block outside the store mutex; another session may hold this row
		// until its own commit or rollback.
		r.row.Lock()
		s.locked = append(s.locked, r)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return r.acct, nil
}

func (s *session) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	s.store.mu.Lock()
	_, ok := s.store.accounts[id]
	s.store.mu.Unlock()
	if !ok {
		return interfaces.ErrAccountMissing
	}

	if s.deltas == nil {
		s.deltas = make(map[int64]decimal.Decimal)
	}
	s.deltas[id] = s.deltas[id].Add(delta)
	return nil
}

func (s *session) AppendTransaction(ctx context.Context, tx models.LedgerTransaction) (models.LedgerTransaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}
	s.pending = append(s.pending, tx)
	return tx, nil
}

func (s *session) Commit() error {
	if s.done {
		return nil
	}

	s.store.mu.Lock()
	for id, delta := range s.deltas {
		if r, ok := s.store.accounts[id]; ok {
			r.acct.Balance = r.acct.Balance.Add(delta)
		}
	}
	s.store.records = append(s.store.records, s.pending...)
	s.store.mu.Unlock()

	s.finish()
	return nil
}

func (s *session) Rollback() error {
	if s.done {
		return nil
	}
	s.deltas = nil
	s.pending = nil
	s.finish()
	return nil
}

// Close releases row locks if the session was abandoned without Commit or
// Rollback. Safe to call repeatedly.
func (s *session) Close() error {
	return s.Rollback()
}

func (s *session) finish() {
	for i := len(s.locked) - 1; i >= 0; i-- {
		s.locked[i].row.Unlock()
	}
	s.locked = nil
	s.done = true
}

func (s *session) holds(r *accountRow) bool {
	for _, held := range s.locked {
		if held == r {
			return true
		}
	}
	return false
}

var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
