package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// Store is an in-memory database shared by the repository fakes. Row locks
// taken through the *ForUpdate methods are held until the owning MockTx
// commits or rolls back, and writes made through a MockTx are undone on
// rollback, so use cases see the same serialization they get from Postgres.
type Store struct {
	mu sync.Mutex

	wallets    map[string]*domain.Wallet
	owners     map[string]string
	txs        map[string]*domain.Transaction
	keys       map[domain.SourceKey]string
	reversals  map[string]string
	payments   map[string]*domain.Payment
	projects   map[string]*domain.Project
	milestones map[string]*domain.Milestone
	events     []*domain.OutboxEvent
	audits     []*domain.AuditLog

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		wallets:    make(map[string]*domain.Wallet),
		owners:     make(map[string]string),
		txs:        make(map[string]*domain.Transaction),
		keys:       make(map[domain.SourceKey]string),
		reversals:  make(map[string]string),
		payments:   make(map[string]*domain.Payment),
		projects:   make(map[string]*domain.Project),
		milestones: make(map[string]*domain.Milestone),
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *Store) rowLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Events returns a snapshot of the outbox.
func (s *Store) Events() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), s.events...)
}

// AuditLogs returns a snapshot of the audit trail.
func (s *Store) AuditLogs() []*domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AuditLog(nil), s.audits...)
}

// TransactionCount returns the number of stored ledger transactions.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

// CorruptBalance overwrites a wallet's materialized balance, bypassing the
// ledger. Tests use it to provoke integrity violations.
func (s *Store) CorruptBalance(walletID string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[walletID]; ok {
		w.Balance = balance
	}
}

// PutTransaction stores t as is, bypassing the ledger.
func (s *Store) PutTransaction(t *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyTransaction(t)
	s.txs[c.ID] = c
	s.keys[c.Key()] = c.ID
}

// PutWallet stores w as is, bypassing the ledger.
func (s *Store) PutWallet(w *domain.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.wallets[c.ID] = &c
	s.owners[c.OwnerID] = c.ID
}

// PutPayment stores p as is.
func (s *Store) PutPayment(p *domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyPayment(p)
	s.payments[c.ExternalRef] = c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.ReversalOf != nil {
		id := *t.ReversalOf
		c.ReversalOf = &id
	}
	c.ReversedBy = nil
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyPayment(p *domain.Payment) *domain.Payment {
	c := *p
	if p.PaidAt != nil {
		at := *p.PaidAt
		c.PaidAt = &at
	}
	return &c
}

// readTransaction returns a copy with the derived ReversedBy filled in.
// Callers hold s.mu.
func (s *Store) readTransaction(id string) *domain.Transaction {
	t, ok := s.txs[id]
	if !ok {
		return nil
	}
	c := copyTransaction(t)
	if by, ok := s.reversals[id]; ok {
		c.ReversedBy = &by
	}
	return c
}

// MockTx is a transaction of the in-memory Store.
type MockTx struct {
	store *Store
	held  []*sync.Mutex
	undo  []func()
	done  bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTx) lock(key string) {
	l := m.store.rowLock(key)
	for _, h := range m.held {
		if h == l {
			return
		}
	}
	l.Lock()
	m.held = append(m.held, l)
}

func (m *MockTx) onRollback(fn func()) {
	m.undo = append(m.undo, fn)
}

func (m *MockTx) release() {
	for i := len(m.held) - 1; i >= 0; i-- {
		m.held[i].Unlock()
	}
	m.held = nil
	m.done = true
}

func (m *MockTx) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	if m.done {
		return nil
	}
	m.undo = nil
	m.release()
	return nil
}

func (m *MockTx) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if m.done {
		return nil
	}
	m.store.mu.Lock()
	for i := len(m.undo) - 1; i >= 0; i-- {
		m.undo[i]()
	}
	m.store.mu.Unlock()
	m.undo = nil
	m.release()
	return nil
}

func asTx(tx usecase.Transaction) *MockTx {
	if m, ok := tx.(*MockTx); ok {
		return m
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	store *Store

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager(store *Store) *MockTransactionManager {
	return &MockTransactionManager{store: store}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTx{store: m.store}, nil
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	store *Store

	GetByIDFunc       func(ctx context.Context, id string) (*domain.Wallet, error)
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, balance, totalEarned int64, updatedAt time.Time) error
}

func NewMockWalletRepository(store *Store) *MockWalletRepository {
	return &MockWalletRepository{store: store}
}

func (m *MockWalletRepository) GetOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) (*domain.Wallet, bool, error) {
	mtx := asTx(tx)
	mtx.lock("owner:" + wallet.OwnerID)

	s := m.store
	s.mu.Lock()
	created := false
	id, ok := s.owners[wallet.OwnerID]
	if !ok {
		c := *wallet
		s.wallets[c.ID] = &c
		s.owners[c.OwnerID] = c.ID
		id = c.ID
		created = true
		mtx.onRollback(func() {
			delete(s.wallets, c.ID)
			delete(s.owners, c.OwnerID)
		})
	}
	s.mu.Unlock()

	mtx.lock("wallet:" + id)

	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.wallets[id]
	return &c, created, nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	w, ok := m.store.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	c := *w
	return &c, nil
}

func (m *MockWalletRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	m.store.mu.Lock()
	id, ok := m.store.owners[ownerID]
	m.store.mu.Unlock()
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	m.store.mu.Lock()
	_, ok := m.store.wallets[id]
	m.store.mu.Unlock()
	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	asTx(tx).lock("wallet:" + id)
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance, totalEarned int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, totalEarned, updatedAt)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return domain.ErrWalletNotFound
	}
	prev := *w
	w.Balance = balance
	w.TotalEarned = totalEarned
	w.UpdatedAt = updatedAt
	asTx(tx).onRollback(func() { *s.wallets[id] = prev })
	return nil
}

func (m *MockWalletRepository) SetIntegrityHold(ctx context.Context, tx usecase.Transaction, id string, at *time.Time) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return domain.ErrWalletNotFound
	}
	prev := w.IntegrityHoldAt
	w.IntegrityHoldAt = at
	asTx(tx).onRollback(func() { s.wallets[id].IntegrityHoldAt = prev })
	return nil
}

func (m *MockWalletRepository) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var ids []string
	for id := range m.store.wallets {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	store *Store

	InsertIfAbsentFunc func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) (bool, error)
	ListPageFunc       func(ctx context.Context, walletID string, filter domain.TransactionFilter, after *domain.TransactionCursor, limit int) ([]*domain.Transaction, error)
	TotalsFunc         func(ctx context.Context, walletID string, completedIn *domain.Window) ([]domain.TransactionTotal, error)
}

func NewMockTransactionRepository(store *Store) *MockTransactionRepository {
	return &MockTransactionRepository{store: store}
}

func (m *MockTransactionRepository) InsertIfAbsent(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) (bool, error) {
	if m.InsertIfAbsentFunc != nil {
		return m.InsertIfAbsentFunc(ctx, tx, t)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.Key()
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	if t.ReversalOf != nil {
		if _, exists := s.reversals[*t.ReversalOf]; exists {
			return false, nil
		}
	}

	c := copyTransaction(t)
	s.txs[c.ID] = c
	s.keys[key] = c.ID
	if c.ReversalOf != nil {
		s.reversals[*c.ReversalOf] = c.ID
	}

	asTx(tx).onRollback(func() {
		delete(s.txs, c.ID)
		delete(s.keys, key)
		if c.ReversalOf != nil {
			delete(s.reversals, *c.ReversalOf)
		}
	})
	return true, nil
}

func (m *MockTransactionRepository) GetByKey(ctx context.Context, tx usecase.Transaction, key domain.SourceKey) (*domain.Transaction, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keys[key]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return s.readTransaction(id), nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.readTransaction(id)
	if t == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return t, nil
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if _, err := m.GetByID(ctx, id); err != nil {
		return nil, err
	}
	asTx(tx).lock("transaction:" + id)
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.TransactionStatus, completedAt *time.Time) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.Status != from {
		return false, nil
	}
	prevStatus, prevCompleted := t.Status, t.CompletedAt
	t.Status = to
	if completedAt != nil {
		at := *completedAt
		t.CompletedAt = &at
	}
	asTx(tx).onRollback(func() {
		s.txs[id].Status = prevStatus
		s.txs[id].CompletedAt = prevCompleted
	})
	return true, nil
}

func (m *MockTransactionRepository) walletHistory(walletID string) []*domain.Transaction {
	var out []*domain.Transaction
	for id, t := range m.store.txs {
		if t.WalletID == walletID {
			out = append(out, m.store.readTransaction(id))
		}
	}
	return out
}

func (m *MockTransactionRepository) ListPage(ctx context.Context, walletID string, filter domain.TransactionFilter, after *domain.TransactionCursor, limit int) ([]*domain.Transaction, error) {
	if m.ListPageFunc != nil {
		return m.ListPageFunc(ctx, walletID, filter, after, limit)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	history := m.walletHistory(walletID)
	sort.Slice(history, func(i, j int) bool {
		if !history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].CreatedAt.After(history[j].CreatedAt)
		}
		return history[i].ID > history[j].ID
	})

	var page []*domain.Transaction
	for _, t := range history {
		if after != nil {
			if t.CreatedAt.After(after.CreatedAt) {
				continue
			}
			if t.CreatedAt.Equal(after.CreatedAt) && t.ID >= after.ID {
				continue
			}
		}
		if !filter.Matches(t) {
			continue
		}
		page = append(page, t)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (m *MockTransactionRepository) Fold(ctx context.Context, tx usecase.Transaction, walletID string) (domain.Delta, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return domain.Fold(m.walletHistory(walletID)), nil
}

type totalKey struct {
	month    time.Time
	typ      domain.TransactionType
	category domain.TransactionCategory
	status   domain.TransactionStatus
	currency string
}

func (m *MockTransactionRepository) group(walletID string, include func(*domain.Transaction) bool, byMonth bool) []domain.MonthlyTotal {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	sums := make(map[totalKey]*domain.MonthlyTotal)
	var order []totalKey
	for _, t := range m.walletHistory(walletID) {
		if !include(t) {
			continue
		}
		k := totalKey{typ: t.Type, category: t.Category, status: t.Status, currency: t.Currency}
		if byMonth {
			k.month = domain.MonthWindow(*t.CompletedAt).Start
		}
		g, ok := sums[k]
		if !ok {
			g = &domain.MonthlyTotal{Month: k.month, TransactionTotal: domain.TransactionTotal{
				Type: k.typ, Category: k.category, Status: k.status, Currency: k.currency,
			}}
			sums[k] = g
			order = append(order, k)
		}
		g.Amount += t.Amount
		g.Count++
	}

	out := make([]domain.MonthlyTotal, 0, len(order))
	for _, k := range order {
		out = append(out, *sums[k])
	}
	return out
}

func (m *MockTransactionRepository) Totals(ctx context.Context, walletID string, completedIn *domain.Window) ([]domain.TransactionTotal, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, walletID, completedIn)
	}
	include := func(t *domain.Transaction) bool {
		if completedIn == nil {
			return true
		}
		return t.Status == domain.TransactionStatusCompleted && t.CompletedAt != nil && completedIn.Contains(*t.CompletedAt)
	}

	grouped := m.group(walletID, include, false)
	out := make([]domain.TransactionTotal, 0, len(grouped))
	for _, g := range grouped {
		out = append(out, g.TransactionTotal)
	}
	return out, nil
}

func (m *MockTransactionRepository) MonthlyTotals(ctx context.Context, walletID string, span domain.Window) ([]domain.MonthlyTotal, error) {
	include := func(t *domain.Transaction) bool {
		return t.Status == domain.TransactionStatusCompleted && t.CompletedAt != nil && span.Contains(*t.CompletedAt)
	}
	return m.group(walletID, include, true), nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	store *Store

	ListByClientFunc func(ctx context.Context, clientID string) ([]*domain.Payment, error)
}

func NewMockPaymentRepository(store *Store) *MockPaymentRepository {
	return &MockPaymentRepository{store: store}
}

func (m *MockPaymentRepository) InsertIfAbsent(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.ExternalRef]; exists {
		return false, nil
	}
	s.payments[payment.ExternalRef] = copyPayment(payment)
	ref := payment.ExternalRef
	asTx(tx).onRollback(func() { delete(s.payments, ref) })
	return true, nil
}

func (m *MockPaymentRepository) GetByExternalRef(ctx context.Context, externalRef string) (*domain.Payment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.payments[externalRef]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return copyPayment(p), nil
}

func (m *MockPaymentRepository) GetByExternalRefForUpdate(ctx context.Context, tx usecase.Transaction, externalRef string) (*domain.Payment, error) {
	if _, err := m.GetByExternalRef(ctx, externalRef); err != nil {
		return nil, err
	}
	asTx(tx).lock("payment:" + externalRef)
	return m.GetByExternalRef(ctx, externalRef)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.PaymentStatus, paidAt *time.Time, updatedAt time.Time) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ID != id {
			continue
		}
		if p.Status != from {
			return false, nil
		}
		prev := *p
		p.Status = to
		p.PaidAt = paidAt
		p.UpdatedAt = updatedAt
		asTx(tx).onRollback(func() { *p = prev })
		return true, nil
	}
	return false, nil
}

// live resolves project and milestone references the way the SQL join does.
// Callers hold s.mu.
func (m *MockPaymentRepository) live(p *domain.Payment) *domain.Payment {
	c := copyPayment(p)
	if c.ProjectID != nil {
		if proj, ok := m.store.projects[*c.ProjectID]; !ok || proj.DeletedAt != nil {
			c.ProjectID = nil
			c.MilestoneID = nil
		}
	}
	if c.ProjectID != nil && c.MilestoneID != nil {
		if ms, ok := m.store.milestones[*c.ProjectID+"/"+*c.MilestoneID]; !ok || ms.DeletedAt != nil {
			c.MilestoneID = nil
		}
	}
	return c
}

func (m *MockPaymentRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Payment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Payment
	for _, p := range m.store.payments {
		if p.ProjectID != nil && *p.ProjectID == projectID {
			out = append(out, m.live(p))
		}
	}
	sortPayments(out)
	return out, nil
}

func (m *MockPaymentRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.Payment, error) {
	if m.ListByClientFunc != nil {
		return m.ListByClientFunc(ctx, clientID)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Payment
	for _, p := range m.store.payments {
		if p.ClientID == clientID {
			out = append(out, m.live(p))
		}
	}
	sortPayments(out)
	return out, nil
}

func sortPayments(ps []*domain.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

// MockProjectRepository is a mock implementation of ProjectRepository.
type MockProjectRepository struct {
	store *Store
}

func NewMockProjectRepository(store *Store) *MockProjectRepository {
	return &MockProjectRepository{store: store}
}

func (m *MockProjectRepository) Upsert(ctx context.Context, project *domain.Project) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := *project
	c.DeletedAt = nil
	m.store.projects[c.ID] = &c
	return nil
}

func (m *MockProjectRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.projects[id]
	if !ok || p.DeletedAt != nil {
		return domain.ErrProjectNotFound
	}
	p.DeletedAt = &at
	return nil
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.projects[id]
	if !ok || p.DeletedAt != nil {
		return nil, domain.ErrProjectNotFound
	}
	c := *p
	return &c, nil
}

func (m *MockProjectRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Project
	for _, p := range m.store.projects {
		if p.ClientID == clientID && p.DeletedAt == nil {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockProjectRepository) UpsertMilestone(ctx context.Context, milestone *domain.Milestone) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := *milestone
	c.DeletedAt = nil
	m.store.milestones[c.ProjectID+"/"+c.ID] = &c
	return nil
}

func (m *MockProjectRepository) SoftDeleteMilestone(ctx context.Context, projectID, id string, at time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	ms, ok := m.store.milestones[projectID+"/"+id]
	if !ok || ms.DeletedAt != nil {
		return domain.ErrMilestoneNotFound
	}
	ms.DeletedAt = &at
	return nil
}

func (m *MockProjectRepository) GetMilestone(ctx context.Context, projectID, id string) (*domain.Milestone, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	ms, ok := m.store.milestones[projectID+"/"+id]
	if !ok || ms.DeletedAt != nil {
		return nil, domain.ErrMilestoneNotFound
	}
	c := *ms
	return &c, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository(store *Store) *MockOutboxRepository {
	return &MockOutboxRepository{store: store}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	n := len(s.events)
	asTx(tx).onRollback(func() { s.events = s.events[:n-1] })
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.store.events {
		if !e.Published {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, e := range m.store.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.store.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	kept := m.store.events[:0]
	for _, e := range m.store.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.store.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	store *Store
}

func NewMockAuditRepository(store *Store) *MockAuditRepository {
	return &MockAuditRepository{store: store}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, log)
	n := len(s.audits)
	asTx(tx).onRollback(func() { s.audits = s.audits[:n-1] })
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range m.store.audits {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	return m.List(ctx, domain.AuditFilter{ResourceType: resourceType, ResourceID: resourceID})
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%06d", m.counter)
}

// MockSourceRefCache is a mock implementation of SourceRefCache.
type MockSourceRefCache struct {
	mu   sync.RWMutex
	data map[string]string

	LookupFunc func(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef string) (string, bool, error)
}

func NewMockSourceRefCache() *MockSourceRefCache {
	return &MockSourceRefCache{data: make(map[string]string)}
}

func (m *MockSourceRefCache) Lookup(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef string) (string, bool, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ownerID, category, sourceRef)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.data[ownerID+":"+string(category)+":"+sourceRef]
	return id, ok, nil
}

func (m *MockSourceRefCache) Remember(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef, transactionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[ownerID+":"+string(category)+":"+sourceRef] = transactionID
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
