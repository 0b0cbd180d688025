// Package common provides shared test infrastructure
package common

import (
	"context"
	"strings"
	"sync"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
)

// MockHoldingStore is an in-memory HoldingStore. Setting one of the Err
// fields makes the matching operation fail with it.
type MockHoldingStore struct {
	mu      sync.Mutex
	records map[string]storedHolding
	order   []string

	FetchErr  error
	UpsertErr error
	RemoveErr error
	BatchErr  error

	// UpsertBlock, when set, holds UpsertOne open until it is closed.
	UpsertBlock chan struct{}

	FetchCalls  int
	UpsertCalls int
	RemoveCalls int
	BatchCalls  int
}

type storedHolding struct {
	owner   string
	holding models.Holding
}

var _ interfaces.HoldingStore = (*MockHoldingStore)(nil)

// NewMockHoldingStore creates an empty mock store
func NewMockHoldingStore() *MockHoldingStore {
	return &MockHoldingStore{records: make(map[string]storedHolding)}
}

// Seed stores holdings for an owner without counting a call.
func (m *MockHoldingStore) Seed(ownerID string, hs ...models.Holding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hs {
		m.put(ownerID, h)
	}
}

func (m *MockHoldingStore) put(ownerID string, h models.Holding) {
	if _, ok := m.records[h.ID]; !ok {
		m.order = append(m.order, h.ID)
	}
	m.records[h.ID] = storedHolding{owner: ownerID, holding: h}
}

// Records returns the stored holdings of an owner in write order.
func (m *MockHoldingStore) Records(ownerID string) []models.Holding {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Holding
	for _, id := range m.order {
		if r, ok := m.records[id]; ok && r.owner == ownerID {
			out = append(out, r.holding)
		}
	}
	return out
}

// FetchCount returns FetchCalls under the lock, for use while other
// goroutines may be fetching.
func (m *MockHoldingStore) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCalls
}

func (m *MockHoldingStore) FetchAll(ctx context.Context, ownerID string) ([]models.Holding, error) {
	m.mu.Lock()
	m.FetchCalls++
	err := m.FetchErr
	m.mu.Unlock()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStoreLoad, err)
	}
	return m.Records(ownerID), nil
}

// UpsertCount returns UpsertCalls under the lock.
func (m *MockHoldingStore) UpsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UpsertCalls
}

func (m *MockHoldingStore) UpsertOne(ctx context.Context, ownerID string, h models.Holding) error {
	m.mu.Lock()
	m.UpsertCalls++
	block := m.UpsertBlock
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return apperr.Wrap(apperr.ErrStoreSave, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return apperr.Wrap(apperr.ErrStoreSave, m.UpsertErr)
	}
	m.put(ownerID, h)
	return nil
}

func (m *MockHoldingStore) RemoveOne(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls++
	if m.RemoveErr != nil {
		return apperr.Wrap(apperr.ErrStoreDelete, m.RemoveErr)
	}
	if _, ok := m.records[id]; ok {
		delete(m.records, id)
		for i, oid := range m.order {
			if oid == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *MockHoldingStore) UpsertBatch(ctx context.Context, ownerID string, hs []models.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchCalls++
	if m.BatchErr != nil {
		return apperr.Wrap(apperr.ErrStoreBatch, m.BatchErr)
	}
	for _, h := range hs {
		m.put(ownerID, h)
	}
	return nil
}

// MockPositionFeed implements PositionFeed for testing. Block, when set,
// is waited on before returning so tests can hold an import open.
type MockPositionFeed struct {
	mu        sync.Mutex
	Positions []models.RawPosition
	Err       error
	Block     chan struct{}

	Calls          int
	LastCredential string
	LastSandbox    bool
}

var _ interfaces.PositionFeed = (*MockPositionFeed)(nil)

func (m *MockPositionFeed) FetchPositions(ctx context.Context, credential string, sandbox bool) ([]models.RawPosition, error) {
	m.mu.Lock()
	m.Calls++
	m.LastCredential = credential
	m.LastSandbox = sandbox
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, apperr.Wrap(apperr.ErrStoreUser, m.Err)
	}
	out := make([]models.RawPosition, len(m.Positions))
	copy(out, m.Positions)
	return out, nil
}

// CallCount returns the number of FetchPositions calls so far.
func (m *MockPositionFeed) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockGeminiClient implements GeminiClient for testing
type MockGeminiClient struct {
	Response   string
	Err        error
	Calls      int
	LastPrompt string
}

var _ interfaces.GeminiClient = (*MockGeminiClient)(nil)

func (m *MockGeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockUserStore is an in-memory UserStore. Err, when set, fails every
// call the way the SurrealDB store does, wrapped as ErrStoreUser.
type MockUserStore struct {
	mu    sync.Mutex
	users map[string]*models.UserAccount
	Err   error
}

var _ interfaces.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates an empty mock user store
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[string]*models.UserAccount)}
}

func (m *MockUserStore) GetUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, apperr.Wrap(apperr.ErrStoreUser, m.Err)
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, apperr.Wrap(apperr.ErrStoreUser, m.Err)
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *MockUserStore) SaveUser(ctx context.Context, account *models.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return apperr.Wrap(apperr.ErrStoreUser, m.Err)
	}
	cp := *account
	m.users[account.UserID] = &cp
	return nil
}

// MockStorageManager bundles the in-memory stores
type MockStorageManager struct {
	Holdings *MockHoldingStore
	Users    *MockUserStore
	Closed   bool
}

var _ interfaces.StorageManager = (*MockStorageManager)(nil)

// NewMockStorageManager creates a manager over empty mock stores
func NewMockStorageManager() *MockStorageManager {
	return &MockStorageManager{
		Holdings: NewMockHoldingStore(),
		Users:    NewMockUserStore(),
	}
}

func (m *MockStorageManager) HoldingStore() interfaces.HoldingStore { return m.Holdings }
func (m *MockStorageManager) UserStore() interfaces.UserStore       { return m.Users }

func (m *MockStorageManager) Close() error {
	m.Closed = true
	return nil
}
