package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/ports"
)

// MockTaskRepository records calls and delegates to optional funcs.
type MockTaskRepository struct {
	CreateFunc      func(ctx context.Context, task *entities.Task) error
	UpdateFunc      func(ctx context.Context, ownerID, id uuid.UUID, patch entities.TaskPatch) (*entities.Task, error)
	DeleteFunc      func(ctx context.Context, ownerID, id uuid.UUID) error
	BulkDeleteFunc  func(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error)
	ListByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) ([]entities.Task, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockTaskRepository) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *MockTaskRepository) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *entities.Task) error {
	m.record("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	return nil
}

func (m *MockTaskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, patch entities.TaskPatch) (*entities.Task, error) {
	m.record("Update")
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ownerID, id, patch)
	}
	return nil, entities.ErrTaskNotFound
}

// rowStore is a one-row table whose Update applies patches the way the
// SQL repository does.
type rowStore struct {
	mu  sync.Mutex
	row entities.Task
}

func (r *rowStore) update(_ context.Context, ownerID, id uuid.UUID, patch entities.TaskPatch) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ownerID != r.row.OwnerID || id != r.row.ID {
		return nil, entities.ErrTaskNotFound
	}
	patch.ApplyTo(&r.row)
	cp := r.row
	return &cp, nil
}

func (r *rowStore) edit(fn func(*entities.Task)) {
	r.mu.Lock()
	fn(&r.row)
	r.mu.Unlock()
}

func (r *rowStore) get() entities.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.row
}

func (m *MockTaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m.record("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, id)
	}
	return nil
}

func (m *MockTaskRepository) BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error) {
	m.record("BulkDelete")
	if m.BulkDeleteFunc != nil {
		return m.BulkDeleteFunc(ctx, ownerID, ids)
	}
	return len(ids), nil
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entities.Task, error) {
	m.record("ListByOwner")
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

var _ ports.TaskRepository = (*MockTaskRepository)(nil)

// MockPublisher counts change notices per owner.
type MockPublisher struct {
	Err error

	mu        sync.Mutex
	published []uuid.UUID
}

func (m *MockPublisher) PublishChange(_ context.Context, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, ownerID)
	return m.Err
}

func (m *MockPublisher) Published() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.published...)
}

var _ ports.ChangePublisher = (*MockPublisher)(nil)

// MockAudit keeps published audit events.
type MockAudit struct {
	mu     sync.Mutex
	events []ports.AuditEvent
}

func (m *MockAudit) Publish(_ context.Context, ev ports.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MockAudit) Close() error { return nil }

func (m *MockAudit) Events() []ports.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.AuditEvent(nil), m.events...)
}

var _ ports.AuditPublisher = (*MockAudit)(nil)

// FakeFeed lets tests push snapshots by hand.
type FakeFeed struct {
	SubscribeErr error
	Initial      []entities.Task

	mu       sync.Mutex
	handlers map[uuid.UUID]func([]entities.Task)
	opened   []uuid.UUID
	canceled []uuid.UUID
}

func NewFakeFeed() *FakeFeed {
	return &FakeFeed{handlers: make(map[uuid.UUID]func([]entities.Task))}
}

func (f *FakeFeed) Subscribe(_ context.Context, ownerID uuid.UUID, onSnapshot func([]entities.Task)) (func(), error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	f.mu.Lock()
	f.handlers[ownerID] = onSnapshot
	f.opened = append(f.opened, ownerID)
	f.mu.Unlock()

	onSnapshot(f.Initial)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.canceled = append(f.canceled, ownerID)
	}, nil
}

// Push delivers tasks to the handler registered for owner.
func (f *FakeFeed) Push(ownerID uuid.UUID, tasks []entities.Task) {
	f.mu.Lock()
	h := f.handlers[ownerID]
	f.mu.Unlock()
	if h != nil {
		h(tasks)
	}
}

func (f *FakeFeed) Opened() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.opened...)
}

func (f *FakeFeed) Canceled() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.canceled...)
}

var _ ports.TaskFeed = (*FakeFeed)(nil)

// MockUserRepository is an in-memory user store.
type MockUserRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*entities.User
	byEmail map[string]*entities.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		byID:    make(map[uuid.UUID]*entities.User),
		byEmail: make(map[string]*entities.User),
	}
}

func (m *MockUserRepository) Create(_ context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return entities.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byID[user.ID] = &stored
	m.byEmail[user.Email] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

// MockAuthRepository is an in-memory refresh token store.
type MockAuthRepository struct {
	mu     sync.Mutex
	tokens map[string]*ports.RefreshToken
}

func NewMockAuthRepository() *MockAuthRepository {
	return &MockAuthRepository{tokens: make(map[string]*ports.RefreshToken)}
}

func (m *MockAuthRepository) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = &ports.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (m *MockAuthRepository) GetRefreshToken(_ context.Context, tokenHash string) (*ports.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, entities.ErrInvalidToken
	}
	cp := *t
	return &cp, nil
}

func (m *MockAuthRepository) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (m *MockAuthRepository) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *MockAuthRepository) CleanupExpiredTokens(context.Context) (int64, error) {
	return 0, nil
}

var _ ports.AuthRepository = (*MockAuthRepository)(nil)
