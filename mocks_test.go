package accounts_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	accounts "github.com/OscarMF24/api-restful-codeigniter4"
)

// MockUsers implements accounts.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Register(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, tx, user)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, id int64, patch *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, id, patch)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, id int64, patch *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, tx, id, patch)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetActiveByID(ctx context.Context, id int64) (*accounts.User, error) {
	args := m.Called(ctx, id)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetActiveByIDTx(ctx context.Context, tx bun.IDB, id int64) (*accounts.User, error) {
	args := m.Called(ctx, tx, id)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetActiveByPhone(ctx context.Context, phone string) (*accounts.User, error) {
	args := m.Called(ctx, phone)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetActiveByPhoneTx(ctx context.Context, tx bun.IDB, phone string) (*accounts.User, error) {
	args := m.Called(ctx, tx, phone)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetAnyByID(ctx context.Context, id int64) (*accounts.User, error) {
	args := m.Called(ctx, id)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetAnyByIDTx(ctx context.Context, tx bun.IDB, id int64) (*accounts.User, error) {
	args := m.Called(ctx, tx, id)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) ListActive(ctx context.Context) ([]*accounts.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.User), args.Error(1)
}

func (m *MockUsers) ListActiveTx(ctx context.Context, tx bun.IDB) ([]*accounts.User, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.User), args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id int64, status accounts.UserStatus, opts ...accounts.StatusUpdateOption) (*accounts.User, error) {
	args := m.Called(ctx, id, status, opts)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateStatusTx(ctx context.Context, tx bun.IDB, id int64, status accounts.UserStatus, opts ...accounts.StatusUpdateOption) (*accounts.User, error) {
	args := m.Called(ctx, tx, id, status, opts)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) SoftDelete(ctx context.Context, actor accounts.ActorRef, id int64, opts ...accounts.TransitionOption) (*accounts.User, error) {
	args := m.Called(ctx, actor, id, opts)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Restore(ctx context.Context, actor accounts.ActorRef, id int64, opts ...accounts.TransitionOption) (*accounts.User, error) {
	args := m.Called(ctx, actor, id, opts)
	return userResult(args.Get(0)), args.Error(1)
}

func userResult(v any) *accounts.User {
	if v == nil {
		return nil
	}
	return v.(*accounts.User)
}

// MockLoginLogs implements accounts.LoginLogs
type MockLoginLogs struct {
	mock.Mock
}

func (m *MockLoginLogs) Record(ctx context.Context, userID int64, at time.Time) (*accounts.LoginLog, error) {
	args := m.Called(ctx, userID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.LoginLog), args.Error(1)
}

func (m *MockLoginLogs) RecordTx(ctx context.Context, tx bun.IDB, userID int64, at time.Time) (*accounts.LoginLog, error) {
	args := m.Called(ctx, tx, userID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.LoginLog), args.Error(1)
}

func (m *MockLoginLogs) LastLogin(ctx context.Context, userID int64) (*time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLoginLogs) LastLoginTx(ctx context.Context, tx bun.IDB, userID int64) (*time.Time, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLoginLogs) ListForUser(ctx context.Context, userID int64, limit int) ([]*accounts.LoginLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.LoginLog), args.Error(1)
}

// CapturingSink records every activity event it receives.
type CapturingSink struct {
	mu     sync.Mutex
	Events []accounts.ActivityEvent
	Err    error
}

func (s *CapturingSink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	return s.Err
}

func (s *CapturingSink) EventsOfType(eventType accounts.ActivityEventType) []accounts.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []accounts.ActivityEvent{}
	for _, e := range s.Events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// stubSubjectResolver resolves phones from an in memory map, standing in for
// the Users repository during token tests.
type stubSubjectResolver struct {
	users map[string]*accounts.User
	err   error
}

func (s *stubSubjectResolver) GetActiveByPhone(ctx context.Context, phone string) (*accounts.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[phone]; ok {
		return user, nil
	}
	return nil, accounts.ErrUserNotFound
}

// testConfig implements accounts.Config
type testConfig struct {
	signingKey string
	ttl        int
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }

func (c testConfig) GetTokenTTL() int {
	if c.ttl == 0 {
		return 3600
	}
	return c.ttl
}

func (c testConfig) GetContextKey() string  { return "user" }
func (c testConfig) GetTokenLookup() string { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string  { return "Bearer" }
