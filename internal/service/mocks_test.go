package service

import (
	"context"
	"sync"
	"time"

	"campusevents/internal/model"

	"github.com/stretchr/testify/mock"
)

// --- Mocks for service dependencies ---

type MockUserStore struct{ mock.Mock }

func (m *MockUserStore) Create(ctx context.Context, email, passwordHash, role string) (*model.User, error) {
	args := m.Called(ctx, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockEventStore struct{ mock.Mock }

func (m *MockEventStore) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventStore) List(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

type MockBookingStore struct{ mock.Mock }

func (m *MockBookingStore) Book(ctx context.Context, eventID, userID string) (*model.Booking, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

type MockRefreshStore struct{ mock.Mock }

func (m *MockRefreshStore) Save(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	args := m.Called(ctx, userID, tokenHash, ttl)
	return args.Error(0)
}

func (m *MockRefreshStore) Validate(ctx context.Context, userID, tokenHash string) error {
	args := m.Called(ctx, userID, tokenHash)
	return args.Error(0)
}

func (m *MockRefreshStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// recordedAction captures a single audit emission.
type recordedAction struct {
	Action string
	UserID string
	Meta   map[string]any
}

// captureRecorder collects audit records for assertions.
type captureRecorder struct {
	records []recordedAction
}

func (r *captureRecorder) Record(_ context.Context, action, userID string, meta map[string]any) {
	r.records = append(r.records, recordedAction{Action: action, UserID: userID, Meta: meta})
}

// captureNotifier collects post-commit notifications. Notifications
// are fired on a separate goroutine, so reads go through the mutex and
// tests wait on the done channel.
type captureNotifier struct {
	mu    sync.Mutex
	calls int
	email string
	done  chan struct{}
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{done: make(chan struct{}, 8)}
}

func (n *captureNotifier) BookingConfirmed(_ context.Context, email string, _ *model.Event, _ *model.Booking) {
	n.mu.Lock()
	n.calls++
	n.email = email
	n.mu.Unlock()
	n.done <- struct{}{}
}

// wait blocks until one notification arrived or the timeout passed.
func (n *captureNotifier) wait(timeout time.Duration) bool {
	select {
	case <-n.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (n *captureNotifier) snapshot() (int, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, n.email
}
