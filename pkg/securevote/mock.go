package securevote

import (
	"context"
	"sync"
	"time"
)

// Mock is a fake backend for testing.
type Mock struct {
	// RegisterFaceFunc is called when RegisterFace is invoked.
	RegisterFaceFunc func(ctx context.Context, image string) (*Result, error)

	// VoteVerifyFunc is called when VoteVerify is invoked.
	VoteVerifyFunc func(ctx context.Context, image string) (*Result, error)

	// LoginVerifyFunc is called when LoginVerify is invoked.
	LoginVerifyFunc func(ctx context.Context, image string) (*Result, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Image  string
	Time   time.Time
}

// NewMock creates a mock backend that accepts every submission with the
// backend's stock success messages.
func NewMock() *Mock {
	return &Mock{
		RegisterFaceFunc: func(ctx context.Context, image string) (*Result, error) {
			return &Result{OK: true, Message: "Registration successful!"}, nil
		},
		VoteVerifyFunc: func(ctx context.Context, image string) (*Result, error) {
			return &Result{OK: true, Message: "Face verified. You can submit vote now."}, nil
		},
		LoginVerifyFunc: func(ctx context.Context, image string) (*Result, error) {
			return &Result{OK: true, Message: "Login successful!"}, nil
		},
	}
}

// WithError returns a mock whose every submit fails with err.
func WithError(err error) *Mock {
	fail := func(ctx context.Context, image string) (*Result, error) {
		return nil, err
	}
	return &Mock{
		RegisterFaceFunc: fail,
		VoteVerifyFunc:   fail,
		LoginVerifyFunc:  fail,
	}
}

// WithRejection returns a mock whose every submit is rejected with the given
// reason. An empty reason leaves the error text unset.
func WithRejection(reason string) *Mock {
	reject := func(ctx context.Context, image string) (*Result, error) {
		return &Result{OK: false, Error: reason}, nil
	}
	return &Mock{
		RegisterFaceFunc: reject,
		VoteVerifyFunc:   reject,
		LoginVerifyFunc:  reject,
	}
}

// RegisterFace calls RegisterFaceFunc and records the call.
func (m *Mock) RegisterFace(ctx context.Context, image string) (*Result, error) {
	m.record("RegisterFace", image)
	if m.RegisterFaceFunc != nil {
		return m.RegisterFaceFunc(ctx, image)
	}
	return &Result{OK: true}, nil
}

// VoteVerify calls VoteVerifyFunc and records the call.
func (m *Mock) VoteVerify(ctx context.Context, image string) (*Result, error) {
	m.record("VoteVerify", image)
	if m.VoteVerifyFunc != nil {
		return m.VoteVerifyFunc(ctx, image)
	}
	return &Result{OK: true}, nil
}

// LoginVerify calls LoginVerifyFunc and records the call.
func (m *Mock) LoginVerify(ctx context.Context, image string) (*Result, error) {
	m.record("LoginVerify", image)
	if m.LoginVerifyFunc != nil {
		return m.LoginVerifyFunc(ctx, image)
	}
	return &Result{OK: true}, nil
}

// record adds a call to the tracking list.
func (m *Mock) record(method, image string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Image:  image,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
