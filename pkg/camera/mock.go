package camera

import "sync"

// MockDevice is a configurable fake Device for tests.
// Set the function fields to control behavior; calls are recorded.
type MockDevice struct {
	ReadFrameFunc func() ([]byte, error)
	CloseFunc     func() error

	mu         sync.Mutex
	readCalls  int
	closeCalls int
}

var _ Device = (*MockDevice)(nil)

// ReadFrame calls ReadFrameFunc, or returns a synthetic frame when unset.
func (m *MockDevice) ReadFrame() ([]byte, error) {
	m.mu.Lock()
	m.readCalls++
	m.mu.Unlock()

	if m.ReadFrameFunc != nil {
		return m.ReadFrameFunc()
	}
	return TestFrame(320, 240), nil
}

// Close calls CloseFunc if set.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// ReadCalls returns how many times ReadFrame was called.
func (m *MockDevice) ReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls
}

// CloseCalls returns how many times Close was called.
func (m *MockDevice) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// Reset clears recorded calls.
func (m *MockDevice) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls = 0
	m.closeCalls = 0
}
