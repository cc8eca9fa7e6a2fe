package graph

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

// MockEngine is a test implementation of the Engine interface.
// It allows tests to control the detection results.
type MockEngine struct {
	mu      sync.Mutex
	hands   []landmark.Hand
	err     error
	detects int
	closed  bool
}

// NewMockEngine creates a new MockEngine instance.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockEngine) SetHands(hands []landmark.Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockEngine) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockEngine) Detect(frame *gocv.Mat) ([]landmark.Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detects++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Detects returns how many frames have been submitted.
func (m *MockEngine) Detects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detects
}

// Close marks the engine closed.
func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
