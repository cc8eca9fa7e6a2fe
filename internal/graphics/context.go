// Package graphics provides the shared native rendering context and frame conversion.
package graphics

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrContextClosed is returned when a component is constructed against a
// context that has already been released.
var ErrContextClosed = errors.New("graphics context is closed")

// Context owns the native (OpenCV) resources shared by the texture converter
// and the graph processor. It is created once at startup and released once,
// at process teardown — not per pause/resume cycle.
type Context struct {
	version string
	mu      sync.Mutex
	closed  bool
}

// NewContext verifies that native support is available and returns the
// shared context. Failure here is an unrecoverable configuration error.
func NewContext() (*Context, error) {
	version := gocv.OpenCVVersion()
	if version == "" {
		return nil, errors.New("opencv support unavailable")
	}
	return &Context{version: version}, nil
}

// Version reports the underlying OpenCV version.
func (c *Context) Version() string {
	return c.version
}

// Closed reports whether the context has been released.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the context. Closing twice is a no-op; components built on
// the context must already be closed by the time this is called.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
