package capture

import (
	"errors"
	"log"
	"sync"
	"time"
)

// StartedFunc is invoked once per Start with the new frame channel. The
// channel is the handle downstream consumers bind to; it is closed when the
// source stops.
type StartedFunc func(frames <-chan Frame)

// frameBuffer is the capacity of the published frame channel. A slow
// consumer drops frames rather than stalling capture.
const frameBuffer = 2

// Source wraps a Camera and publishes captured frames on a channel. Each
// Start opens the device, begins a capture goroutine, and fires the
// registered started callback with a fresh channel; Stop ends capture and
// closes the channel.
type Source struct {
	camera    Camera
	fps       int
	onStarted StartedFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewSource creates a Source reading from the given camera at the given rate.
func NewSource(camera Camera, fps int) *Source {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Source{
		camera: camera,
		fps:    fps,
	}
}

// OnStarted registers the started callback. Must be set before Start.
func (s *Source) OnStarted(fn StartedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStarted = fn
}

// Start opens the camera and begins publishing frames. The started
// notification is delivered asynchronously from the capture goroutine.
// Starting an already running source is a no-op.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.camera == nil {
		return errors.New("source has no camera")
	}

	if err := s.camera.Open(); err != nil {
		return err
	}

	frames := make(chan Frame, frameBuffer)
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	go s.captureLoop(frames, s.stopCh, s.done)

	return nil
}

// Stop ends capture, closes the frame channel, and closes the camera.
// Stopping a stopped source is a no-op.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	close(s.stopCh)
	<-s.done
	s.running = false

	return s.camera.Close()
}

// IsRunning reports whether the source is currently capturing.
func (s *Source) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Source) captureLoop(frames chan Frame, stopCh, done chan struct{}) {
	defer close(done)
	defer close(frames)

	if s.onStarted != nil {
		s.onStarted(frames)
	}

	width, height := s.camera.Size()
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			mat, err := s.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			frame := Frame{
				Mat:       *mat,
				Timestamp: time.Now().UnixMicro(),
				Width:     width,
				Height:    height,
			}

			select {
			case frames <- frame:
			case <-stopCh:
				frame.Close()
				return
			default:
				// Consumer is behind; drop rather than stall capture.
				frame.Close()
			}
		}
	}
}
