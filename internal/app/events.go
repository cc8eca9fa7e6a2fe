package app

import (
	"github.com/machidyo/MediaPipeHandTracking/internal/capture"
	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
)

// eventBuffer bounds the coordinator's event channel. Lifecycle events block
// until accepted; result packets are dropped under pressure instead.
const eventBuffer = 64

type event any

type cameraStartedEvent struct {
	frames <-chan capture.Frame
}

type permissionEvent struct {
	granted bool
}

type surfaceCreatedEvent struct {
	target graph.RenderTarget
}

type surfaceChangedEvent struct {
	width  int
	height int
}

type surfaceDestroyedEvent struct{}

type pauseEvent struct{}

type resumeEvent struct{}

type packetEvent struct {
	packet graph.Packet
}

// enqueue delivers a lifecycle event to the loop. It blocks until the loop
// accepts it, or returns silently once shutdown has begun.
func (a *App) enqueue(ev event) {
	select {
	case a.events <- ev:
	case <-a.stopCh:
	}
}

// enqueuePacket delivers a result packet without ever blocking the graph's
// delivery goroutine: if the loop is behind, the packet is dropped.
func (a *App) enqueuePacket(packet graph.Packet) {
	select {
	case a.events <- packetEvent{packet: packet}:
	case <-a.stopCh:
	default:
	}
}

// run is the coordinator's event loop: the single writer for all pipeline
// state. It exits when Shutdown closes stopCh, releasing the converter on
// the way out so GPU-side bindings never leak.
func (a *App) run() {
	defer close(a.done)
	defer func() {
		if a.converter != nil {
			a.converter.Close()
			a.converter = nil
		}
	}()

	for {
		select {
		case <-a.stopCh:
			return
		case ev := <-a.events:
			a.handle(ev)
		}
	}
}

func (a *App) handle(ev event) {
	switch ev := ev.(type) {
	case permissionEvent:
		a.handlePermission(ev.granted)
	case cameraStartedEvent:
		a.handleCameraStarted(ev.frames)
	case surfaceCreatedEvent:
		a.handleSurfaceCreated(ev.target)
	case surfaceChangedEvent:
		a.handleSurfaceChanged(ev.width, ev.height)
	case surfaceDestroyedEvent:
		a.handleSurfaceDestroyed()
	case resumeEvent:
		a.handleResume()
	case pauseEvent:
		a.handlePause()
	case packetEvent:
		a.handlePacket(ev.packet)
	}
}
