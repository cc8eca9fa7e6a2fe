// Package app provides the frame-pipeline lifecycle coordinator for hand tracking.
package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/machidyo/MediaPipeHandTracking/internal/capture"
	"github.com/machidyo/MediaPipeHandTracking/internal/config"
	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
	"github.com/machidyo/MediaPipeHandTracking/internal/graphics"
)

// Config holds construction options for the coordinator. Camera, Engine, and
// Authorizer default to the real implementations; tests inject substitutes.
type Config struct {
	Config     *config.Config
	Camera     capture.Camera
	Engine     graph.Engine
	Authorizer capture.Authorizer
}

// ResultObserver receives each decoded result packet together with its
// formatted summary. Observers run on the coordinator's event loop and must
// not block.
type ResultObserver func(packet graph.Packet, summary string)

// App coordinates the frame pipeline: it sequences initialization of the
// shared graphics context, graph processor, and camera source, bridges
// surface lifecycle events into render-target and geometry updates, and
// decodes result packets for observation.
//
// All pipeline state (frame channel, display geometry, surface state,
// authorization, pause flag) is owned by a single event-loop goroutine fed
// by a bounded channel; every asynchronous callback enqueues an event
// instead of touching fields, so each field has exactly one writer.
type App struct {
	cfg        *config.Config
	camera     capture.Camera
	authorizer capture.Authorizer
	engine     graph.Engine

	graphics  *graphics.Context
	processor *graph.Processor
	source    *capture.Source
	observers []ResultObserver

	events chan event
	stopCh chan struct{}
	done   chan struct{}

	mu          sync.Mutex
	initialized bool
	stopped     bool

	// Event-loop-owned state. Only the run goroutine reads or writes the
	// fields below.
	converter     *graphics.Converter
	frames        <-chan capture.Frame
	displayWidth  int
	displayHeight int
	surfaceState  surfaceState
	authorized    bool
	paused        bool
}

// New creates the coordinator. The pipeline starts paused; Initialize and
// Resume bring it up.
func New(cfg Config) *App {
	camera := cfg.Camera
	if camera == nil {
		camera = capture.NewCamera(cfg.Config.CameraID, cfg.Config.CaptureWidth, cfg.Config.CaptureHeight, cfg.Config.CaptureFPS)
	}

	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = &capture.DeviceAuthorizer{DeviceID: cfg.Config.CameraID}
	}

	a := &App{
		cfg:        cfg.Config,
		camera:     camera,
		authorizer: authorizer,
		engine:     cfg.Engine,
		events:     make(chan event, eventBuffer),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		paused:     true,
	}

	a.source = capture.NewSource(camera, cfg.Config.CaptureFPS)
	a.source.OnStarted(func(frames <-chan capture.Frame) {
		a.enqueue(cameraStartedEvent{frames: frames})
	})

	return a
}

// AddResultObserver registers a packet observer. Must be called before
// Initialize.
func (a *App) AddResultObserver(fn ResultObserver) {
	a.observers = append(a.observers, fn)
}

// Initialize must be called exactly once, before any lifecycle or surface
// events are delivered. It performs, in strict order: (1) graph asset
// verification, (2) graphics context construction, (3) graph processor
// construction, (4) output orientation configuration, (5) result callback
// registration, and (6) the asynchronous camera authorization request.
// A failure in steps 1-3 is an unrecoverable configuration error.
func (a *App) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return errors.New("coordinator already initialized")
	}

	if err := ensureGraphAsset(a.cfg.GraphPath); err != nil {
		return err
	}

	ctx, err := graphics.NewContext()
	if err != nil {
		return fmt.Errorf("create graphics context: %w", err)
	}

	processor, err := graph.NewProcessor(ctx, graph.Config{
		GraphPath:      a.cfg.GraphPath,
		InputStream:    a.cfg.InputStream,
		OutputStream:   a.cfg.OutputStream,
		LandmarkStream: a.cfg.LandmarkStream,
		Engine:         a.engine,
	})
	if err != nil {
		ctx.Close()
		return fmt.Errorf("create graph processor: %w", err)
	}

	processor.SetFlipVertical(config.FlipVertical)

	if err := processor.OnPacket(a.cfg.LandmarkStream, a.enqueuePacket); err != nil {
		ctx.Close()
		return err
	}

	a.graphics = ctx
	a.processor = processor
	a.initialized = true

	go a.run()

	a.authorizer.Request(func(granted bool) {
		a.enqueue(permissionEvent{granted: granted})
	})

	log.Printf("Pipeline initialized (graph %q, streams %s/%s/%s)",
		a.cfg.GraphPath, a.cfg.InputStream, a.cfg.OutputStream, a.cfg.LandmarkStream)

	return nil
}

// ensureGraphAsset verifies the named graph resource is readable before
// anything tries to load it.
func ensureGraphAsset(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("graph asset unavailable: %w", err)
	}
	return f.Close()
}

// Resume reconstructs the texture converter and, if authorized, starts the
// camera.
func (a *App) Resume() {
	a.enqueue(resumeEvent{})
}

// Pause releases the texture converter; no frames reach the graph until a
// subsequent Resume. Whether the camera itself stops is governed by the
// StopCameraOnPause configuration.
func (a *App) Pause() {
	a.enqueue(pauseEvent{})
}

// SurfaceCreated forwards a new display surface to the processor's render
// target. No geometry is computed yet.
func (a *App) SurfaceCreated(target graph.RenderTarget) {
	a.enqueue(surfaceCreatedEvent{target: target})
}

// SurfaceChanged reports the viewer's viewport. The display geometry is
// recomputed and the converter rebound; a later size supersedes an earlier
// one.
func (a *App) SurfaceChanged(width, height int) {
	a.enqueue(surfaceChangedEvent{width: width, height: height})
}

// SurfaceDestroyed clears the render target. Safe to call when the target is
// already nil.
func (a *App) SurfaceDestroyed() {
	a.enqueue(surfaceDestroyedEvent{})
}

// Shutdown stops the event loop and tears the pipeline down. In-flight
// result deliveries are dropped. The shared graphics context is released
// here, exactly once, after both of its users are closed.
func (a *App) Shutdown() {
	a.mu.Lock()
	if !a.initialized || a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.mu.Unlock()

	close(a.stopCh)
	<-a.done

	if err := a.source.Stop(); err != nil {
		log.Printf("Error stopping camera: %v", err)
	}
	if err := a.processor.Close(); err != nil {
		log.Printf("Error closing processor: %v", err)
	}
	a.graphics.Close()

	log.Println("Pipeline stopped")
}
