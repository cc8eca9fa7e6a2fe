package app

import (
	"log"

	"github.com/machidyo/MediaPipeHandTracking/internal/capture"
	"github.com/machidyo/MediaPipeHandTracking/internal/config"
	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
	"github.com/machidyo/MediaPipeHandTracking/internal/graphics"
)

// surfaceState tracks the display-surface lifecycle position.
type surfaceState int

const (
	surfaceNone surfaceState = iota
	surfaceCreated
	surfaceSized
	surfaceDestroyed
)

// All handlers in this file run on the event loop goroutine only.

func (a *App) handleSurfaceCreated(target graph.RenderTarget) {
	a.processor.SetRenderTarget(target)
	a.surfaceState = surfaceCreated
}

func (a *App) handleSurfaceChanged(viewWidth, viewHeight int) {
	captureWidth, captureHeight := a.camera.Size()
	width, height := capture.DisplaySize(captureWidth, captureHeight, viewWidth, viewHeight)
	a.displayWidth = width
	a.displayHeight = height

	if a.surfaceState == surfaceCreated || a.surfaceState == surfaceSized {
		a.surfaceState = surfaceSized
	}

	// The camera texture handle may not exist yet; sizing and camera
	// startup race each other and either order is legal.
	a.bindConverter()
}

func (a *App) handleSurfaceDestroyed() {
	// Clearing an already-nil target is a no-op, not a fault.
	a.processor.SetRenderTarget(nil)
	a.surfaceState = surfaceDestroyed
}

func (a *App) handleCameraStarted(frames <-chan capture.Frame) {
	a.frames = frames
	a.bindConverter()
}

func (a *App) handlePermission(granted bool) {
	a.authorized = granted
	if !granted {
		// Terminal state: the preview simply never activates.
		log.Println("Camera authorization denied; preview stays inactive")
		return
	}
	a.startCameraIfReady()
}

func (a *App) handleResume() {
	if !a.paused {
		return
	}

	converter, err := graphics.NewConverter(a.graphics, config.FlipVertical)
	if err != nil {
		log.Printf("Error creating converter: %v", err)
		return
	}
	converter.SetConsumer(a.processor.Submit)

	a.converter = converter
	a.paused = false
	a.bindConverter()
	a.startCameraIfReady()
}

func (a *App) handlePause() {
	if a.paused {
		return
	}
	a.paused = true

	if a.converter != nil {
		a.converter.Close()
		a.converter = nil
	}

	if a.cfg.StopCameraOnPause {
		if err := a.source.Stop(); err != nil {
			log.Printf("Error stopping camera: %v", err)
		}
		a.frames = nil
	}
}

// bindConverter binds the current frame channel and display geometry to the
// converter. Any missing piece makes this a deferred no-op; the binding
// happens when the last piece arrives, whichever event that is.
func (a *App) bindConverter() {
	if a.converter == nil || a.frames == nil || a.displayWidth <= 0 || a.displayHeight <= 0 {
		return
	}
	if err := a.converter.Bind(a.frames, a.displayWidth, a.displayHeight); err != nil {
		log.Printf("Error binding converter: %v", err)
	}
}

// startCameraIfReady starts capture once the processor exists and camera
// authorization has been granted, and only while the pipeline is resumed.
func (a *App) startCameraIfReady() {
	if a.paused || !a.authorized || a.processor == nil {
		return
	}
	if err := a.source.Start(); err != nil {
		log.Printf("Error starting camera: %v", err)
	}
}
