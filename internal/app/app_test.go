package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/machidyo/MediaPipeHandTracking/internal/capture"
	"github.com/machidyo/MediaPipeHandTracking/internal/config"
	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	graphPath := filepath.Join(t.TempDir(), "hand_tracking.binarypb")
	if err := os.WriteFile(graphPath, []byte("binary graph"), 0644); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	return &config.Config{
		Host:              "127.0.0.1",
		Port:              8080,
		CameraID:          0,
		CaptureWidth:      64,
		CaptureHeight:     48,
		CaptureFPS:        100,
		GraphPath:         graphPath,
		InputStream:       config.DefaultInputStream,
		OutputStream:      config.DefaultOutputStream,
		LandmarkStream:    config.DefaultLandmarkStream,
		StopCameraOnPause: true,
	}
}

func testCamera(t *testing.T) *capture.MockCamera {
	t.Helper()

	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })

	cam := capture.NewMockCamera([]*gocv.Mat{&mat}, true)
	cam.SetSize(64, 48)
	return cam
}

func waitFor(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// summaryRecorder collects observed packet summaries. Observers run on the
// coordinator's event loop, so access is synchronized.
type summaryRecorder struct {
	mu        sync.Mutex
	summaries []string
}

func (r *summaryRecorder) observe(_ graph.Packet, summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
}

func (r *summaryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

func (r *summaryRecorder) first() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.summaries) == 0 {
		return ""
	}
	return r.summaries[0]
}

func oneHand() []landmark.Hand {
	return []landmark.Hand{{Points: []landmark.Point3D{{X: 0.5, Y: 0.5, Z: 0.0}}}}
}

func TestApp_InitializeMissingGraph(t *testing.T) {
	cfg := testConfig(t)
	cfg.GraphPath = filepath.Join(t.TempDir(), "missing.binarypb")

	a := New(Config{
		Config:     cfg,
		Camera:     testCamera(t),
		Engine:     graph.NewMockEngine(),
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err == nil {
		a.Shutdown()
		t.Fatal("expected error for missing graph asset")
	}
}

func TestApp_InitializeTwice(t *testing.T) {
	a := New(Config{
		Config:     testConfig(t),
		Camera:     testCamera(t),
		Engine:     graph.NewMockEngine(),
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	if err := a.Initialize(); err == nil {
		t.Error("expected error on second Initialize")
	}
}

func TestApp_PacketsReachObservers(t *testing.T) {
	engine := graph.NewMockEngine()
	engine.SetHands(oneHand())
	cam := testCamera(t)

	a := New(Config{
		Config:     testConfig(t),
		Camera:     cam,
		Engine:     engine,
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	rec := &summaryRecorder{}
	a.AddResultObserver(rec.observe)

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	a.Resume()
	a.SurfaceChanged(32, 24)

	waitFor(t, func() bool { return rec.count() >= 1 }, "no packet reached the observer")

	want := "Number of hands detected: 1" +
		"\n#Hand landmarks for hand[0]: 1" +
		"\n\tLandmark [0]: (0.5, 0.5, 0)"
	if got := rec.first(); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestApp_DeniedAuthorizationKeepsCameraClosed(t *testing.T) {
	engine := graph.NewMockEngine()
	cam := testCamera(t)

	a := New(Config{
		Config:     testConfig(t),
		Camera:     cam,
		Engine:     engine,
		Authorizer: capture.StaticAuthorizer{Granted: false},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	a.Resume()
	a.SurfaceChanged(32, 24)

	time.Sleep(100 * time.Millisecond)

	if cam.OpenCalls() != 0 {
		t.Errorf("camera opened %d times despite denied authorization", cam.OpenCalls())
	}
	if engine.Detects() != 0 {
		t.Errorf("engine saw %d frames despite denied authorization", engine.Detects())
	}
}

func TestApp_ResizeWithoutResumeIsInert(t *testing.T) {
	engine := graph.NewMockEngine()
	cam := testCamera(t)

	a := New(Config{
		Config:     testConfig(t),
		Camera:     cam,
		Engine:     engine,
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	// Sizing before the camera handle exists is tolerated, not an error.
	a.SurfaceChanged(32, 24)
	a.SurfaceChanged(16, 12)

	time.Sleep(100 * time.Millisecond)

	if cam.OpenCalls() != 0 {
		t.Errorf("camera opened %d times while paused", cam.OpenCalls())
	}
	if engine.Detects() != 0 {
		t.Errorf("engine saw %d frames while paused", engine.Detects())
	}
}

func TestApp_PauseStopsFrames(t *testing.T) {
	engine := graph.NewMockEngine()
	cam := testCamera(t)

	a := New(Config{
		Config:     testConfig(t),
		Camera:     cam,
		Engine:     engine,
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	a.Resume()
	a.SurfaceChanged(32, 24)
	waitFor(t, func() bool { return engine.Detects() >= 1 }, "no frames before pause")

	a.Pause()
	waitFor(t, func() bool { return !cam.IsOpen() }, "camera still open after pause")

	// Let in-flight frames drain, then verify the flow has stopped.
	time.Sleep(50 * time.Millisecond)
	before := engine.Detects()
	time.Sleep(100 * time.Millisecond)
	if after := engine.Detects(); after != before {
		t.Errorf("frames still flowing after pause: %d -> %d", before, after)
	}

	a.Resume()
	waitFor(t, func() bool { return engine.Detects() > before }, "no frames after resume")

	if cam.OpenCalls() != 2 {
		t.Errorf("OpenCalls() = %d, want 2 (stopped on pause, reopened on resume)", cam.OpenCalls())
	}
}

func TestApp_SurfaceTeardownIsIdempotent(t *testing.T) {
	engine := graph.NewMockEngine()
	engine.SetHands(oneHand())

	a := New(Config{
		Config:     testConfig(t),
		Camera:     testCamera(t),
		Engine:     engine,
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	a.Resume()
	a.SurfaceChanged(32, 24)
	waitFor(t, func() bool { return engine.Detects() >= 1 }, "no frames before teardown")

	// Destroying with no target, then twice in a row, must not fault, and
	// frames keep flowing to the graph with presentation suppressed.
	a.SurfaceDestroyed()
	a.SurfaceDestroyed()

	before := engine.Detects()
	waitFor(t, func() bool { return engine.Detects() > before }, "frames stopped after surface teardown")
}

func TestApp_LaterSizeSupersedes(t *testing.T) {
	engine := graph.NewMockEngine()
	cam := testCamera(t)

	a := New(Config{
		Config:     testConfig(t),
		Camera:     cam,
		Engine:     engine,
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer a.Shutdown()

	a.Resume()
	a.SurfaceChanged(32, 24)
	a.SurfaceChanged(16, 12)

	waitFor(t, func() bool { return engine.Detects() >= 1 }, "no frames after resize burst")
}

func TestApp_ShutdownIdempotent(t *testing.T) {
	a := New(Config{
		Config:     testConfig(t),
		Camera:     testCamera(t),
		Engine:     graph.NewMockEngine(),
		Authorizer: capture.StaticAuthorizer{Granted: true},
	})

	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	a.Resume()
	a.Shutdown()
	a.Shutdown()
}
