package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
)

// Default viewport reported by clients that do not say otherwise.
const (
	DefaultViewWidth  = 640
	DefaultViewHeight = 480
)

// SurfaceObserver receives display-surface lifecycle events derived from
// viewer connections. The coordinator implements it.
type SurfaceObserver interface {
	SurfaceCreated(target graph.RenderTarget)
	SurfaceChanged(width, height int)
	SurfaceDestroyed()
}

// Display is the render target backing /api/stream. Connected viewers are the
// display surface: the first connection creates it, each reported viewport
// resizes it (latest wins), and the last disconnect destroys it. Rendered
// frames are fanned out to every viewer as MJPEG.
type Display struct {
	observer SurfaceObserver

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewDisplay creates a Display that reports surface events to the observer.
func NewDisplay(observer SurfaceObserver) *Display {
	return &Display{
		observer: observer,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Present implements the processor's render target. The frame arrives in the
// graph's RGB layout; it is converted and encoded once, then broadcast. Slow
// viewers skip frames rather than backing up the pipeline.
func (d *Display) Present(frame gocv.Mat) {
	d.mu.Lock()
	idle := len(d.clients) == 0
	d.mu.Unlock()
	if idle {
		return
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(frame, &bgr, gocv.ColorRGBToBGR)
	buf, err := gocv.IMEncode(".jpg", bgr)
	bgr.Close()
	if err != nil {
		return
	}

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	d.mu.Lock()
	for ch := range d.clients {
		select {
		case ch <- data:
		default:
		}
	}
	d.mu.Unlock()
}

// ServeHTTP streams MJPEG frames to a viewer. The optional w and h query
// parameters report the viewer's viewport.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	viewWidth := queryInt(r, "w", DefaultViewWidth)
	viewHeight := queryInt(r, "h", DefaultViewHeight)

	ch := make(chan []byte, 1)

	d.mu.Lock()
	first := len(d.clients) == 0
	d.clients[ch] = struct{}{}
	d.mu.Unlock()

	if d.observer != nil {
		if first {
			d.observer.SurfaceCreated(d)
		}
		d.observer.SurfaceChanged(viewWidth, viewHeight)
	}

	defer func() {
		d.mu.Lock()
		delete(d.clients, ch)
		last := len(d.clients) == 0
		d.mu.Unlock()

		if last && d.observer != nil {
			d.observer.SurfaceDestroyed()
		}
	}()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
			w.Write(data)
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

// Viewers returns the number of connected stream clients.
func (d *Display) Viewers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultValue
}
