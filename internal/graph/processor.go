package graph

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/machidyo/MediaPipeHandTracking/internal/graphics"
	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

// RenderTarget receives the graph's rendered output frames. Present does not
// take ownership of the Mat; it must copy whatever it needs before returning.
type RenderTarget interface {
	Present(frame gocv.Mat)
}

// PacketCallback receives result packets from a named output stream. It runs
// on the processor's delivery goroutine and must not block.
type PacketCallback func(Packet)

// Overlay rendering colors.
var (
	landmarkColor   = color.RGBA{R: 255, G: 64, B: 64, A: 255}
	connectionColor = color.RGBA{G: 220, B: 80, A: 255}
)

// Config identifies the graph and its logical streams.
type Config struct {
	GraphPath      string
	InputStream    string
	OutputStream   string
	LandmarkStream string

	// Engine overrides the default subprocess engine, used in tests.
	Engine Engine
}

// Processor loads the named graph and runs frames through it. Each submitted
// frame produces a rendered output frame, presented to the current render
// target, and a result packet on the landmark stream, delivered to the
// registered callback. Output order matches submission order because Submit
// is called sequentially from the converter goroutine.
type Processor struct {
	config Config
	engine Engine

	mu       sync.RWMutex
	flip     bool
	target   RenderTarget
	callback PacketCallback
}

// NewProcessor constructs a processor on the shared graphics context. The
// named graph resource must exist; a missing graph is a packaging defect and
// the error is meant to be treated as fatal by the caller.
func NewProcessor(ctx *graphics.Context, config Config) (*Processor, error) {
	if ctx == nil || ctx.Closed() {
		return nil, graphics.ErrContextClosed
	}
	if config.InputStream == "" || config.OutputStream == "" || config.LandmarkStream == "" {
		return nil, errors.New("stream names must not be empty")
	}

	if _, err := os.Stat(config.GraphPath); err != nil {
		return nil, fmt.Errorf("load graph %q: %w", config.GraphPath, err)
	}

	engine := config.Engine
	if engine == nil {
		var err error
		engine, err = NewSubprocessEngine(EngineConfig{
			GraphPath:      config.GraphPath,
			InputStream:    config.InputStream,
			OutputStream:   config.OutputStream,
			LandmarkStream: config.LandmarkStream,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Processor{
		config: config,
		engine: engine,
	}, nil
}

// SetFlipVertical sets the output orientation flag. Must carry the same
// shared constant configured on the texture converter.
func (p *Processor) SetFlipVertical(flip bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flip = flip
}

// SetRenderTarget replaces the render target. A nil target is valid and
// suppresses presentation: frames keep flowing, rendering becomes a no-op.
func (p *Processor) SetRenderTarget(target RenderTarget) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = target
}

// OnPacket registers the result callback for a named output stream. Only the
// configured landmark stream is available.
func (p *Processor) OnPacket(stream string, callback PacketCallback) error {
	if stream != p.config.LandmarkStream {
		return fmt.Errorf("unknown output stream %q", stream)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callback = callback
	return nil
}

// Submit runs one converted frame through the graph. The processor takes
// ownership of the Mat. Engine failures are logged and the frame dropped;
// a decode failure is an upstream contract violation and is not recovered
// beyond skipping the frame.
func (p *Processor) Submit(frame gocv.Mat, timestamp int64) {
	hands, err := p.engine.Detect(&frame)
	if err != nil {
		frame.Close()
		log.Printf("Error running graph: %v", err)
		return
	}

	p.mu.RLock()
	flip := p.flip
	target := p.target
	callback := p.callback
	p.mu.RUnlock()

	drawOverlay(&frame, hands)

	if flip {
		// Undo the input flip so viewers see the frame upright.
		flipped := gocv.NewMat()
		gocv.Flip(frame, &flipped, 0)
		frame.Close()
		frame = flipped
	}

	if target != nil {
		target.Present(frame)
	}
	frame.Close()

	if callback != nil {
		callback(Packet{Timestamp: timestamp, Hands: hands})
	}
}

// Close shuts down the engine. The shared graphics context is not released
// here; its lifetime is the process, not the processor.
func (p *Processor) Close() error {
	return p.engine.Close()
}

// drawOverlay renders the hand skeleton onto the frame in place. Landmarks
// are normalized coordinates, scaled to the frame size here.
func drawOverlay(frame *gocv.Mat, hands []landmark.Hand) {
	width := frame.Cols()
	height := frame.Rows()

	for _, hand := range hands {
		points := make([]image.Point, len(hand.Points))
		for i, p := range hand.Points {
			points[i] = image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
		}

		for _, conn := range landmark.Connections {
			a, b := conn[0], conn[1]
			if a >= len(points) || b >= len(points) {
				continue
			}
			gocv.Line(frame, points[a], points[b], connectionColor, 2)
		}

		for _, pt := range points {
			gocv.Circle(frame, pt, 4, landmarkColor, -1)
		}
	}
}
