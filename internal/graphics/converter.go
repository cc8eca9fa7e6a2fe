package graphics

import (
	"errors"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/machidyo/MediaPipeHandTracking/internal/capture"
)

// ConsumerFunc receives a converted frame and its capture timestamp. The
// consumer takes ownership of the Mat and must Close it. It is invoked from
// the converter's goroutine, one frame at a time, in capture order.
type ConsumerFunc func(frame gocv.Mat, timestamp int64)

// Converter turns the camera's frame stream into the graph's input format:
// scaled to the current display geometry, BGR to RGB, and optionally flipped
// vertically to compensate for the renderer/graph origin mismatch.
//
// A converter lives for one resume/pause cycle. Bind attaches it to a frame
// channel with a display geometry; rebinding replaces the previous binding
// rather than accumulating. Close stops conversion on every exit path.
type Converter struct {
	ctx  *Context
	flip bool

	mu       sync.Mutex
	consumer ConsumerFunc
	closed   bool
	stopCh   chan struct{}
	done     chan struct{}
}

// NewConverter creates a converter on the shared context. The flip flag must
// carry the same orientation constant configured on the graph processor.
func NewConverter(ctx *Context, flipVertical bool) (*Converter, error) {
	if ctx == nil || ctx.Closed() {
		return nil, ErrContextClosed
	}
	return &Converter{ctx: ctx, flip: flipVertical}, nil
}

// SetConsumer wires the converted-frame consumer. Must be set before Bind.
func (cv *Converter) SetConsumer(fn ConsumerFunc) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.consumer = fn
}

// Bind attaches the converter to a camera frame channel with the given
// display geometry, replacing any previous binding. The previous conversion
// goroutine is stopped before the new one starts, so exactly one binding is
// active at a time.
func (cv *Converter) Bind(frames <-chan capture.Frame, width, height int) error {
	if frames == nil {
		return errors.New("nil frame channel")
	}
	if width <= 0 || height <= 0 {
		return errors.New("display geometry not set")
	}

	cv.mu.Lock()
	if cv.closed {
		cv.mu.Unlock()
		return errors.New("converter is closed")
	}
	cv.unbindLocked()

	stopCh := make(chan struct{})
	done := make(chan struct{})
	cv.stopCh = stopCh
	cv.done = done
	consumer := cv.consumer
	flip := cv.flip
	cv.mu.Unlock()

	go convertLoop(frames, width, height, flip, consumer, stopCh, done)
	return nil
}

// Close stops conversion and releases the binding. Closing twice is a no-op.
// After Close no further frames reach the consumer.
func (cv *Converter) Close() {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if cv.closed {
		return
	}
	cv.closed = true
	cv.unbindLocked()
}

func (cv *Converter) unbindLocked() {
	if cv.stopCh == nil {
		return
	}
	close(cv.stopCh)
	<-cv.done
	cv.stopCh = nil
	cv.done = nil
}

func convertLoop(frames <-chan capture.Frame, width, height int, flip bool, consumer ConsumerFunc, stopCh, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}

			out, err := convert(frame.Mat, width, height, flip)
			timestamp := frame.Timestamp
			frame.Close()

			if err != nil {
				log.Printf("Error converting frame: %v", err)
				continue
			}
			if consumer == nil {
				out.Close()
				continue
			}
			consumer(out, timestamp)
		}
	}
}

func convert(src gocv.Mat, width, height int, flip bool) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.Mat{}, errors.New("empty frame")
	}

	resized := gocv.NewMat()
	gocv.Resize(src, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)

	out := gocv.NewMat()
	gocv.CvtColor(resized, &out, gocv.ColorBGRToRGB)
	resized.Close()

	if flip {
		flipped := gocv.NewMat()
		gocv.Flip(out, &flipped, 0)
		out.Close()
		out = flipped
	}

	return out, nil
}
