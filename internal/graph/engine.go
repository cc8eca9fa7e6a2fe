package graph

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

// Engine is the boundary to the opaque graph execution engine. Detect runs
// one frame through the graph and returns the decoded per-hand landmark
// lists in submission order. Implementations must deliver results for
// consecutive Detect calls in the same relative order the frames were
// submitted.
type Engine interface {
	Detect(frame *gocv.Mat) ([]landmark.Hand, error)
	Close() error
}

// EngineConfig holds the graph identity handed to the engine.
type EngineConfig struct {
	// GraphPath names the precompiled binary graph definition.
	GraphPath string

	// Logical stream names the graph must expose.
	InputStream    string
	OutputStream   string
	LandmarkStream string

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// SubprocessEngine runs the graph in an external runner process, feeding it
// JPEG frames over stdin (4-byte big-endian length prefix) and reading one
// JSON result line per frame from stdout. The runner is started lazily on
// the first Detect and shut down after 30s idle.
type SubprocessEngine struct {
	config    EngineConfig
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewSubprocessEngine creates an engine for the given graph. It verifies the
// runner binary is locatable; the graph resource itself is validated by the
// processor before the engine is constructed.
func NewSubprocessEngine(config EngineConfig) (*SubprocessEngine, error) {
	if findGraphRunner() == "" {
		return nil, fmt.Errorf("graph runner not found (set HANDTRACK_RUNNER)")
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 2
	}
	if config.MinConfidence <= 0 {
		config.MinConfidence = 0.5
	}
	return &SubprocessEngine{config: config}, nil
}

// Detect sends one frame to the runner and decodes its result line.
func (e *SubprocessEngine) Detect(frame *gocv.Mat) ([]landmark.Hand, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := e.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := e.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := e.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	hands, err := decodeHands([]byte(line))
	if err != nil {
		return nil, err
	}

	e.resetIdleTimer()
	return hands, nil
}

// decodeHands is the typed decode of the landmark stream payload. A payload
// that does not match the schema is a contract violation by the graph; the
// error propagates, there is no local recovery.
func decodeHands(payload []byte) ([]landmark.Hand, error) {
	var response struct {
		Hands []landmark.Hand `json:"hands"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("decode landmark packet: %w", err)
	}
	return response.Hands, nil
}

// Close shuts down the runner process.
func (e *SubprocessEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *SubprocessEngine) ensureStarted() error {
	if e.started {
		return nil
	}

	runnerPath := findGraphRunner()
	if runnerPath == "" {
		return fmt.Errorf("graph runner not found")
	}

	e.cmd = exec.Command(runnerPath,
		"--graph", e.config.GraphPath,
		"--input-stream", e.config.InputStream,
		"--output-stream", e.config.OutputStream,
		"--landmark-stream", e.config.LandmarkStream,
		"--max-hands", fmt.Sprintf("%d", e.config.MaxHands),
		"--min-confidence", fmt.Sprintf("%g", e.config.MinConfidence),
	)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start graph runner: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true

	return nil
}

func (e *SubprocessEngine) shutdown() error {
	if !e.started {
		return nil
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	return err
}

func (e *SubprocessEngine) resetIdleTimer() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(30*time.Second, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.shutdown()
	})
}

func findGraphRunner() string {
	if path := os.Getenv("HANDTRACK_RUNNER"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"bin/handtrack-runner",
		"../bin/handtrack-runner",
		filepath.Join(execDir, "handtrack-runner"),
		filepath.Join(os.Getenv("HOME"), ".handtrack/bin/handtrack-runner"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
