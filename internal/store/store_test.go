package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleHands() []landmark.Hand {
	hand := landmark.Hand{Points: make([]landmark.Point3D, landmark.NumLandmarks)}
	hand.Points[landmark.Wrist] = landmark.Point3D{X: 100, Y: 200, Z: 50}
	hand.Points[landmark.MiddleMCP] = landmark.Point3D{X: 130, Y: 240, Z: 50}
	for i := range hand.Points {
		if i != landmark.Wrist && i != landmark.MiddleMCP {
			hand.Points[i] = landmark.Point3D{
				X: 100 + float64(i),
				Y: 200 + float64(i)*2,
				Z: 50 + float64(i),
			}
		}
	}
	return []landmark.Hand{hand}
}

func TestDetectionRepository_LogAndGet(t *testing.T) {
	repo := testStore(t).Detections()

	id, err := repo.Log(12345, sampleHands())
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if id == "" {
		t.Fatal("Log() returned empty id")
	}

	d, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if d.PacketTS != 12345 {
		t.Errorf("PacketTS = %d, want 12345", d.PacketTS)
	}
	if d.HandCount != 1 {
		t.Errorf("HandCount = %d, want 1", d.HandCount)
	}
	if d.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestDetectionRepository_GetByIDNotFound(t *testing.T) {
	repo := testStore(t).Detections()

	_, err := repo.GetByID("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDetectionRepository_ZeroHandsNotRecorded(t *testing.T) {
	repo := testStore(t).Detections()

	id, err := repo.Log(1, nil)
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if id != "" {
		t.Errorf("Log() recorded a zero-hand packet: %q", id)
	}

	recent, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent() = %d rows, want 0", len(recent))
	}
}

func TestDetectionRepository_RecentNewestFirst(t *testing.T) {
	repo := testStore(t).Detections()

	for _, ts := range []int64{10, 30, 20} {
		if _, err := repo.Log(ts, sampleHands()); err != nil {
			t.Fatalf("Log(%d) error = %v", ts, err)
		}
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent() = %d rows, want 2", len(recent))
	}
	if recent[0].PacketTS != 30 || recent[1].PacketTS != 20 {
		t.Errorf("order = [%d %d], want [30 20]", recent[0].PacketTS, recent[1].PacketTS)
	}
}

func TestDetectionRepository_LandmarksStoredNormalized(t *testing.T) {
	repo := testStore(t).Detections()

	id, err := repo.Log(1, sampleHands())
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	hands, err := repo.GetLandmarks(id)
	if err != nil {
		t.Fatalf("GetLandmarks() error = %v", err)
	}
	if len(hands) != 1 {
		t.Fatalf("hand count = %d, want 1", len(hands))
	}
	if len(hands[0].Points) != landmark.NumLandmarks {
		t.Fatalf("landmark count = %d, want %d", len(hands[0].Points), landmark.NumLandmarks)
	}

	wrist := hands[0].Points[landmark.Wrist]
	if math.Abs(wrist.X) > 1e-9 || math.Abs(wrist.Y) > 1e-9 || math.Abs(wrist.Z) > 1e-9 {
		t.Errorf("stored wrist not at origin: %+v", wrist)
	}

	mcp := hands[0].Points[landmark.MiddleMCP]
	distance := math.Sqrt(mcp.X*mcp.X + mcp.Y*mcp.Y + mcp.Z*mcp.Z)
	if math.Abs(distance-1.0) > 1e-9 {
		t.Errorf("stored hand scale = %f, want 1.0", distance)
	}
}

func TestDetectionRepository_GetLandmarksUnknownID(t *testing.T) {
	repo := testStore(t).Detections()

	hands, err := repo.GetLandmarks("nonexistent")
	if err != nil {
		t.Fatalf("GetLandmarks() error = %v", err)
	}
	if len(hands) != 0 {
		t.Errorf("hands = %d, want 0", len(hands))
	}
}
