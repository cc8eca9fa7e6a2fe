package landmark

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func fullHand() Hand {
	h := Hand{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.9,
	}
	h.Points[Wrist] = Point3D{X: 100.0, Y: 200.0, Z: 50.0}
	h.Points[MiddleMCP] = Point3D{X: 130.0, Y: 240.0, Z: 50.0}
	for i := 1; i < NumLandmarks; i++ {
		if i != MiddleMCP {
			h.Points[i] = Point3D{
				X: 100.0 + float64(i)*10.0,
				Y: 200.0 + float64(i)*5.0,
				Z: 50.0 + float64(i)*2.0,
			}
		}
	}
	return h
}

func TestHand_Normalize(t *testing.T) {
	t.Run("wrist at origin after normalization", func(t *testing.T) {
		hand := fullHand()
		normalized := hand.Normalize()

		wrist := normalized.Points[Wrist]
		if math.Abs(wrist.X) > epsilon || math.Abs(wrist.Y) > epsilon || math.Abs(wrist.Z) > epsilon {
			t.Errorf("expected wrist at origin, got (%f, %f, %f)", wrist.X, wrist.Y, wrist.Z)
		}

		if normalized.Handedness != hand.Handedness {
			t.Errorf("handedness = %s, want %s", normalized.Handedness, hand.Handedness)
		}
		if normalized.Score != hand.Score {
			t.Errorf("score = %f, want %f", normalized.Score, hand.Score)
		}
	})

	t.Run("distance from wrist to middle MCP is 1.0", func(t *testing.T) {
		hand := fullHand()
		normalized := hand.Normalize()

		mcp := normalized.Points[MiddleMCP]
		distance := math.Sqrt(mcp.X*mcp.X + mcp.Y*mcp.Y + mcp.Z*mcp.Z)
		if math.Abs(distance-1.0) > epsilon {
			t.Errorf("wrist-to-middle-MCP distance = %f, want 1.0", distance)
		}
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var hand *Hand
		if hand.Normalize() != nil {
			t.Error("expected nil result for nil input")
		}
	})

	t.Run("empty hand stays empty", func(t *testing.T) {
		hand := Hand{}
		normalized := hand.Normalize()
		if normalized == nil || len(normalized.Points) != 0 {
			t.Errorf("expected empty normalized hand, got %+v", normalized)
		}
	})

	t.Run("short hand is translated only", func(t *testing.T) {
		hand := Hand{Points: []Point3D{
			{X: 2, Y: 3, Z: 4},
			{X: 5, Y: 6, Z: 7},
		}}
		normalized := hand.Normalize()

		if len(normalized.Points) != 2 {
			t.Fatalf("point count = %d, want 2", len(normalized.Points))
		}
		want := Point3D{X: 3, Y: 3, Z: 3}
		if normalized.Points[1] != want {
			t.Errorf("Points[1] = %+v, want %+v", normalized.Points[1], want)
		}
	})

	t.Run("zero scale returns translated only", func(t *testing.T) {
		hand := Hand{Points: make([]Point3D, NumLandmarks)}
		for i := range hand.Points {
			hand.Points[i] = Point3D{X: 10.0, Y: 20.0, Z: 5.0}
		}
		normalized := hand.Normalize()

		if math.Abs(normalized.Points[Wrist].X) > epsilon {
			t.Errorf("expected wrist X 0, got %f", normalized.Points[Wrist].X)
		}
	})
}

func TestConnections_IndicesInRange(t *testing.T) {
	for _, conn := range Connections {
		for _, idx := range conn {
			if idx < 0 || idx >= NumLandmarks {
				t.Errorf("connection index %d out of range", idx)
			}
		}
	}
}
