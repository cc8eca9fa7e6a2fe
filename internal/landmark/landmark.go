// Package landmark defines the hand landmark schema produced by the tracking graph.
package landmark

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a normalized 3D coordinate. X and Y are in [0, 1] relative to
// the frame; Z is depth relative to the wrist. The range is a convention of
// the upstream graph, not enforced here.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand is one detected hand: an ordered sequence of landmarks. A full
// detection carries NumLandmarks points, but consumers must tolerate any
// count, including zero.
type Hand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64   `json:"score,omitempty"`
}

// Connections lists the landmark index pairs forming the hand skeleton,
// used when rendering the overlay.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Normalize returns a copy of the hand translated so the wrist sits at the
// origin and scaled so the wrist-to-middle-MCP distance is 1.0. Hands with
// fewer points than MiddleMCP+1 are only translated. Used by the detection
// log so stored landmarks compare across frame sizes.
func (h *Hand) Normalize() *Hand {
	if h == nil {
		return nil
	}

	normalized := &Hand{
		Points:     make([]Point3D, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	if len(h.Points) == 0 {
		return normalized
	}

	wrist := h.Points[Wrist]
	for i, p := range h.Points {
		normalized.Points[i] = Point3D{
			X: p.X - wrist.X,
			Y: p.Y - wrist.Y,
			Z: p.Z - wrist.Z,
		}
	}

	if len(h.Points) <= MiddleMCP {
		return normalized
	}

	scale := distance3D(Point3D{}, normalized.Points[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := range normalized.Points {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}
