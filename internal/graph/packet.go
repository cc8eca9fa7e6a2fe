// Package graph loads and runs the hand tracking graph and delivers its outputs.
package graph

import "github.com/machidyo/MediaPipeHandTracking/internal/landmark"

// Packet is one timestamped result from the graph's landmark output stream.
// Timestamps are monotonically non-decreasing across packets, a property of
// the engine that is assumed rather than re-verified here. Packets are
// transient: they are consumed synchronously by the registered callback and
// never retained.
type Packet struct {
	Timestamp int64
	Hands     []landmark.Hand
}
