package app

import (
	"fmt"
	"log"
	"strings"

	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

// handlePacket logs each result packet and fans it out to the registered
// observers. This is the only externally observable effect of packet
// processing; no landmark data is retained or fed back into the pipeline.
func (a *App) handlePacket(packet graph.Packet) {
	summary := FormatHands(packet.Hands)
	log.Printf("Received hand landmarks packet at ts %d", packet.Timestamp)
	log.Printf("[ts:%d] %s", packet.Timestamp, summary)

	for _, fn := range a.observers {
		fn(packet, summary)
	}
}

// FormatHands renders the per-hand landmark summary. Zero hands and zero
// landmarks per hand are valid inputs, not errors.
func FormatHands(hands []landmark.Hand) string {
	if len(hands) == 0 {
		return "No hand landmarks"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Number of hands detected: %d", len(hands))
	for i, hand := range hands {
		fmt.Fprintf(&b, "\n#Hand landmarks for hand[%d]: %d", i, len(hand.Points))
		for j, p := range hand.Points {
			fmt.Fprintf(&b, "\n\tLandmark [%d]: (%v, %v, %v)", j, p.X, p.Y, p.Z)
		}
	}
	return b.String()
}
