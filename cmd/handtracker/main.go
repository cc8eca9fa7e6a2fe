package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/machidyo/MediaPipeHandTracking/internal/app"
	"github.com/machidyo/MediaPipeHandTracking/internal/config"
	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
	"github.com/machidyo/MediaPipeHandTracking/internal/server"
	"github.com/machidyo/MediaPipeHandTracking/internal/store"
	"github.com/machidyo/MediaPipeHandTracking/internal/tray"
)

func main() {
	withTray := flag.Bool("tray", false, "run a system tray pause/resume control")
	flag.Parse()

	fmt.Println("HandTrack - Live Hand Tracking Preview")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	coordinator := app.New(app.Config{Config: cfg})

	// Detection log is optional; an empty DB path disables it.
	var st *store.Store
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		st, err = store.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()

		detections := st.Detections()
		coordinator.AddResultObserver(func(packet graph.Packet, summary string) {
			if _, err := detections.Log(packet.Timestamp, packet.Hands); err != nil {
				log.Printf("Failed to log detection: %v", err)
			}
		})
	}

	hub := server.NewLandmarksHub()
	coordinator.AddResultObserver(hub.Broadcast)

	// Graph load failures are packaging defects; abort rather than retry.
	if err := coordinator.Initialize(); err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}
	defer coordinator.Shutdown()

	display := server.NewDisplay(coordinator)
	srv := server.New(server.Config{
		Display:   display,
		Landmarks: hub,
		Store:     st,
	})

	coordinator.Resume()

	addr := cfg.ServerAddress()
	fmt.Printf("Starting server on %s\n", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(addr)
	}()

	if *withTray {
		runTray(coordinator)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-sigCh:
		log.Printf("Received %v, shutting down", sig)
	}
}

// runTray blocks running the tray event loop; the toggle drives the
// coordinator's pause/resume transitions.
func runTray(coordinator *app.App) {
	t := tray.New()
	t.OnToggle(func(paused bool) {
		if paused {
			coordinator.Pause()
		} else {
			coordinator.Resume()
		}
	})
	t.OnQuit(func() {
		coordinator.Shutdown()
	})
	t.Run()
}
