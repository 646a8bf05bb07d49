// cardshot renders a trophy card for a username straight to disk, using the
// same services as the API server. Handy for checking card layout changes
// without a browser in the loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Urbandonment/trophy-forge/internal/config"
	cardmodel "github.com/Urbandonment/trophy-forge/internal/model/card"
	"github.com/Urbandonment/trophy-forge/internal/psn"
	"github.com/Urbandonment/trophy-forge/internal/service/capture"
	"github.com/Urbandonment/trophy-forge/internal/service/imagepipe"
	profileservice "github.com/Urbandonment/trophy-forge/internal/service/profile"
	sessionservice "github.com/Urbandonment/trophy-forge/internal/service/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env, using system environment: %v", err)
	}

	username := flag.String("username", "", "PSN username to render")
	out := flag.String("out", "", "output file path (default trophy-card-<username>.png)")
	width := flag.Int("width", 0, "card width in CSS pixels")
	height := flag.Int("height", 0, "card height in CSS pixels")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	if *username == "" {
		flag.Usage()
		log.Fatal("-username is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	psnClient := psn.New(psn.Config{
		AuthBaseURL: cfg.PSN.AuthBaseURL,
		APIBaseURL:  cfg.PSN.APIBaseURL,
	})
	sessions := sessionservice.NewManager(psnClient, cfg.PSN.NpssoToken, cfg.PSN.TokenSafetyMargin)
	profiles := profileservice.NewService(psnClient, sessions, cfg.PSN.ReservedUsername, cfg.PSN.DefaultBackgrounds)
	pipeline := imagepipe.New(imagepipe.Options{
		MaxWidth:     cfg.Proxy.MaxWidth,
		JPEGQuality:  cfg.Proxy.JPEGQuality,
		MaxBytes:     cfg.Proxy.MaxBytes,
		FetchTimeout: cfg.Proxy.FetchTimeout,
	})

	var renderers []capture.Renderer
	if cfg.Capture.ChromeURL != "" {
		renderers = append(renderers, capture.NewChromeRenderer(cfg.Capture.ChromeURL, 30*time.Second))
	}
	renderers = append(renderers, capture.NewCompositorRenderer())
	captures := capture.NewService(pipeline, renderers, cfg.Capture.ImageTimeout, cfg.Capture.Scale)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	snapshot, err := profiles.Fetch(ctx, *username)
	if err != nil {
		log.Fatalf("profile lookup failed: %v", err)
	}
	log.Printf("resolved %s: level %d, %d trophies", snapshot.OnlineID, snapshot.Level, snapshot.TotalTrophies)

	artifact, err := captures.Capture(ctx, snapshot, cardmodel.CaptureOptions{Width: *width, Height: *height}, func(p cardmodel.Progress) {
		log.Printf("capture stage: %s %s", p.Stage, p.Detail)
	})
	if err != nil {
		log.Fatalf("capture failed: %v", err)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("trophy-card-%s.png", *username)
	}
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", path, err)
	}
	log.Printf("wrote %s (%d bytes)", path, len(artifact.Data))
}
