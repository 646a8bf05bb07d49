package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Urbandonment/trophy-forge/internal/config"
	"github.com/Urbandonment/trophy-forge/internal/handler"
	"github.com/Urbandonment/trophy-forge/internal/psn"
	"github.com/Urbandonment/trophy-forge/internal/service/capture"
	"github.com/Urbandonment/trophy-forge/internal/service/imagepipe"
	profileservice "github.com/Urbandonment/trophy-forge/internal/service/profile"
	sessionservice "github.com/Urbandonment/trophy-forge/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	// A missing NPSSO token fails here, before anything is listening.
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

	captures := capture.NewService(pipeline, buildRenderers(cfg.Capture), cfg.Capture.ImageTimeout, cfg.Capture.Scale)

	router := handler.NewRouter(handler.Services{
		Profiles: profiles,
		Pipeline: pipeline,
		Captures: captures,
	})

	startServer(ctx, cfg.Server, router)
}

// buildRenderers assembles the capture strategy list: headless Chrome first
// when configured, the native compositor always as the safety net.
func buildRenderers(cfg config.CaptureConfig) []capture.Renderer {
	var renderers []capture.Renderer
	if cfg.ChromeURL != "" {
		renderers = append(renderers, capture.NewChromeRenderer(cfg.ChromeURL, 30*time.Second))
		log.Printf("[capture] chrome renderer enabled at %s", cfg.ChromeURL)
	} else {
		log.Println("[capture] CHROME_URL not set, rendering with the native compositor only")
	}
	return append(renderers, capture.NewCompositorRenderer())
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Trophy Forge backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
