package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadRequiresNpssoToken(t *testing.T) {
	t.Setenv("NPSSO_TOKEN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "NPSSO_TOKEN") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NPSSO_TOKEN", "npsso-1")
	t.Setenv("PORT", "")
	t.Setenv("RESERVED_USERNAME", "")
	t.Setenv("DEFAULT_BACKGROUNDS", "")
	t.Setenv("CHROME_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.PSN.ReservedUsername != "urbandonment" {
		t.Fatalf("unexpected reserved username %q", cfg.PSN.ReservedUsername)
	}
	if len(cfg.PSN.DefaultBackgrounds) != 0 {
		t.Fatalf("expected no default backgrounds, got %v", cfg.PSN.DefaultBackgrounds)
	}
	if cfg.PSN.TokenSafetyMargin != 60*time.Second {
		t.Fatalf("unexpected safety margin %v", cfg.PSN.TokenSafetyMargin)
	}
	if cfg.Proxy.MaxWidth != 1024 || cfg.Proxy.JPEGQuality != 80 {
		t.Fatalf("unexpected proxy defaults: %+v", cfg.Proxy)
	}
	if cfg.Proxy.MaxBytes != 15<<20 {
		t.Fatalf("unexpected proxy byte ceiling %d", cfg.Proxy.MaxBytes)
	}
	if cfg.Capture.ChromeURL != "" || cfg.Capture.Scale != 2.0 || cfg.Capture.ImageTimeout != 5*time.Second {
		t.Fatalf("unexpected capture defaults: %+v", cfg.Capture)
	}
}

func TestLoadPortForms(t *testing.T) {
	cases := []struct {
		name string
		port string
		want string
	}{
		{"bare port", "3000", ":3000"},
		{"colon prefixed", ":3000", ":3000"},
		{"host and port", "127.0.0.1:3000", "127.0.0.1:3000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("NPSSO_TOKEN", "npsso-1")
			t.Setenv("PORT", tc.port)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Server.Addr != tc.want {
				t.Fatalf("expected addr %q, got %q", tc.want, cfg.Server.Addr)
			}
		})
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("NPSSO_TOKEN", "npsso-1")
	t.Setenv("PORT", "80 80")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLoadRejectsInvalidJPEGQuality(t *testing.T) {
	t.Setenv("NPSSO_TOKEN", "npsso-1")
	t.Setenv("PORT", "")

	for _, quality := range []string{"0", "101", "abc"} {
		t.Setenv("PROXY_JPEG_QUALITY", quality)
		if _, err := Load(); err == nil {
			t.Fatalf("expected an error for quality %q", quality)
		}
	}
}

func TestLoadSplitsDefaultBackgrounds(t *testing.T) {
	t.Setenv("NPSSO_TOKEN", "npsso-1")
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_BACKGROUNDS", " https://img.example/a.jpg, ,https://img.example/b.jpg ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.PSN.DefaultBackgrounds) != 2 {
		t.Fatalf("expected 2 backgrounds, got %v", cfg.PSN.DefaultBackgrounds)
	}
	if cfg.PSN.DefaultBackgrounds[0] != "https://img.example/a.jpg" {
		t.Fatalf("expected trimmed entries, got %q", cfg.PSN.DefaultBackgrounds[0])
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NPSSO_TOKEN", "npsso-1")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_SAFETY_MARGIN_SECONDS", "120")
	t.Setenv("PROXY_MAX_WIDTH", "512")
	t.Setenv("CAPTURE_SCALE", "1.5")
	t.Setenv("CAPTURE_IMAGE_TIMEOUT_SECONDS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PSN.TokenSafetyMargin != 2*time.Minute {
		t.Fatalf("unexpected safety margin %v", cfg.PSN.TokenSafetyMargin)
	}
	if cfg.Proxy.MaxWidth != 512 {
		t.Fatalf("unexpected max width %d", cfg.Proxy.MaxWidth)
	}
	if cfg.Capture.Scale != 1.5 {
		t.Fatalf("unexpected scale %v", cfg.Capture.Scale)
	}
	if cfg.Capture.ImageTimeout != 10*time.Second {
		t.Fatalf("unexpected image timeout %v", cfg.Capture.ImageTimeout)
	}
}
