package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server  ServerConfig
	PSN     PSNConfig
	Proxy   ProxyConfig
	Capture CaptureConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	psn, err := loadPSNConfig()
	if err != nil {
		return nil, err
	}

	proxy, err := loadProxyConfig()
	if err != nil {
		return nil, err
	}

	capture, err := loadCaptureConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, PSN: psn, Proxy: proxy, Capture: capture}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// PSNConfig holds the upstream network API settings.
type PSNConfig struct {
	// NpssoToken is the operator's long-lived credential. The service refuses
	// to start without it.
	NpssoToken  string
	AuthBaseURL string
	APIBaseURL  string
	// ReservedUsername resolves to the token holder's own account id instead
	// of a searched one. Operator escape hatch; do not generalize.
	ReservedUsername string
	// DefaultBackgrounds are fallback card backgrounds used when a title has
	// no cover art.
	DefaultBackgrounds []string
	// TokenSafetyMargin is subtracted from the reported token TTL so a token
	// never expires mid-request.
	TokenSafetyMargin time.Duration
}

func loadPSNConfig() (PSNConfig, error) {
	npsso := strings.TrimSpace(os.Getenv("NPSSO_TOKEN"))
	if npsso == "" {
		return PSNConfig{}, fmt.Errorf("NPSSO_TOKEN is not defined in the environment")
	}

	margin := 60 * time.Second
	if override, err := parseOptionalIntEnv("TOKEN_SAFETY_MARGIN_SECONDS"); err != nil {
		return PSNConfig{}, err
	} else if override != nil {
		margin = time.Duration(*override) * time.Second
	}

	return PSNConfig{
		NpssoToken:         npsso,
		AuthBaseURL:        strings.TrimSpace(os.Getenv("PSN_AUTH_BASE_URL")),
		APIBaseURL:         strings.TrimSpace(os.Getenv("PSN_API_BASE_URL")),
		ReservedUsername:   getEnvOrDefault("RESERVED_USERNAME", "urbandonment"),
		DefaultBackgrounds: splitList(os.Getenv("DEFAULT_BACKGROUNDS")),
		TokenSafetyMargin:  margin,
	}, nil
}

// ProxyConfig tunes the image proxy pipeline.
type ProxyConfig struct {
	MaxWidth     int
	JPEGQuality  int
	MaxBytes     int64
	FetchTimeout time.Duration
}

func loadProxyConfig() (ProxyConfig, error) {
	maxWidth := 1024
	if override, err := parseOptionalIntEnv("PROXY_MAX_WIDTH"); err != nil {
		return ProxyConfig{}, err
	} else if override != nil {
		maxWidth = *override
	}

	quality := 80
	if override, err := parseOptionalIntEnv("PROXY_JPEG_QUALITY"); err != nil {
		return ProxyConfig{}, err
	} else if override != nil {
		quality = *override
	}
	if quality < 1 || quality > 100 {
		return ProxyConfig{}, fmt.Errorf("PROXY_JPEG_QUALITY must be between 1 and 100, got %d", quality)
	}

	maxBytes := int64(15 << 20)
	if override, err := parseOptionalIntEnv("PROXY_MAX_BYTES"); err != nil {
		return ProxyConfig{}, err
	} else if override != nil {
		maxBytes = int64(*override)
	}

	timeout := 20 * time.Second
	if override, err := parseOptionalIntEnv("PROXY_FETCH_TIMEOUT_SECONDS"); err != nil {
		return ProxyConfig{}, err
	} else if override != nil {
		timeout = time.Duration(*override) * time.Second
	}

	return ProxyConfig{
		MaxWidth:     maxWidth,
		JPEGQuality:  quality,
		MaxBytes:     maxBytes,
		FetchTimeout: timeout,
	}, nil
}

// CaptureConfig tunes the card capture service.
type CaptureConfig struct {
	// ChromeURL is the remote debugging URL of a headless Chrome. Empty
	// disables the browser renderer, leaving the native compositor.
	ChromeURL string
	// Scale is the device-pixel-ratio multiplier applied to the card size.
	Scale float64
	// ImageTimeout bounds each remote image fetch during capture.
	ImageTimeout time.Duration
}

func loadCaptureConfig() (CaptureConfig, error) {
	scale := 2.0
	if raw := strings.TrimSpace(os.Getenv("CAPTURE_SCALE")); raw != "" {
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil || val <= 0 {
			return CaptureConfig{}, fmt.Errorf("invalid CAPTURE_SCALE value: %q", raw)
		}
		scale = val
	}

	imageTimeout := 5 * time.Second
	if override, err := parseOptionalIntEnv("CAPTURE_IMAGE_TIMEOUT_SECONDS"); err != nil {
		return CaptureConfig{}, err
	} else if override != nil {
		imageTimeout = time.Duration(*override) * time.Second
	}

	return CaptureConfig{
		ChromeURL:    strings.TrimSpace(os.Getenv("CHROME_URL")),
		Scale:        scale,
		ImageTimeout: imageTimeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
