// Package imagepipe fetches arbitrary external images, validates them and
// re-encodes them into one normalized codec so the browser can read the
// pixels back without tainting a canvas.
package imagepipe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/image/draw"

	// Decoders for the source formats the upstream CDNs serve.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	model "github.com/Urbandonment/trophy-forge/internal/model/proxy"
)

// OutputMIME is the single normalized codec every proxied image comes back as.
const OutputMIME = "image/jpeg"

// Error carries the HTTP status the failure maps to alongside the
// human-readable message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func validationError(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Pipeline is the stateless fetch/validate/transform unit. One call per
// proxied image.
type Pipeline struct {
	client   *http.Client
	maxWidth int
	quality  int
	maxBytes int64
	timeout  time.Duration
}

// Options tune a pipeline; zero values use the defaults.
type Options struct {
	MaxWidth     int
	JPEGQuality  int
	MaxBytes     int64
	FetchTimeout time.Duration
	HTTPClient   *http.Client
}

// New builds a pipeline.
func New(opts Options) *Pipeline {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1024
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 80
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 15 << 20
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Pipeline{
		client:   opts.HTTPClient,
		maxWidth: opts.MaxWidth,
		quality:  opts.JPEGQuality,
		maxBytes: opts.MaxBytes,
		timeout:  opts.FetchTimeout,
	}
}

// Proxy fetches, validates and transcodes one external image. The scheme and
// URL checks run before any network traffic; the size ceiling is enforced on
// the declared length first and again while buffering the actual bytes.
func (p *Pipeline) Proxy(ctx context.Context, rawURL string) (model.TransformedImage, error) {
	if strings.TrimSpace(rawURL) == "" {
		return model.TransformedImage{}, validationError("image url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return model.TransformedImage{}, validationError("image url must start with http:// or https://")
	}
	if _, err := url.Parse(rawURL); err != nil {
		return model.TransformedImage{}, validationError("malformed image url: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.TransformedImage{}, validationError("malformed image url: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return model.TransformedImage{}, &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("failed to fetch image: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return model.TransformedImage{}, &Error{Status: status, Message: fmt.Sprintf("upstream returned status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return model.TransformedImage{}, validationError("url does not point to an image (content-type %q)", contentType)
	}

	// Reject on the declared length before materializing anything.
	if resp.ContentLength > p.maxBytes {
		return model.TransformedImage{}, &Error{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("image exceeds the %d byte limit", p.maxBytes),
		}
	}

	// The declared length can be absent or lie, so the ceiling holds while
	// buffering too.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return model.TransformedImage{}, &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("failed to read image: %v", err)}
	}
	if int64(len(raw)) > p.maxBytes {
		return model.TransformedImage{}, &Error{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("image exceeds the %d byte limit", p.maxBytes),
		}
	}

	return p.transform(raw)
}

// transform decodes, downscales and re-encodes a fetched image.
func (p *Pipeline) transform(raw []byte) (model.TransformedImage, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return model.TransformedImage{}, &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("failed to decode image: %v", err)}
	}

	resized := Resize(src, p.maxWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		return model.TransformedImage{}, &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("failed to encode image: %v", err)}
	}

	return model.TransformedImage{
		MIMEType:   OutputMIME,
		ByteLength: buf.Len(),
		Payload:    buf.Bytes(),
	}, nil
}

// Resize downscales src so its width is at most maxWidth, preserving aspect
// ratio. Enlargement is never performed.
func Resize(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth {
		return src
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
