package imagepipe

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func serveImage(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
}

// failingTransport fails the test if the pipeline issues any request.
type failingTransport struct{ t *testing.T }

func (ft failingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ft.t.Errorf("unexpected network request to %s", r.URL)
	return nil, errors.New("no network expected")
}

func TestProxyRejectsEmptyURL(t *testing.T) {
	p := New(Options{HTTPClient: &http.Client{Transport: failingTransport{t}}})

	_, err := p.Proxy(context.Background(), "  ")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a pipeline error, got %v", err)
	}
	if perr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", perr.Status)
	}
}

func TestProxyRejectsNonHTTPSchemeWithoutFetching(t *testing.T) {
	p := New(Options{HTTPClient: &http.Client{Transport: failingTransport{t}}})

	for _, rawURL := range []string{"ftp://example.com/a.png", "file:///etc/passwd", "javascript:alert(1)"} {
		_, err := p.Proxy(context.Background(), rawURL)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected a pipeline error, got %v", rawURL, err)
		}
		if perr.Status != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", rawURL, perr.Status)
		}
	}
}

func TestProxyRejectsNonImageContentType(t *testing.T) {
	srv := serveImage(t, "text/html", []byte("<html>not an image</html>"))
	defer srv.Close()

	p := New(Options{})
	_, err := p.Proxy(context.Background(), srv.URL)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a pipeline error, got %v", err)
	}
	if perr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", perr.Status)
	}
}

func TestProxyRelaysUpstreamFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := New(Options{})
	_, err := p.Proxy(context.Background(), srv.URL)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a pipeline error, got %v", err)
	}
	if perr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", perr.Status)
	}
}

func TestProxyRejectsDeclaredOversize(t *testing.T) {
	payload := encodePNG(t, testImage(8, 8))
	srv := serveImage(t, "image/png", payload)
	defer srv.Close()

	p := New(Options{MaxBytes: int64(len(payload)) - 1})
	_, err := p.Proxy(context.Background(), srv.URL)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a pipeline error, got %v", err)
	}
	if perr.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", perr.Status)
	}
}

func TestProxyRejectsActualOversize(t *testing.T) {
	payload := encodePNG(t, testImage(64, 64))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		// Flush after the first byte so no Content-Length is declared and the
		// streaming ceiling has to catch the oversize.
		w.Write(payload[:1])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.Write(payload[1:])
	}))
	defer srv.Close()

	p := New(Options{MaxBytes: int64(len(payload)) - 1})
	_, err := p.Proxy(context.Background(), srv.URL)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a pipeline error, got %v", err)
	}
	if perr.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", perr.Status)
	}
}

func TestProxyTranscodesToJPEG(t *testing.T) {
	srv := serveImage(t, "image/png", encodePNG(t, testImage(40, 20)))
	defer srv.Close()

	p := New(Options{})
	out, err := p.Proxy(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MIMEType != OutputMIME {
		t.Fatalf("expected mime %s, got %s", OutputMIME, out.MIMEType)
	}
	if out.ByteLength != len(out.Payload) {
		t.Fatalf("byte length %d does not match payload size %d", out.ByteLength, len(out.Payload))
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out.Payload))
	if err != nil {
		t.Fatalf("output is not a decodable jpeg: %v", err)
	}
	if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 20 {
		t.Fatalf("expected 40x20 output, got %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestProxyAcceptsGIF(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(12, 12), nil); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	srv := serveImage(t, "image/gif", buf.Bytes())
	defer srv.Close()

	p := New(Options{})
	out, err := p.Proxy(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MIMEType != OutputMIME {
		t.Fatalf("expected mime %s, got %s", OutputMIME, out.MIMEType)
	}
}

// webpFixture is a 10x6 solid-color lossless WebP. x/image/webp cannot
// encode, so the fixture ships as bytes.
const webpFixture = "UklGRhgAAABXRUJQVlA4TAwAAAAvCUABAChyPYrX/wA="

func TestProxyAcceptsWebP(t *testing.T) {
	payload, err := base64.StdEncoding.DecodeString(webpFixture)
	if err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	srv := serveImage(t, "image/webp", payload)
	defer srv.Close()

	p := New(Options{})
	out, err := p.Proxy(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MIMEType != OutputMIME {
		t.Fatalf("expected mime %s, got %s", OutputMIME, out.MIMEType)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out.Payload))
	if err != nil {
		t.Fatalf("output is not a decodable jpeg: %v", err)
	}
	if decoded.Bounds().Dx() != 10 || decoded.Bounds().Dy() != 6 {
		t.Fatalf("expected 10x6 output, got %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestProxyDownscalesWideImages(t *testing.T) {
	srv := serveImage(t, "image/png", encodePNG(t, testImage(200, 100)))
	defer srv.Close()

	p := New(Options{MaxWidth: 50})
	out, err := p.Proxy(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out.Payload))
	if err != nil {
		t.Fatalf("output is not a decodable jpeg: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 25 {
		t.Fatalf("expected 50x25 output, got %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestResizeNeverEnlarges(t *testing.T) {
	src := testImage(10, 30)
	out := Resize(src, 1024)
	if out.Bounds() != src.Bounds() {
		t.Fatalf("expected the source bounds back, got %v", out.Bounds())
	}
}
