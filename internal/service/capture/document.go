package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	// The inlined payloads are JPEG or PNG; register their decoders for the
	// compositor path.
	_ "image/jpeg"
	_ "image/png"

	cardmodel "github.com/Urbandonment/trophy-forge/internal/model/card"
	profilemodel "github.com/Urbandonment/trophy-forge/internal/model/profile"
)

// InlineImage is a remote image re-derived as an embedded representation so
// rasterizers never touch the network and cross-origin sources cannot taint
// the output.
type InlineImage struct {
	DataURL string
	Width   int
	Height  int
}

// Empty reports whether the image failed to inline (skipped, not fatal).
func (img InlineImage) Empty() bool { return img.DataURL == "" }

// Document is a fully composed card: profile data plus every image already
// inlined and the background cover placement precomputed. Renderers consume
// it without further I/O.
type Document struct {
	Snapshot   profilemodel.Snapshot
	Options    cardmodel.CaptureOptions
	Background InlineImage
	Avatar     InlineImage
	Logos      []InlineImage
	// BackgroundPlacement positions the background behind all content in
	// CSS pixels.
	BackgroundPlacement Placement
}

// newInlineImage wraps transcoded bytes as a data URL, recording the
// intrinsic pixel size for cover math.
func newInlineImage(mimeType string, payload []byte) (InlineImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return InlineImage{}, fmt.Errorf("unreadable inlined image: %w", err)
	}
	return InlineImage{
		DataURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload),
		Width:   cfg.Width,
		Height:  cfg.Height,
	}, nil
}

// decodeInline turns a data URL back into pixels for the native compositor.
func decodeInline(img InlineImage) (image.Image, error) {
	_, encoded, ok := strings.Cut(img.DataURL, ";base64,")
	if !ok {
		return nil, fmt.Errorf("not a base64 data url")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt data url: %w", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
