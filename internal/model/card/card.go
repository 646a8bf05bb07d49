package card

// CaptureOptions control how a trophy card is rasterized.
type CaptureOptions struct {
	// Width and Height are the card's CSS-pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
	// Scale multiplies the CSS size into device pixels (device pixel ratio).
	Scale float64 `json:"scale"`
}

// Defaults fills zero fields with the standard card geometry.
func (o CaptureOptions) Defaults() CaptureOptions {
	if o.Width <= 0 {
		o.Width = 600
	}
	if o.Height <= 0 {
		o.Height = 300
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	return o
}

// Artifact is the rendered trophy card ready for download or clipboard use.
type Artifact struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// Progress is one stage update emitted while a capture runs.
type Progress struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

// Capture stages, in the order they are reported.
const (
	StageInlineImages = "inline-images"
	StageCompose      = "compose"
	StageRender       = "render"
	StageDone         = "done"
)
