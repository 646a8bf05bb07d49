package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card palette, matching the frontend stylesheet.
var (
	cardBase      = color.RGBA{R: 0x1f, G: 0x24, B: 0x30, A: 0xff}
	cardOverlay   = color.RGBA{A: 0x8c}
	textPrimary   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	textSecondary = color.RGBA{R: 0xc9, G: 0xd1, B: 0xe0, A: 0xff}
	levelGreen    = color.RGBA{R: 0x98, G: 0xdb, B: 0x7c, A: 0xff}
	platinumBlue  = color.RGBA{R: 0x64, G: 0xb9, B: 0xfc, A: 0xff}
	goldYellow    = color.RGBA{R: 0xff, G: 0xc5, B: 0x4b, A: 0xff}
	silverGrey    = color.RGBA{R: 0xd4, G: 0xe3, B: 0xd8, A: 0xff}
	bronzeOrange  = color.RGBA{R: 0xf6, G: 0x6c, B: 0x4c, A: 0xff}
	plusGold      = color.RGBA{R: 0xf7, G: 0xc9, B: 0x48, A: 0xff}
)

// CompositorRenderer is the fallback strategy: a pure-Go rasterization of the
// same card document. It trades typography for determinism: two renders of
// an unchanged document are byte-identical.
type CompositorRenderer struct{}

// NewCompositorRenderer builds the native renderer.
func NewCompositorRenderer() *CompositorRenderer { return &CompositorRenderer{} }

// Name identifies the strategy in logs and error messages.
func (r *CompositorRenderer) Name() string { return "compositor" }

// Render draws the card into an RGBA canvas at device-pixel resolution and
// encodes it as PNG.
func (r *CompositorRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := doc.Options
	scale := opts.Scale
	width := int(float64(opts.Width) * scale)
	height := int(float64(opts.Height) * scale)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("degenerate card size %dx%d", width, height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(cardBase), image.Point{}, draw.Src)

	r.drawBackground(canvas, doc, scale)

	// Darken so the foreground stays legible over any background.
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(cardOverlay), image.Point{}, draw.Over)

	pad := px(24, scale)
	r.drawAvatar(canvas, doc, pad, pad, px(72, scale))

	textX := pad
	if !doc.Avatar.Empty() {
		textX += px(72+16, scale)
	}
	if doc.Snapshot.IsPlusMember {
		fillRect(canvas, textX, pad, px(10, scale), px(10, scale), plusGold)
		textX += px(16, scale)
	}
	drawText(canvas, textX, pad+px(14, scale), doc.Snapshot.OnlineID, textPrimary)

	levelLabel := fmt.Sprintf("Level %d", doc.Snapshot.Level)
	drawText(canvas, width-pad-textWidth(levelLabel), pad+px(14, scale), levelLabel, levelGreen)

	r.drawTrophyRow(canvas, doc, pad, pad+px(100, scale), scale)

	r.drawBottomRow(canvas, doc, pad, height-pad, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CompositorRenderer) drawBackground(canvas *image.RGBA, doc *Document, scale float64) {
	if doc.Background.Empty() {
		return
	}
	src, err := decodeInline(doc.Background)
	if err != nil {
		log.Printf("[capture] skipping undecodable background: %v", err)
		return
	}

	placement := doc.BackgroundPlacement
	rect := image.Rect(
		px(placement.X, scale),
		px(placement.Y, scale),
		px(placement.X+placement.Width, scale),
		px(placement.Y+placement.Height, scale),
	)
	draw.ApproxBiLinear.Scale(canvas, rect, src, src.Bounds(), draw.Over, nil)
}

func (r *CompositorRenderer) drawAvatar(canvas *image.RGBA, doc *Document, x, y, size int) {
	if doc.Avatar.Empty() {
		return
	}
	src, err := decodeInline(doc.Avatar)
	if err != nil {
		log.Printf("[capture] skipping undecodable avatar: %v", err)
		return
	}
	rect := image.Rect(x, y, x+size, y+size)
	draw.ApproxBiLinear.Scale(canvas, rect, src, src.Bounds(), draw.Over, nil)
}

func (r *CompositorRenderer) drawTrophyRow(canvas *image.RGBA, doc *Document, x, y int, scale float64) {
	counts := doc.Snapshot.TrophyCounts
	entries := []struct {
		count int
		tint  color.RGBA
	}{
		{counts.Platinum, platinumBlue},
		{counts.Gold, goldYellow},
		{counts.Silver, silverGrey},
		{counts.Bronze, bronzeOrange},
	}

	dot := px(12, scale)
	for _, entry := range entries {
		fillRect(canvas, x, y-dot+px(3, scale), dot, dot, entry.tint)
		label := fmt.Sprintf("%d", entry.count)
		drawText(canvas, x+dot+px(6, scale), y, label, entry.tint)
		x += dot + px(6, scale) + textWidth(label) + px(24, scale)
	}
	drawText(canvas, x, y, fmt.Sprintf("%d trophies", doc.Snapshot.TotalTrophies), levelGreen)
}

func (r *CompositorRenderer) drawBottomRow(canvas *image.RGBA, doc *Document, x, bottom int, scale float64) {
	logoSize := px(36, scale)
	logoY := bottom - logoSize

	logoX := x
	for _, logo := range doc.Logos {
		if logo.Empty() {
			continue
		}
		src, err := decodeInline(logo)
		if err != nil {
			log.Printf("[capture] skipping undecodable title logo: %v", err)
			continue
		}
		rect := image.Rect(logoX, logoY, logoX+logoSize, logoY+logoSize)
		draw.ApproxBiLinear.Scale(canvas, rect, src, src.Bounds(), draw.Over, nil)
		logoX += logoSize + px(8, scale)
	}

	drawText(canvas, x, logoY-px(10, scale), "Last game played: "+doc.Snapshot.LastPlayedTitle, textSecondary)
}

// px converts CSS pixels into device pixels.
func px(css int, scale float64) int {
	return int(float64(css)*scale + 0.5)
}

func fillRect(canvas *image.RGBA, x, y, w, h int, tint color.RGBA) {
	draw.Draw(canvas, image.Rect(x, y, x+w, y+h), image.NewUniform(tint), image.Point{}, draw.Over)
}

// drawText renders a line with the fixed 7x13 face. Baseline at y.
func drawText(canvas *image.RGBA, x, y int, text string, tint color.RGBA) {
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(tint),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

func textWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}
