package capture

// Placement describes where a background image is drawn so it fully covers a
// box while preserving its own aspect ratio ("cover" fit). Offsets can be
// negative; the overflow is cropped by the box.
type Placement struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CoverPlacement computes the cover fit of an image of imgW x imgH inside a
// box of boxW x boxH. A degenerate image falls back to stretching across the
// whole box.
func CoverPlacement(imgW, imgH, boxW, boxH int) Placement {
	if imgW <= 0 || imgH <= 0 || boxW <= 0 || boxH <= 0 {
		return Placement{Width: boxW, Height: boxH}
	}

	imgRatio := float64(imgW) / float64(imgH)
	boxRatio := float64(boxW) / float64(boxH)

	var width, height int
	if imgRatio > boxRatio {
		// Wider than the box: match heights, crop the sides.
		height = boxH
		width = int(float64(boxH)*imgRatio + 0.5)
	} else {
		// Taller than the box: match widths, crop top and bottom.
		width = boxW
		height = int(float64(boxW)/imgRatio + 0.5)
	}

	return Placement{
		X:      (boxW - width) / 2,
		Y:      (boxH - height) / 2,
		Width:  width,
		Height: height,
	}
}
