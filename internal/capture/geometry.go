package capture

// DisplaySize computes the ideal preview render size for a viewer viewport.
// The result preserves the capture aspect ratio, fitted inside the viewport.
// A viewport whose orientation differs from the capture orientation uses the
// rotated capture dimensions, matching what a rotated display would show.
// Dimensions are rounded down to even values for codec friendliness.
func DisplaySize(captureWidth, captureHeight, viewWidth, viewHeight int) (int, int) {
	if captureWidth <= 0 || captureHeight <= 0 {
		return viewWidth, viewHeight
	}
	if viewWidth <= 0 || viewHeight <= 0 {
		return captureWidth, captureHeight
	}

	cw, ch := captureWidth, captureHeight
	if (viewWidth < viewHeight) != (cw < ch) {
		cw, ch = ch, cw
	}

	var width, height int
	if viewWidth*ch <= viewHeight*cw {
		// Viewport is relatively wider than the capture: width-bound.
		width = viewWidth
		height = viewWidth * ch / cw
	} else {
		height = viewHeight
		width = viewHeight * cw / ch
	}

	width &^= 1
	height &^= 1
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}

	return width, height
}
