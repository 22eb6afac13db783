package pattern

import (
	"image"
	"image/color"
	"math/bits"

	"github.com/lehigh-university-libraries/slscollect/internal/models"
)

const (
	black uint8 = 0
	white uint8 = 255
)

// Pattern is a named image projected during a capture session.
// A Pattern must not be modified after it has been generated.
type Pattern struct {
	Name  string
	Image image.Image
	Mode  models.ColorMode
}

// Width returns the pattern width in pixels
func (p *Pattern) Width() int {
	return p.Image.Bounds().Dx()
}

// Height returns the pattern height in pixels
func (p *Pattern) Height() int {
	return p.Image.Bounds().Dy()
}

// Solid returns a Color-mode pattern filled with a single intensity
func Solid(name string, value uint8, width, height int) *Pattern {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{R: value, G: value, B: value, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return &Pattern{Name: name, Image: img, Mode: models.Color}
}

// ColumnWidth returns floor(width / 2^level), or 0 when the level is too
// dense for the width (including levels where 2^level does not fit an int).
func ColumnWidth(level, width int) int {
	if level < 0 || width <= 0 {
		return 0
	}
	if level >= bits.UintSize-1 {
		return 0
	}
	return width >> uint(level)
}

// VerticalStripes draws 2^level alternating columns, black first.
// It returns false when the column width would round to zero pixels.
func VerticalStripes(level, width, height int) (*Pattern, bool) {
	if height <= 0 {
		return nil, false
	}
	profile, ok := stripeProfile(level, width)
	if !ok {
		return nil, false
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width], profile)
	}
	return &Pattern{Image: img, Mode: models.Gray}, true
}

// HorizontalStripes is VerticalStripes for the transposed resolution,
// rotated a quarter turn counter-clockwise so the first (black) band ends
// up on the bottom row.
func HorizontalStripes(level, width, height int) (*Pattern, bool) {
	vert, ok := VerticalStripes(level, height, width)
	if !ok {
		return nil, false
	}
	return &Pattern{Image: rotateCCW(vert.Image.(*image.Gray)), Mode: models.Gray}, true
}

// stripeProfile returns one row of a vertical stripe pattern.
//
// width/columnWidth+1 columns are laid out and the last one is clipped to
// width, so the layout is not exactly periodic at 2^level columns. The
// reconstruction side relies on this exact layout.
func stripeProfile(level, width int) ([]uint8, bool) {
	colWidth := ColumnWidth(level, width)
	if colWidth == 0 {
		return nil, false
	}

	row := make([]uint8, width)
	nCols := width/colWidth + 1
	for i := 0; i < nCols; i++ {
		start := i * colWidth
		if start >= width {
			break
		}
		end := min(width, start+colWidth)
		value := black
		if i%2 == 1 {
			value = white
		}
		for x := start; x < end; x++ {
			row[x] = value
		}
	}
	return row, true
}

// rotateCCW rotates a gray image 90 degrees counter-clockwise:
// dst(x, y) = src(w-1-y, x) for a src of width w.
func rotateCCW(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < w; y++ {
		for x := 0; x < h; x++ {
			dst.Pix[y*dst.Stride+x] = src.Pix[x*src.Stride+(w-1-y)]
		}
	}
	return dst
}
