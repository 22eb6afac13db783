package preview

import (
	"image"
	"image/color"

	"github.com/lehigh-university-libraries/slscollect/internal/pattern"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultHeight = 240
	labelHeight   = 18
	gap           = 4
)

// Options controls the preview layout
type Options struct {
	// Height of each thumbnail in pixels; widths follow the aspect ratio
	Height int
	// Status is drawn after the pattern name, e.g. "settling 3/24"
	Status string
}

// Compose draws the live camera frame and the selected pattern side by
// side, scaled to opts.Height, with the pattern name underneath. Either
// input may be nil, in which case its slot is left black.
func Compose(frame image.Image, p *pattern.Pattern, opts Options) *image.RGBA {
	h := opts.Height
	if h <= 0 {
		h = DefaultHeight
	}

	var patternImg image.Image
	if p != nil {
		patternImg = p.Image
	}
	leftW := thumbWidth(frame, h)
	rightW := thumbWidth(patternImg, h)
	if leftW == 0 {
		leftW = rightW
	}
	if rightW == 0 {
		rightW = leftW
	}
	if leftW == 0 {
		leftW, rightW = h*4/3, h*4/3
	}

	canvas := image.NewRGBA(image.Rect(0, 0, leftW+gap+rightW, h+labelHeight))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	left := image.Rect(0, 0, leftW, h)
	right := image.Rect(leftW+gap, 0, leftW+gap+rightW, h)
	if frame != nil {
		draw.ApproxBiLinear.Scale(canvas, left, frame, frame.Bounds(), draw.Src, nil)
	}
	if patternImg != nil {
		// nearest neighbour keeps stripe edges hard
		draw.NearestNeighbor.Scale(canvas, right, patternImg, patternImg.Bounds(), draw.Src, nil)
	}

	label := ""
	if p != nil {
		label = p.Name
	}
	if opts.Status != "" {
		if label != "" {
			label += "  "
		}
		label += opts.Status
	}
	drawLabel(canvas, label, h)
	return canvas
}

func thumbWidth(img image.Image, h int) int {
	if img == nil {
		return 0
	}
	b := img.Bounds()
	if b.Dy() == 0 {
		return 0
	}
	w := b.Dx() * h / b.Dy()
	if w < 1 {
		w = 1
	}
	return w
}

func drawLabel(dst *image.RGBA, text string, thumbHeight int) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 220, B: 0, A: 255}),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(2, thumbHeight+labelHeight-4)
	d.DrawString(text)
}
