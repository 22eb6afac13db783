package models

import "image"

// ColorMode selects which channel layout a pattern is projected and persisted in
type ColorMode int

const (
	// Color patterns persist the full-color captured frame
	Color ColorMode = iota
	// Gray patterns persist the grayscale-converted captured frame
	Gray
)

func (m ColorMode) String() string {
	switch m {
	case Color:
		return "color"
	case Gray:
		return "gray"
	default:
		return "unknown"
	}
}

// Frame is one camera acquisition, delivered in both layouts
type Frame struct {
	Color image.Image
	Gray  *image.Gray
}

// Empty reports whether the frame carries no pixels
func (f Frame) Empty() bool {
	return f.Color == nil && f.Gray == nil
}

// For returns the image to persist for a pattern of the given mode
func (f Frame) For(mode ColorMode) image.Image {
	if mode == Gray && f.Gray != nil {
		return f.Gray
	}
	if mode == Gray && f.Color != nil {
		return ToGray(f.Color)
	}
	if f.Color != nil {
		return f.Color
	}
	if f.Gray != nil {
		return f.Gray
	}
	return nil
}

// ToGray converts any image to 8-bit luma using the color.GrayModel weights
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
