package pattern

import (
	"image"
	"testing"

	"github.com/lehigh-university-libraries/slscollect/internal/models"
)

func TestColumnWidth(t *testing.T) {
	tests := []struct {
		name  string
		level int
		width int
		want  int
	}{
		{"level zero is full width", 0, 1920, 1920},
		{"level three", 3, 1920, 240},
		{"floors", 3, 1000, 125},
		{"floors odd", 1, 5, 2},
		{"too dense", 3, 5, 0},
		{"negative level", -1, 100, 0},
		{"zero width", 0, 0, 0},
		{"huge level", 200, 1 << 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColumnWidth(tt.level, tt.width); got != tt.want {
				t.Errorf("ColumnWidth(%d, %d) = %d, expected %d", tt.level, tt.width, got, tt.want)
			}
		})
	}
}

func TestStripesAbsentWhenColumnWidthIsZero(t *testing.T) {
	for level := 0; level <= 20; level++ {
		for _, width := range []int{1, 3, 5, 17, 640} {
			if ColumnWidth(level, width) != 0 {
				continue
			}
			if p, ok := VerticalStripes(level, width, 10); ok || p != nil {
				t.Errorf("VerticalStripes(%d, %d, 10) returned a pattern", level, width)
			}
			// horizontal stripes are laid out along the height
			if p, ok := HorizontalStripes(level, 10, width); ok || p != nil {
				t.Errorf("HorizontalStripes(%d, 10, %d) returned a pattern", level, width)
			}
		}
	}
}

func TestVerticalStripesLayout(t *testing.T) {
	tests := []struct {
		level, width, height int
	}{
		{0, 16, 4},
		{1, 16, 4},
		{2, 16, 3},
		{3, 20, 2},
		{1, 5, 5},
		{0, 1920, 2},
		{9, 1920, 1},
	}

	for _, tt := range tests {
		p, ok := VerticalStripes(tt.level, tt.width, tt.height)
		if !ok {
			t.Fatalf("VerticalStripes(%d, %d, %d) returned no pattern", tt.level, tt.width, tt.height)
		}
		if p.Mode != models.Gray {
			t.Errorf("Expected gray mode, got %s", p.Mode)
		}
		img := p.Image.(*image.Gray)
		if img.Bounds().Dx() != tt.width || img.Bounds().Dy() != tt.height {
			t.Fatalf("Expected %dx%d, got %v", tt.width, tt.height, img.Bounds())
		}

		colWidth := ColumnWidth(tt.level, tt.width)
		for y := 0; y < tt.height; y++ {
			for x := 0; x < tt.width; x++ {
				want := uint8(0)
				if (x/colWidth)%2 == 1 {
					want = 255
				}
				if got := img.GrayAt(x, y).Y; got != want {
					t.Fatalf("level %d %dx%d: pixel (%d,%d) = %d, expected %d", tt.level, tt.width, tt.height, x, y, got, want)
				}
			}
		}
		if img.GrayAt(0, 0).Y != 0 {
			t.Errorf("Expected column 0 to be black")
		}
	}
}

func TestVerticalStripesClipsOvershootColumn(t *testing.T) {
	// 5 px at level 1: columns of 2 px, 5/2+1 = 3 columns drawn, the last clipped to 1 px
	p, ok := VerticalStripes(1, 5, 1)
	if !ok {
		t.Fatal("Expected a pattern")
	}
	img := p.Image.(*image.Gray)
	expected := []uint8{0, 0, 255, 255, 0}
	for x, want := range expected {
		if got := img.GrayAt(x, 0).Y; got != want {
			t.Errorf("x=%d: got %d, expected %d", x, got, want)
		}
	}
}

func TestHorizontalStripesLayout(t *testing.T) {
	p, ok := HorizontalStripes(1, 3, 8)
	if !ok {
		t.Fatal("Expected a pattern")
	}
	img := p.Image.(*image.Gray)
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 8 {
		t.Fatalf("Expected 3x8, got %v", img.Bounds())
	}

	// rows counted from the bottom follow the vertical profile for length 8
	profile := []uint8{0, 0, 0, 0, 255, 255, 255, 255}
	for i, want := range profile {
		y := 7 - i
		for x := 0; x < 3; x++ {
			if got := img.GrayAt(x, y).Y; got != want {
				t.Errorf("pixel (%d,%d) = %d, expected %d", x, y, got, want)
			}
		}
	}
}

func TestHorizontalIsRotatedVertical(t *testing.T) {
	width, height := 12, 7
	for level := 0; level <= 3; level++ {
		h, hok := HorizontalStripes(level, width, height)
		v, vok := VerticalStripes(level, height, width)
		if hok != vok {
			t.Fatalf("level %d: horizontal ok=%v, vertical ok=%v", level, hok, vok)
		}
		if !hok {
			continue
		}
		himg := h.Image.(*image.Gray)
		vimg := v.Image.(*image.Gray)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if himg.GrayAt(x, y).Y != vimg.GrayAt(height-1-y, x).Y {
					t.Fatalf("level %d: mismatch at (%d,%d)", level, x, y)
				}
			}
		}
	}
}

func TestSolid(t *testing.T) {
	p := Solid("white", 255, 4, 3)
	if p.Mode != models.Color {
		t.Errorf("Expected color mode, got %s", p.Mode)
	}
	if p.Width() != 4 || p.Height() != 3 {
		t.Errorf("Expected 4x3, got %dx%d", p.Width(), p.Height())
	}
	img := p.Image.(*image.RGBA)
	for i, v := range img.Pix {
		if v != 255 {
			t.Fatalf("Pix[%d] = %d, expected 255", i, v)
		}
	}
}
