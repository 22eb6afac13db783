package pattern

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/slscollect/internal/models"
)

func pixels(t *testing.T, p *Pattern) []byte {
	t.Helper()
	switch img := p.Image.(type) {
	case *image.Gray:
		return img.Pix
	case *image.RGBA:
		return img.Pix
	default:
		t.Fatalf("unexpected image type %T for %s", p.Image, p.Name)
		return nil
	}
}

func TestBuildCatalogIsDeterministic(t *testing.T) {
	a := BuildCatalog(64, 48)
	b := BuildCatalog(64, 48)

	if a.Len() != b.Len() {
		t.Fatalf("Expected equal lengths, got %d and %d", a.Len(), b.Len())
	}
	for i := range a.Patterns {
		pa, pb := a.At(i), b.At(i)
		if pa.Name != pb.Name || pa.Mode != pb.Mode {
			t.Errorf("index %d: %s/%s vs %s/%s", i, pa.Name, pa.Mode, pb.Name, pb.Mode)
		}
		if !bytes.Equal(pixels(t, pa), pixels(t, pb)) {
			t.Errorf("index %d (%s): pixel buffers differ", i, pa.Name)
		}
	}
}

func TestBuildCatalogOrderAndLength(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		passingLevels int
	}{
		{"full hd", 1920, 1080, 11},
		{"square 1024", 1024, 1024, 11},
		{"square 2048", 2048, 2048, 12},
		{"tiny square", 5, 5, 3},
		{"single pixel", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := BuildCatalog(tt.width, tt.height)
			if c.At(0).Name != BlackName || c.At(1).Name != WhiteName {
				t.Fatalf("Expected black, white first, got %v", c.Names()[:2])
			}
			for _, p := range c.Patterns[:2] {
				if p.Mode != models.Color {
					t.Errorf("%s: expected color mode", p.Name)
				}
				if p.Width() != tt.width || p.Height() != tt.height {
					t.Errorf("%s: expected %dx%d, got %dx%d", p.Name, tt.width, tt.height, p.Width(), p.Height())
				}
			}
			want := 2 + 2*tt.passingLevels
			if c.Len() != want {
				t.Errorf("Expected %d patterns, got %d: %v", want, c.Len(), c.Names())
			}
			if ExpectedLen(tt.width, tt.height) != c.Len() {
				t.Errorf("ExpectedLen = %d, catalog has %d", ExpectedLen(tt.width, tt.height), c.Len())
			}
			if len(c.Omitted) != MaxLevel+1-tt.passingLevels {
				t.Errorf("Expected %d omitted levels, got %v", MaxLevel+1-tt.passingLevels, c.Omitted)
			}
		})
	}
}

func TestBuildCatalogNamesAreUniqueAndOrdered(t *testing.T) {
	c := BuildCatalog(320, 240)
	seen := make(map[string]bool)
	for i, name := range c.Names() {
		if seen[name] {
			t.Errorf("duplicate name %s", name)
		}
		seen[name] = true
		if i < 2 {
			continue
		}
		// stripes alternate vert, horz starting at index 2
		prefix := "vert-"
		if i%2 == 1 {
			prefix = "horz-"
		}
		if !strings.HasPrefix(name, prefix) {
			t.Errorf("index %d: expected %s prefix, got %s", i, prefix, name)
		}
		if c.At(i).Mode != models.Gray {
			t.Errorf("%s: expected gray mode", name)
		}
	}
}

func TestBuildCatalogFullHD(t *testing.T) {
	c := BuildCatalog(1920, 1080)
	names := c.Names()

	if names[2] != "vert-L00-1920x1080" {
		t.Errorf("Expected vert-L00-1920x1080 at index 2, got %s", names[2])
	}
	if names[3] != "horz-L00-1920x1080" {
		t.Errorf("Expected horz-L00-1920x1080 at index 3, got %s", names[3])
	}

	// level 0 is one black region filling the frame
	vert := c.At(2).Image.(*image.Gray)
	if vert.Bounds() != image.Rect(0, 0, 1920, 1080) {
		t.Errorf("Expected 1920x1080, got %v", vert.Bounds())
	}
	for _, v := range vert.Pix {
		if v != 0 {
			t.Fatal("Expected level 0 vertical pattern to be entirely black")
		}
	}
	horz := c.At(3).Image.(*image.Gray)
	if horz.Bounds() != image.Rect(0, 0, 1920, 1080) {
		t.Errorf("Expected 1920x1080, got %v", horz.Bounds())
	}

	// 1920/2^11 rounds to zero, so level 10 is the densest drawn
	if names[len(names)-1] != "horz-L10-1920x1080" {
		t.Errorf("Expected last pattern horz-L10-1920x1080, got %s", names[len(names)-1])
	}
	if len(c.Omitted) != 1 || c.Omitted[0] != 11 {
		t.Errorf("Expected level 11 omitted, got %v", c.Omitted)
	}
}

func TestBuildCatalogTinyResolution(t *testing.T) {
	c := BuildCatalog(5, 5)
	present := make(map[string]bool)
	for _, name := range c.Names() {
		present[name] = true
	}

	for _, name := range []string{"vert-L00-0005x0005", "horz-L00-0005x0005", "vert-L01-0005x0005", "horz-L01-0005x0005"} {
		if !present[name] {
			t.Errorf("Expected %s in catalog %v", name, c.Names())
		}
	}
	for _, name := range []string{"vert-L03-0005x0005", "horz-L03-0005x0005", "vert-L11-0005x0005"} {
		if present[name] {
			t.Errorf("Expected %s to be omitted", name)
		}
	}
}

func TestBuildCatalogNonSquare(t *testing.T) {
	// width 8 fits levels 0..3, height 2 fits levels 0..1
	c := BuildCatalog(8, 2)
	expected := []string{
		"black", "white",
		"vert-L00-0008x0002", "horz-L00-0008x0002",
		"vert-L01-0008x0002", "horz-L01-0008x0002",
		"vert-L02-0008x0002",
		"vert-L03-0008x0002",
	}
	names := c.Names()
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("index %d: expected %s, got %s", i, expected[i], names[i])
		}
	}
	if ExpectedLen(8, 2) != len(expected) {
		t.Errorf("ExpectedLen(8, 2) = %d, expected %d", ExpectedLen(8, 2), len(expected))
	}
}

func TestCatalogAtOutOfRange(t *testing.T) {
	c := BuildCatalog(4, 4)
	if c.At(-1) != nil || c.At(c.Len()) != nil {
		t.Error("Expected nil for out of range index")
	}
}
