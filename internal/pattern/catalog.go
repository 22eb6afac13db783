package pattern

import "fmt"

// MaxLevel is the densest stripe level attempted by BuildCatalog
const MaxLevel = 11

const (
	BlackName = "black"
	WhiteName = "white"
)

// Catalog is the ordered list of patterns projected during one session
type Catalog struct {
	Width    int
	Height   int
	Patterns []*Pattern
	// Omitted lists levels for which neither orientation could be drawn
	Omitted []int
}

// BuildCatalog returns black, white, then the vertical and horizontal
// stripes for every level in 0..MaxLevel that fits the resolution.
// Levels that do not fit are skipped; the loop always runs to MaxLevel.
func BuildCatalog(width, height int) *Catalog {
	c := &Catalog{
		Width:  width,
		Height: height,
		Patterns: []*Pattern{
			Solid(BlackName, black, width, height),
			Solid(WhiteName, white, width, height),
		},
	}

	for level := 0; level <= MaxLevel; level++ {
		added := false
		if p, ok := VerticalStripes(level, width, height); ok {
			p.Name = StripeName("vert", level, width, height)
			c.Patterns = append(c.Patterns, p)
			added = true
		}
		if p, ok := HorizontalStripes(level, width, height); ok {
			p.Name = StripeName("horz", level, width, height)
			c.Patterns = append(c.Patterns, p)
			added = true
		}
		if !added {
			c.Omitted = append(c.Omitted, level)
		}
	}

	return c
}

// StripeName formats a stripe pattern name, e.g. vert-L03-1920x1080
func StripeName(orientation string, level, width, height int) string {
	return fmt.Sprintf("%s-L%02d-%04dx%04d", orientation, level, width, height)
}

// ExpectedLen is the number of patterns BuildCatalog produces for a
// resolution, for tools checking a session directory for completeness.
func ExpectedLen(width, height int) int {
	n := 2
	for level := 0; level <= MaxLevel; level++ {
		if ColumnWidth(level, width) > 0 && height > 0 {
			n++
		}
		if ColumnWidth(level, height) > 0 && width > 0 {
			n++
		}
	}
	return n
}

// Len returns the number of patterns in the catalog
func (c *Catalog) Len() int {
	return len(c.Patterns)
}

// At returns the pattern at index i, or nil when i is out of range
func (c *Catalog) At(i int) *Pattern {
	if i < 0 || i >= len(c.Patterns) {
		return nil
	}
	return c.Patterns[i]
}

// Names returns the pattern names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		names[i] = p.Name
	}
	return names
}
