package device

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/lehigh-university-libraries/slscollect/internal/pattern"
	"gocv.io/x/gocv"
)

// toMat converts an image to a Mat suitable for IMShow. The caller closes it.
func toMat(img image.Image) (gocv.Mat, error) {
	if g, ok := img.(*image.Gray); ok {
		return gocv.ImageGrayToMatGray(g)
	}
	return gocv.ImageToMatRGB(img)
}

// Projector is the window the patterns are projected through. HighGUI
// paints it on the next WaitKey, which the preview window issues every tick.
type Projector struct {
	name   string
	window *gocv.Window
	closed bool
}

// OpenProjector opens the named window, fullscreen or resizable
func OpenProjector(name string, fullscreen bool) *Projector {
	w := gocv.NewWindow(name)
	if fullscreen {
		w.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
	}
	slog.Info("Projector window opened", "window", name, "fullscreen", fullscreen)
	return &Projector{name: name, window: w}
}

// Show draws p in the projector window
func (p *Projector) Show(pat *pattern.Pattern) error {
	if p.closed {
		return fmt.Errorf("projector %q is closed", p.name)
	}
	mat, err := toMat(pat.Image)
	if err != nil {
		return fmt.Errorf("failed to convert pattern %s: %w", pat.Name, err)
	}
	defer mat.Close()
	p.window.IMShow(mat)
	return nil
}

func (p *Projector) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.window.Close()
}

// PreviewWindow shows the operator preview and is the source of keyboard input
type PreviewWindow struct {
	window *gocv.Window
	closed bool
}

func OpenPreview(name string) *PreviewWindow {
	return &PreviewWindow{window: gocv.NewWindow(name)}
}

func (w *PreviewWindow) Show(img image.Image) error {
	mat, err := toMat(img)
	if err != nil {
		return fmt.Errorf("failed to convert preview: %w", err)
	}
	defer mat.Close()
	w.window.IMShow(mat)
	return nil
}

// Key pumps window events for every open window and returns the key
// pressed, or -1.
func (w *PreviewWindow) Key() int {
	return w.window.WaitKey(1)
}

// Poll makes the window a key source
func (w *PreviewWindow) Poll() (int, bool) {
	k := w.Key()
	return k, k >= 0
}

func (w *PreviewWindow) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.window.Close()
}
