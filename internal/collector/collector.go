package collector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/slscollect/internal/capture"
	"github.com/lehigh-university-libraries/slscollect/internal/config"
	"github.com/lehigh-university-libraries/slscollect/internal/models"
	"github.com/lehigh-university-libraries/slscollect/internal/pattern"
	"github.com/lehigh-university-libraries/slscollect/internal/preview"
	"github.com/lehigh-university-libraries/slscollect/internal/storage"
	"github.com/lehigh-university-libraries/slscollect/internal/trigger"
)

// Camera is a capture.Camera that knows its frame size
type Camera interface {
	capture.Camera
	Size() (width, height int)
}

// Screen is the operator preview. Polling it also pumps window events.
type Screen interface {
	trigger.Source
	Show(img image.Image) error
	Close() error
}

// Devices are the opened collaborators the collector takes ownership of
type Devices struct {
	Camera    Camera
	Projector capture.Display
	Preview   Screen
	// Triggers are extra key sources, e.g. a serial trigger box
	Triggers []trigger.Source
}

// Collector is the host loop: each tick it refreshes the preview, handles
// keys and advances the capture machine by one step.
type Collector struct {
	cfg      *config.Config
	devices  Devices
	store    *storage.FrameStore
	catalog  *pattern.Catalog
	machine  *capture.Machine
	bindings trigger.Bindings
	// running is the start time of the session seen on the last tick
	running  int64
	closed   bool
}

// New builds the catalog at the camera's frame size and the capture
// machine around devs. The collector releases devs on Close.
func New(cfg *config.Config, devs Devices, store *storage.FrameStore, opts ...capture.Option) *Collector {
	w, h := devs.Camera.Size()
	catalog := pattern.BuildCatalog(w, h)
	for _, level := range catalog.Omitted {
		slog.Warn("Stripe level omitted, columns too small", "level", level, "width", w, "height", h)
	}
	slog.Info("Pattern catalog built", "width", w, "height", h, "patterns", catalog.Len())

	opts = append([]capture.Option{capture.WithSettle(cfg.Capture.Settle)}, opts...)
	return &Collector{
		cfg:     cfg,
		devices: devs,
		store:   store,
		catalog: catalog,
		machine: capture.NewMachine(devs.Camera, devs.Projector, catalog, store, opts...),
		bindings: trigger.Bindings{
			Start: cfg.Keys.Start,
			Stop:  cfg.Keys.Stop,
			Quit:  cfg.Keys.Quit,
		},
	}
}

func (c *Collector) Machine() *capture.Machine {
	return c.machine
}

func (c *Collector) Catalog() *pattern.Catalog {
	return c.catalog
}

// Run ticks until the quit key is pressed, ctx is cancelled or a device
// fails. Cancellation is not an error.
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Preview.Interval)
	defer ticker.Stop()

	slog.Info("Ready", "start_keys", c.cfg.Keys.Start, "stop_keys", c.cfg.Keys.Stop, "quit_key", c.cfg.Keys.Quit)
	for {
		quit, err := c.Tick()
		if err != nil || quit {
			return err
		}
		select {
		case <-ctx.Done():
			slog.Info("Interrupted, stopping")
			c.machine.Stop()
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one iteration of the host loop and reports whether the
// operator asked to quit.
func (c *Collector) Tick() (bool, error) {
	defer c.trackSession()

	frame, err := c.devices.Camera.ReadFrame()
	if err != nil {
		c.machine.Stop()
		return false, fmt.Errorf("preview: %w", err)
	}
	if err := c.showPreview(frame); err != nil {
		slog.Warn("Failed to refresh preview", "error", err)
	}

	for _, action := range c.pollKeys() {
		switch action {
		case trigger.Start:
			c.start()
		case trigger.Stop:
			c.machine.Stop()
		case trigger.Quit:
			c.machine.Stop()
			return true, nil
		}
	}

	if err := c.machine.Step(); err != nil {
		if errors.Is(err, capture.ErrPersist) {
			slog.Warn("Failed to write frame, retrying", "error", err)
			return false, nil
		}
		c.machine.Stop()
		return false, err
	}
	return false, nil
}

// trackSession reports a session once it has ended, finished or not
func (c *Collector) trackSession() {
	start := c.machine.StartMillis()
	if start == c.running {
		return
	}
	if c.running != 0 {
		files := c.store.Files(c.running)
		slog.Info("Session ended",
			"start_ms", c.running,
			"files", len(files),
			"expected", c.catalog.Len(),
			"complete", len(files) == c.catalog.Len())
		c.store.Forget(c.running)
	}
	c.running = start
}

func (c *Collector) pollKeys() []trigger.Action {
	var actions []trigger.Action
	sources := append([]trigger.Source{c.devices.Preview}, c.devices.Triggers...)
	for _, src := range sources {
		if src == nil {
			continue
		}
		key, ok := src.Poll()
		if !ok {
			continue
		}
		if a := c.bindings.Decode(key); a != trigger.None {
			slog.Debug("Key pressed", "key", key, "action", a.String())
			actions = append(actions, a)
		}
	}
	return actions
}

func (c *Collector) start() {
	c.checkFreeSpace()
	if err := c.machine.Start(); err != nil {
		if errors.Is(err, capture.ErrSessionActive) {
			slog.Info("Session already running", "start_ms", c.machine.StartMillis())
			return
		}
		slog.Error("Failed to start session", "error", err)
	}
}

// checkFreeSpace warns when a session would leave less than the configured margin
func (c *Collector) checkFreeSpace() {
	free, err := c.store.FreeBytes()
	if err != nil {
		slog.Debug("Cannot determine free space", "error", err)
		return
	}
	need := storage.EstimateBytes(c.catalog) + uint64(c.cfg.Capture.MinFreeMB)<<20
	if free < need {
		slog.Warn("Output directory is low on space",
			"dir", c.store.Dir(),
			"free_mb", free>>20,
			"needed_mb", need>>20)
	}
}

func (c *Collector) showPreview(frame models.Frame) error {
	if c.devices.Preview == nil {
		return nil
	}
	mode := models.Color
	p := c.machine.Current()
	if p != nil {
		mode = p.Mode
	}
	img := preview.Compose(frame.For(mode), p, preview.Options{
		Height: c.cfg.Preview.Height,
		Status: c.status(),
	})
	return c.devices.Preview.Show(img)
}

func (c *Collector) status() string {
	switch m := c.machine.Mode(); m {
	case capture.Idle:
		return "idle"
	default:
		return fmt.Sprintf("%s %d/%d", m, c.machine.Cursor()+1, c.catalog.Len())
	}
}

// Close stops any session and releases every device
func (c *Collector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	errs := []error{c.machine.Close()}
	if c.devices.Preview != nil {
		errs = append(errs, c.devices.Preview.Close())
	}
	for _, t := range c.devices.Triggers {
		if closer, ok := t.(interface{ Close() error }); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
