package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/slscollect/internal/models"
	"github.com/lehigh-university-libraries/slscollect/internal/pattern"
)

// DefaultSettle is how long a pattern stays on the projector before a frame is taken
const DefaultSettle = 500 * time.Millisecond

var (
	ErrSessionActive     = errors.New("capture session already running")
	ErrEmptyCatalog      = errors.New("pattern catalog is empty")
	ErrClosed            = errors.New("capture machine closed")
	ErrIllegalTransition = errors.New("illegal mode transition")
	ErrAcquisition       = errors.New("frame acquisition failed")
	ErrCameraClosed      = errors.New("camera is not open")
	ErrProjection        = errors.New("pattern projection failed")
	ErrPersist           = errors.New("frame persistence failed")
)

// Camera delivers frames from an opened capture device
type Camera interface {
	IsOpen() bool
	ReadFrame() (models.Frame, error)
	Release() error
}

// Display puts a pattern on the projection surface
type Display interface {
	Show(p *pattern.Pattern) error
	Close() error
}

// FrameWriter persists the frame captured for catalog entry index
type FrameWriter interface {
	Save(startMillis int64, index int, p *pattern.Pattern, frame models.Frame) (string, error)
}

// Session is the state of one pass through the catalog
type Session struct {
	StartMillis int64
	OutputDir   string
	Cursor      int
	Mode        Mode

	deadline time.Time
	pending  *models.Frame
	written  []string
}

// Machine sequences project, settle and capture for every catalog entry.
//
// The machine never blocks or spawns goroutines: the host loop calls Step
// repeatedly and the settle interval is measured between those calls.
// Only one goroutine may use a Machine.
type Machine struct {
	camera  Camera
	display Display
	writer  FrameWriter
	catalog *pattern.Catalog

	settle time.Duration
	now    func() time.Time

	session *Session
	closed  bool
}

type Option func(*Machine)

// WithSettle overrides the settle interval
func WithSettle(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.settle = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine takes ownership of camera and display; both are released by Close
func NewMachine(camera Camera, display Display, catalog *pattern.Catalog, writer FrameWriter, opts ...Option) *Machine {
	m := &Machine{
		camera:  camera,
		display: display,
		writer:  writer,
		catalog: catalog,
		settle:  DefaultSettle,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the current mode; Idle when no session is running
func (m *Machine) Mode() Mode {
	if m.session == nil {
		return Idle
	}
	return m.session.Mode
}

// Cursor returns the catalog index being worked on, 0 when idle
func (m *Machine) Cursor() int {
	if m.session == nil {
		return 0
	}
	return m.session.Cursor
}

// StartMillis returns the running session's start time, 0 when idle
func (m *Machine) StartMillis() int64 {
	if m.session == nil {
		return 0
	}
	return m.session.StartMillis
}

// Current returns the pattern selected by the cursor
func (m *Machine) Current() *pattern.Pattern {
	return m.catalog.At(m.Cursor())
}

func (m *Machine) Catalog() *pattern.Catalog {
	return m.catalog
}

// Settle returns the configured settle interval
func (m *Machine) Settle() time.Duration {
	return m.settle
}

// Written returns the files written by the running session
func (m *Machine) Written() []string {
	if m.session == nil {
		return nil
	}
	result := make([]string, len(m.session.written))
	copy(result, m.session.written)
	return result
}

// Start begins a new session at the first catalog entry
func (m *Machine) Start() error {
	if m.closed {
		return ErrClosed
	}
	if m.session != nil {
		return ErrSessionActive
	}
	if m.catalog == nil || m.catalog.Len() == 0 {
		return ErrEmptyCatalog
	}

	m.session = &Session{
		StartMillis: m.now().UnixMilli(),
		Mode:        Idle,
	}
	if d, ok := m.writer.(interface{ Dir() string }); ok {
		m.session.OutputDir = d.Dir()
	}
	if err := m.transition(Projecting); err != nil {
		m.session = nil
		return err
	}

	slog.Info("Capture session started",
		"start_ms", m.session.StartMillis,
		"patterns", m.catalog.Len(),
		"output", m.session.OutputDir)
	return nil
}

// Step advances the session by at most one transition. It is a no-op
// when idle and while the settle deadline has not passed.
//
// An ErrAcquisition error means the camera failed and the session should
// be stopped. An ErrPersist error leaves the machine in Settling with the
// captured frame kept, so the next Step retries the write.
func (m *Machine) Step() error {
	s := m.session
	if s == nil {
		return nil
	}

	switch s.Mode {
	case Projecting:
		p := m.catalog.At(s.Cursor)
		if err := m.display.Show(p); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrProjection, p.Name, err)
		}
		s.deadline = m.now().Add(m.settle)
		slog.Debug("Projecting pattern", "index", s.Cursor, "pattern", p.Name)
		return m.transition(Settling)
	case Settling:
		if m.now().Before(s.deadline) {
			return nil
		}
		return m.capture()
	default:
		return fmt.Errorf("%w: step in %s", ErrIllegalTransition, s.Mode)
	}
}

func (m *Machine) capture() error {
	s := m.session
	p := m.catalog.At(s.Cursor)

	if s.pending == nil {
		if !m.camera.IsOpen() {
			return fmt.Errorf("%w: %w", ErrAcquisition, ErrCameraClosed)
		}
		frame, err := m.camera.ReadFrame()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAcquisition, p.Name, err)
		}
		s.pending = &frame
	}

	path, err := m.writer.Save(s.StartMillis, s.Cursor, p, *s.pending)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, p.Name, err)
	}
	s.pending = nil
	s.written = append(s.written, path)
	slog.Info("Captured pattern", "index", s.Cursor, "pattern", p.Name, "path", path)

	s.Cursor++
	if s.Cursor < m.catalog.Len() {
		return m.transition(Projecting)
	}

	if err := m.transition(Done); err != nil {
		return err
	}
	slog.Info("Capture session complete", "start_ms", s.StartMillis, "files", len(s.written))
	return m.transition(Idle)
}

// Stop abandons the running session without writing the in-flight frame.
// It does nothing when idle.
func (m *Machine) Stop() {
	if m.session == nil {
		return
	}
	s := m.session
	if err := m.transition(Idle); err != nil {
		slog.Error("Failed to stop capture session", "error", err)
		m.session = nil
		return
	}
	slog.Info("Capture session stopped", "start_ms", s.StartMillis, "cursor", s.Cursor, "files", len(s.written))
}

// Close stops any session and releases the camera and display.
// Calling Close more than once is safe.
func (m *Machine) Close() error {
	m.Stop()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if m.camera != nil {
		if err := m.camera.Release(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release camera: %w", err))
		}
	}
	if m.display != nil {
		if err := m.display.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close display: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (m *Machine) transition(to Mode) error {
	from := m.Mode()
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	slog.Debug("Capture mode", "from", from.String(), "to", to.String())

	if to == Idle {
		m.session = nil
		return nil
	}
	m.session.Mode = to
	return nil
}
