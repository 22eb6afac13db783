package trigger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

const readTimeout = 100 * time.Millisecond

// SerialSource reads single-byte key codes from a trigger box on a serial
// port. A background reader pushes keys into a small buffer; keys arriving
// while the buffer is full are dropped.
type SerialSource struct {
	port io.ReadCloser
	keys chan int
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// OpenSerial opens device at baud 8N1 and starts reading keys
func OpenSerial(device string, baud int) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s: %w", device, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("cannot set read timeout on %s: %w", device, err)
	}
	slog.Info("Serial trigger opened", "device", device, "baud", baud)
	return newSerialSource(port), nil
}

func newSerialSource(port io.ReadCloser) *SerialSource {
	s := &SerialSource{
		port: port,
		keys: make(chan int, 8),
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.read()
	return s
}

func (s *SerialSource) read() {
	defer s.wg.Done()
	buf := make([]byte, 1)
	for {
		n, err := s.port.Read(buf)
		select {
		case <-s.done:
			return
		default:
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("Serial trigger read failed", "error", err)
			}
			return
		}
		if n == 1 {
			slog.Debug("Trigger key", "key", fmt.Sprintf("0x%02X", buf[0]))
			select {
			case s.keys <- int(buf[0]):
			default:
			}
		}
	}
}

// Poll returns the next buffered key, if any
func (s *SerialSource) Poll() (int, bool) {
	select {
	case k := <-s.keys:
		return k, true
	default:
		return 0, false
	}
}

// Close stops the reader and closes the port
func (s *SerialSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.port.Close()
		s.wg.Wait()
	})
	return err
}
