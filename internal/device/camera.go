package device

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"

	"github.com/lehigh-university-libraries/slscollect/internal/models"
	"gocv.io/x/gocv"
)

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrStreamEnded       = errors.New("stream ended")
)

// Camera is a gocv capture device that reports frames in both colour and grayscale
type Camera struct {
	id       string
	capture  *gocv.VideoCapture
	mat      gocv.Mat
	gray     gocv.Mat
	width    int
	height   int
	released bool
}

// OpenCamera opens id, a numeric device index or a device path / stream URL,
// and requests width x height when both are positive.
func OpenCamera(id string, width, height int) (*Camera, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if index, convErr := strconv.Atoi(id); convErr == nil {
		capture, err = gocv.VideoCaptureDevice(index)
	} else {
		capture, err = gocv.VideoCaptureFile(id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCameraUnavailable, id, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrCameraUnavailable, id)
	}

	if width > 0 && height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	c := &Camera{
		id:      id,
		capture: capture,
		mat:     gocv.NewMat(),
		gray:    gocv.NewMat(),
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}

	slog.Info("Camera opened", "camera", id, "width", c.width, "height", c.height)
	return c, nil
}

// Probe reads one frame when the backend did not report a frame size on
// open; some backends only know it once a frame has been decoded.
func (c *Camera) Probe() error {
	if c.width > 0 && c.height > 0 {
		return nil
	}
	if _, err := c.ReadFrame(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCameraUnavailable, c.id, err)
	}
	slog.Info("Camera size probed", "camera", c.id, "width", c.width, "height", c.height)
	return nil
}

// Size is the negotiated frame size
func (c *Camera) Size() (int, int) {
	return c.width, c.height
}

func (c *Camera) IsOpen() bool {
	return !c.released && c.capture.IsOpened()
}

// ReadFrame grabs the next frame. The colour image is RGBA converted from
// the device's BGR order.
func (c *Camera) ReadFrame() (models.Frame, error) {
	if c.released {
		return models.Frame{}, fmt.Errorf("%w: camera %s released", ErrStreamEnded, c.id)
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return models.Frame{}, fmt.Errorf("%w: camera %s", ErrStreamEnded, c.id)
	}
	c.width, c.height = c.mat.Cols(), c.mat.Rows()

	colour, err := c.mat.ToImage()
	if err != nil {
		return models.Frame{}, fmt.Errorf("failed to convert frame: %w", err)
	}

	frame := models.Frame{Color: colour}
	if c.mat.Channels() == 1 {
		if g, ok := colour.(*image.Gray); ok {
			frame.Gray = g
		}
		return frame, nil
	}

	gocv.CvtColor(c.mat, &c.gray, gocv.ColorBGRToGray)
	grayImg, err := c.gray.ToImage()
	if err != nil {
		return models.Frame{}, fmt.Errorf("failed to convert grayscale frame: %w", err)
	}
	if g, ok := grayImg.(*image.Gray); ok {
		frame.Gray = g
	}
	return frame, nil
}

// Release closes the device and its buffers. Safe to call more than once.
func (c *Camera) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	return errors.Join(
		c.mat.Close(),
		c.gray.Close(),
		c.capture.Close(),
	)
}
