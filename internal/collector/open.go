package collector

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/slscollect/internal/capture"
	"github.com/lehigh-university-libraries/slscollect/internal/config"
	"github.com/lehigh-university-libraries/slscollect/internal/storage"
	"github.com/lehigh-university-libraries/slscollect/internal/trigger"
)

// Opener opens the devices a collector runs on
type Opener struct {
	Camera    func(id string, width, height int) (Camera, error)
	Projector func(name string, fullscreen bool) capture.Display
	Preview   func(name string) Screen
	// Trigger is only called when a serial device is configured
	Trigger func(device string, baud int) (trigger.Source, error)
}

// prober is a camera that may need a frame to learn its size
type prober interface {
	Probe() error
}

// Open opens the camera, then checks the output directory before any
// frame is read, then opens the trigger and windows. Everything opened so
// far is released when a later step fails.
func Open(cameraID, outputDir string, cfg *config.Config, o Opener) (*Collector, error) {
	camera, err := o.Camera(cameraID, cfg.Capture.Width, cfg.Capture.Height)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(outputDir)
	if err != nil {
		return nil, errors.Join(err, camera.Release())
	}
	if p, ok := camera.(prober); ok {
		if err := p.Probe(); err != nil {
			return nil, errors.Join(err, camera.Release())
		}
	}

	devs := Devices{Camera: camera}
	if cfg.Trigger.SerialDevice != "" && o.Trigger != nil {
		src, err := o.Trigger(cfg.Trigger.SerialDevice, cfg.Trigger.BaudRate)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("trigger: %w", err), camera.Release())
		}
		devs.Triggers = append(devs.Triggers, src)
	}
	devs.Projector = o.Projector(cfg.Projector.Window, cfg.Projector.Fullscreen)
	devs.Preview = o.Preview(cfg.Preview.Window)

	return New(cfg, devs, store), nil
}
