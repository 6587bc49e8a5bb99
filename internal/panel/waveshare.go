package panel

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	xdraw "golang.org/x/image/draw"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"
)

// WaveshareOptions configures the SPI-attached Waveshare HAT.
type WaveshareOptions struct {
	// SPI is the periph port name; empty selects the first port.
	SPI string
}

// Waveshare drives a Waveshare 2.13" V4 e-paper HAT over SPI. The panel is put to
// sleep after every refresh and keeps the image without power.
type Waveshare struct {
	port spi.PortCloser
	dev  *waveshare2in13v4.Dev
	log  *zap.SugaredLogger

	delay time.Duration
}

// OpenWaveshare initialises the host drivers, opens the SPI port and wakes the panel.
func OpenWaveshare(opts WaveshareOptions, delay time.Duration, log *zap.SugaredLogger) (*Waveshare, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(opts.SPI)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", opts.SPI, err)
	}

	hat := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &hat)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to create e-paper device: %w", err)
	}

	if err := dev.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to initialize e-paper: %w", err)
	}

	return &Waveshare{port: port, dev: dev, log: log, delay: delay}, nil
}

func (w *Waveshare) Name() string { return KindWaveshare }

func (w *Waveshare) Bounds() image.Rectangle { return w.dev.Bounds() }

func (w *Waveshare) TimeToRefresh() time.Duration { return w.delay }

// Refresh draws a full frame. A landscape frame is rotated for the portrait controller.
func (w *Waveshare) Refresh(ctx context.Context, frame image.Image) error {
	bounds := w.dev.Bounds()
	fb := frame.Bounds()
	if fb.Dx() > fb.Dy() && bounds.Dy() > bounds.Dx() {
		frame = Rotate90(frame)
	}

	img := image1bit.NewVerticalLSB(bounds)
	xdraw.Draw(img, bounds, Fit(frame, bounds), bounds.Min, xdraw.Src)

	if err := w.dev.Init(); err != nil {
		return fmt.Errorf("failed to wake e-paper: %w", err)
	}
	if err := w.dev.Clear(color.White); err != nil {
		return fmt.Errorf("failed to clear e-paper: %w", err)
	}
	if err := w.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("failed to draw e-paper: %w", err)
	}
	if err := w.dev.Sleep(); err != nil {
		w.log.Warnw("Failed to put e-paper to sleep", "error", err)
	}
	return nil
}

// Close halts the device and releases the SPI port.
func (w *Waveshare) Close() error {
	if err := w.dev.Halt(); err != nil {
		w.log.Warnw("Failed to halt e-paper", "error", err)
	}
	return w.port.Close()
}
