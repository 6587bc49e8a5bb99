// Package panel drives the physical (or emulated) e-paper output.
//
// A Panel has bistable memory: whatever was last refreshed stays visible until the
// next successful Refresh, including across process restarts.
package panel

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"

	xdraw "golang.org/x/image/draw"
	"go.uber.org/zap"

	"github.com/sabarrett328/SBMagtag-Weather/internal/db"
)

// Panel is an e-paper output.
type Panel interface {
	Name() string
	// Bounds is the native pixel area. Frames of another size are fitted into it.
	Bounds() image.Rectangle
	// TimeToRefresh is the settle time the panel needs before and after a refresh.
	TimeToRefresh() time.Duration
	// Refresh pushes frame to the panel and blocks until the panel has accepted it.
	Refresh(ctx context.Context, frame image.Image) error
}

// Kinds accepted by Open.
const (
	KindFile      = "file"
	KindQuote0    = "quote0"
	KindWaveshare = "waveshare"
)

// Options carries the settings of every backend; Open reads the ones its kind needs.
type Options struct {
	Kind          string
	TimeToRefresh time.Duration
	Size          image.Point

	Path  string
	Store *db.DB

	Quote0    Quote0Options
	Waveshare WaveshareOptions

	Log *zap.SugaredLogger
}

// Open constructs the panel selected by opts.Kind.
func Open(opts Options) (Panel, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	switch opts.Kind {
	case KindFile, "":
		return NewFile(opts.Path, opts.Size, opts.TimeToRefresh, opts.Store, opts.Log), nil
	case KindQuote0:
		return NewQuote0(opts.Quote0, opts.TimeToRefresh)
	case KindWaveshare:
		return OpenWaveshare(opts.Waveshare, opts.TimeToRefresh, opts.Log)
	}
	return nil, fmt.Errorf("unknown panel kind %q", opts.Kind)
}

// Palette is the two-colour e-ink palette. Index 0 is paper.
var Palette = color.Palette{color.White, color.Black}

// Fit scales src into a canvas of the given bounds, preserving aspect ratio and
// centring it on white. A frame that already matches is copied unchanged.
func Fit(src image.Image, bounds image.Rectangle) *image.Paletted {
	dst := image.NewPaletted(bounds, Palette)
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return dst
	}

	if sb.Dx() <= bounds.Dx() && sb.Dy() <= bounds.Dy() {
		off := image.Pt((bounds.Dx()-sb.Dx())/2, (bounds.Dy()-sb.Dy())/2)
		r := image.Rectangle{Min: bounds.Min.Add(off), Max: bounds.Min.Add(off).Add(sb.Size())}
		xdraw.Draw(dst, r, src, sb.Min, xdraw.Src)
		return dst
	}

	sx := float64(bounds.Dx()) / float64(sb.Dx())
	sy := float64(bounds.Dy()) / float64(sb.Dy())
	scale := sx
	if sy < sx {
		scale = sy
	}
	w, h := int(float64(sb.Dx())*scale), int(float64(sb.Dy())*scale)
	off := image.Pt((bounds.Dx()-w)/2, (bounds.Dy()-h)/2)
	r := image.Rect(0, 0, w, h).Add(bounds.Min).Add(off)
	xdraw.NearestNeighbor.Scale(dst, r, src, sb, xdraw.Src, nil)
	return dst
}

// Rotate90 turns a landscape frame clockwise so it can be shown on a portrait panel.
func Rotate90(src image.Image) *image.Paletted {
	sb := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, sb.Dy(), sb.Dx()), Palette)
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			dst.Set(sb.Max.Y-1-y, x-sb.Min.X, src.At(x, y))
		}
	}
	return dst
}

// EncodePNG encodes a frame with best compression; frames are mostly flat white.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
