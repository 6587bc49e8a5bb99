package panel

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sabarrett328/SBMagtag-Weather/internal/db"
)

// framesKept bounds the frame history kept in the database.
const framesKept = 24

// File emulates a panel by writing each frame as a PNG. The file is replaced
// atomically, so a reader never sees a half-written frame, and a failed cycle leaves
// the previous image in place like real e-ink does.
type File struct {
	path  string
	size  image.Point
	delay time.Duration
	store *db.DB
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewFile creates a file panel. store may be nil, in which case no history is kept.
func NewFile(path string, size image.Point, delay time.Duration, store *db.DB, log *zap.SugaredLogger) *File {
	if path == "" {
		path = "frame.png"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &File{path: path, size: size, delay: delay, store: store, log: log, now: time.Now}
}

func (f *File) Name() string { return KindFile }

func (f *File) Bounds() image.Rectangle { return image.Rectangle{Max: f.size} }

func (f *File) TimeToRefresh() time.Duration { return f.delay }

// Path is where the current frame lives.
func (f *File) Path() string { return f.path }

func (f *File) Refresh(ctx context.Context, frame image.Image) error {
	if !f.size.Eq(image.Point{}) && !frame.Bounds().Size().Eq(f.size) {
		frame = Fit(frame, f.Bounds())
	}

	data, err := EncodePNG(frame)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(f.path, data); err != nil {
		return err
	}

	// The frame is on the panel now; history is best effort.
	if f.store == nil {
		return nil
	}
	size := frame.Bounds().Size()
	if err := f.store.SaveFrame(db.Frame{Panel: KindFile, Width: size.X, Height: size.Y, PNG: data, CreatedAt: f.now()}); err != nil {
		f.log.Warnw("Failed to store frame history", "error", err)
		return nil
	}
	if err := f.store.PruneFrames(KindFile, framesKept); err != nil {
		f.log.Warnw("Failed to prune frame history", "error", err)
	}
	return nil
}

// LastFrame returns what the panel is showing and when it was drawn: the newest
// stored frame, or the file on disk when no history is kept. A blank panel gives a
// nil image and a zero time.
func (f *File) LastFrame() (image.Image, time.Time, error) {
	var (
		data []byte
		at   time.Time
	)
	if f.store != nil {
		fr, err := f.store.LastFrame(KindFile)
		if err != nil {
			return nil, time.Time{}, err
		}
		if fr != nil {
			data, at = fr.PNG, fr.CreatedAt
		}
	}
	if data == nil {
		info, err := os.Stat(f.path)
		if os.IsNotExist(err) {
			return nil, time.Time{}, nil
		}
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("stat frame: %w", err)
		}
		b, err := os.ReadFile(f.path)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("read frame: %w", err)
		}
		data, at = b, info.ModTime()
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decode frame: %w", err)
	}
	return img, at, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace frame: %w", err)
	}
	return nil
}
