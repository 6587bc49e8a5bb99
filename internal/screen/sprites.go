package screen

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/format"
)

// SpriteSheet is a grid of square icon tiles. Tile i sits at column i%cols, row i/cols.
type SpriteSheet struct {
	img   image.Image
	tile  int
	cols  int
	count int
}

// NewSpriteSheet slices img into tile x tile squares. The sheet must hold at least one
// tile per icon prefix.
func NewSpriteSheet(img image.Image, tile int) (*SpriteSheet, error) {
	if tile <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", tile)
	}
	b := img.Bounds()
	cols, rows := b.Dx()/tile, b.Dy()/tile
	s := &SpriteSheet{img: img, tile: tile, cols: cols, count: cols * rows}
	if s.count < len(format.IconMap) {
		return nil, fmt.Errorf("sprite sheet %dx%d holds %d tiles of %dpx, want %d",
			b.Dx(), b.Dy(), s.count, tile, len(format.IconMap))
	}
	return s, nil
}

// LoadSpriteSheet decodes a BMP or PNG sprite sheet from disk.
func LoadSpriteSheet(path string, tile int) (*SpriteSheet, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSpriteSheet(img, tile)
	if err != nil {
		return nil, fault.Wrap(fmt.Errorf("%s: %w", path, err), fault.Config, "sprites")
	}
	return s, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, fault.Config, "sprites")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fault.Wrap(fmt.Errorf("decode %s: %w", path, err), fault.Config, "sprites")
	}
	return img, nil
}

// PlaceholderSheet draws one outlined tile per icon prefix, labelled with the prefix.
// It stands in for the artwork when no sheet is configured.
func PlaceholderSheet(tile int) *SpriteSheet {
	n := len(format.IconMap)
	img := image.NewPaletted(image.Rect(0, 0, tile*n, tile), paperInk)
	m := face.Metrics()
	for i, code := range format.IconMap {
		r := image.Rect(i*tile, 0, (i+1)*tile, tile)
		outline(img, r)

		w := font.MeasureString(face, code).Ceil()
		h := m.Height.Ceil()
		x := r.Min.X + (tile-w)/2
		y := r.Min.Y + (tile-h)/2
		d := font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face, Dot: fixed.P(x, y+m.Ascent.Ceil())}
		d.DrawString(code)
	}
	return &SpriteSheet{img: img, tile: tile, cols: n, count: n}
}

func outline(img *image.Paletted, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetColorIndex(x, r.Min.Y, 1)
		img.SetColorIndex(x, r.Max.Y-1, 1)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetColorIndex(r.Min.X, y, 1)
		img.SetColorIndex(r.Max.X-1, y, 1)
	}
}

// TileSize is the edge length of one tile.
func (s *SpriteSheet) TileSize() int { return s.tile }

// Len is the number of tiles in the sheet.
func (s *SpriteSheet) Len() int { return s.count }

// TileRect returns the source rectangle of tile i.
func (s *SpriteSheet) TileRect(i int) (image.Rectangle, error) {
	if i < 0 || i >= s.count {
		return image.Rectangle{}, fault.New(fault.Display, "sprites", "tile %d out of range [0,%d)", i, s.count)
	}
	origin := s.img.Bounds().Min.Add(image.Pt((i%s.cols)*s.tile, (i/s.cols)*s.tile))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(s.tile, s.tile))}, nil
}

// drawTile copies tile i with its top-left at pos.
func (s *SpriteSheet) drawTile(dst xdraw.Image, pos image.Point, i int) error {
	src, err := s.TileRect(i)
	if err != nil {
		return err
	}
	xdraw.Draw(dst, image.Rectangle{Min: pos, Max: pos.Add(src.Size())}, s.img, src.Min, xdraw.Src)
	return nil
}

// Assets are the images drawn under and into the layout.
type Assets struct {
	Background image.Image
	Large      *SpriteSheet
	Small      *SpriteSheet
}

// LoadAssets loads the configured files for layout. Empty paths fall back to a blank
// background and placeholder sprite sheets.
func LoadAssets(layout Layout, background, large, small string) (Assets, error) {
	a := Assets{
		Large: PlaceholderSheet(layout.LargeTileSize()),
		Small: PlaceholderSheet(layout.SmallTileSize()),
	}
	var err error
	if background != "" {
		if a.Background, err = loadImage(background); err != nil {
			return Assets{}, err
		}
	}
	if large != "" {
		if a.Large, err = LoadSpriteSheet(large, layout.LargeTileSize()); err != nil {
			return Assets{}, err
		}
	}
	if small != "" {
		if a.Small, err = LoadSpriteSheet(small, layout.SmallTileSize()); err != nil {
			return Assets{}, err
		}
	}
	return a, nil
}
