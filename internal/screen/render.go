package screen

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	face     font.Face = basicfont.Face7x13
	paperInk           = color.Palette{color.White, color.Black}
)

// Render draws the screen into a new two-colour frame the size of its layout:
// background first, then the today tile, labels and banners.
func Render(s *Screen, a Assets) (*image.Paletted, error) {
	l := s.Layout()
	img := image.NewPaletted(l.Bounds(), paperInk)
	if a.Background != nil {
		xdraw.Draw(img, img.Bounds(), a.Background, a.Background.Bounds().Min, xdraw.Src)
	}

	if a.Large != nil {
		if err := a.Large.drawTile(img, l.TodayIcon().Pos, s.Icon()); err != nil {
			return nil, err
		}
	}

	for _, f := range l.Fields() {
		lb, _ := l.Label(f)
		drawLabel(img, image.Point{}, lb, s.Text(f))
	}

	for i := 0; i < BannerCount; i++ {
		bl, b := l.Banner(i), s.Banner(i)
		drawLabel(img, bl.Origin, bl.Day, b.Day)
		if a.Small != nil {
			if err := a.Small.drawTile(img, bl.Origin.Add(bl.Icon.Pos), b.Icon); err != nil {
				return nil, err
			}
		}
		drawLabel(img, bl.Origin, bl.Temp, b.Temp)
	}
	return img, nil
}

// labelBox is the rectangle text occupies when lb is placed relative to origin.
func labelBox(origin image.Point, lb Label, text string) image.Rectangle {
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()
	x := origin.X + lb.Pos.X - int(math.Round(lb.Anchor.X*float64(w)))
	y := origin.Y + lb.Pos.Y - int(math.Round(lb.Anchor.Y*float64(h)))
	return image.Rect(x, y, x+w, y+h)
}

func drawLabel(dst xdraw.Image, origin image.Point, lb Label, text string) {
	if text == "" {
		return
	}
	box := labelBox(origin, lb, text)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(box.Min.X, box.Min.Y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
