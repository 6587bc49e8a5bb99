// Package screen holds the fixed panel layout, the per-cycle widget values bound
// from a forecast, and the renderer that turns them into a two-colour frame.
package screen

import (
	"image"
	"sort"
)

// Field names a text label of the today area.
type Field string

const (
	FieldDate      Field = "date"
	FieldAsOf      Field = "asof"
	FieldPlace     Field = "place"
	FieldTemp      Field = "temp"
	FieldDayLow    Field = "daylo"
	FieldDayHigh   Field = "dayhi"
	FieldPrecip    Field = "precip"
	FieldHumidity  Field = "humid"
	FieldWind      Field = "wind"
	FieldPressure  Field = "pressure"
	FieldUV        Field = "uv"
	FieldClouds    Field = "clouds"
	FieldCondition Field = "cond"
	FieldSunrise   Field = "sunrise"
	FieldSunset    Field = "sunset"
	FieldAQI       Field = "aqi"
)

// BannerCount is the number of future-day banners.
const BannerCount = 5

// Anchor is a relative point of a label's box, (0,0) top-left to (1,1) bottom-right.
type Anchor struct{ X, Y float64 }

var (
	TopLeft      = Anchor{0, 0}
	MiddleLeft   = Anchor{0, 0.5}
	BottomCenter = Anchor{0.5, 1}
)

// Label places text so that its Anchor point sits at Pos.
type Label struct {
	Pos         image.Point
	Anchor      Anchor
	Placeholder string
}

// Tile places one sprite of the given square size with its top-left at Pos.
type Tile struct {
	Pos  image.Point
	Size int
}

// BannerLayout positions one future-day banner. Member positions are relative to Origin.
type BannerLayout struct {
	Origin image.Point
	Day    Label
	Icon   Tile
	Temp   Label
}

// Layout is the immutable geometry of the panel. Build it once and share it.
type Layout struct {
	size    image.Point
	labels  map[Field]Label
	today   Tile
	banners [BannerCount]BannerLayout
}

// DefaultLayout is the 296x128 MagTag arrangement.
func DefaultLayout() Layout {
	labels := map[Field]Label{
		FieldPlace:     {Pos: image.Pt(15, 2), Anchor: TopLeft},
		FieldDate:      {Pos: image.Pt(15, 14), Anchor: TopLeft, Placeholder: "time"},
		FieldAsOf:      {Pos: image.Pt(15, 24), Anchor: TopLeft, Placeholder: "As of: ?"},
		FieldCondition: {Pos: image.Pt(47, 115), Anchor: BottomCenter, Placeholder: "Thunderstorm"},
		FieldTemp:      {Pos: image.Pt(150, 21), Anchor: TopLeft, Placeholder: "+100F"},
		FieldClouds:    {Pos: image.Pt(165, 36), Anchor: TopLeft, Placeholder: "100"},
		FieldDayLow:    {Pos: image.Pt(100, 50), Anchor: TopLeft, Placeholder: "+100F"},
		FieldDayHigh:   {Pos: image.Pt(130, 50), Anchor: TopLeft, Placeholder: "+100F"},
		FieldPrecip:    {Pos: image.Pt(165, 50), Anchor: TopLeft, Placeholder: "..."},
		FieldHumidity:  {Pos: image.Pt(118, 70), Anchor: TopLeft, Placeholder: "100%"},
		FieldWind:      {Pos: image.Pt(150, 70), Anchor: TopLeft, Placeholder: "99m/s"},
		FieldPressure:  {Pos: image.Pt(105, 94), Anchor: TopLeft, Placeholder: "99m/s"},
		FieldUV:        {Pos: image.Pt(160, 94), Anchor: TopLeft, Placeholder: "100%"},
		FieldSunrise:   {Pos: image.Pt(45, 120), Anchor: MiddleLeft, Placeholder: "12:12 PM"},
		FieldSunset:    {Pos: image.Pt(130, 120), Anchor: MiddleLeft, Placeholder: "12:12 PM"},
		FieldAQI:       {Pos: image.Pt(160, 2), Anchor: TopLeft},
	}

	l := Layout{
		size:   image.Pt(296, 128),
		labels: labels,
		today:  Tile{Pos: image.Pt(10, 34), Size: 70},
	}
	for i := range l.banners {
		l.banners[i] = BannerLayout{
			Origin: image.Pt(203, 18+21*i),
			Day:    Label{Pos: image.Pt(0, 10), Anchor: MiddleLeft, Placeholder: "DAY"},
			Icon:   Tile{Pos: image.Pt(21, 1), Size: 20},
			Temp:   Label{Pos: image.Pt(44, 10), Anchor: MiddleLeft, Placeholder: "+100F"},
		}
	}
	return l
}

// Size is the frame size in pixels.
func (l Layout) Size() image.Point { return l.size }

// Bounds is the frame rectangle anchored at the origin.
func (l Layout) Bounds() image.Rectangle { return image.Rectangle{Max: l.size} }

// Label returns the placement of f.
func (l Layout) Label(f Field) (Label, bool) {
	lb, ok := l.labels[f]
	return lb, ok
}

// Fields lists every label in a stable order.
func (l Layout) Fields() []Field {
	fields := make([]Field, 0, len(l.labels))
	for f := range l.labels {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// TodayIcon is the large tile of the current conditions.
func (l Layout) TodayIcon() Tile { return l.today }

// Banner returns the placement of banner i (0..BannerCount-1).
func (l Layout) Banner(i int) BannerLayout { return l.banners[i] }

// SmallTileSize and LargeTileSize are the sprite sizes the layout expects.
func (l Layout) SmallTileSize() int { return l.banners[0].Icon.Size }
func (l Layout) LargeTileSize() int { return l.today.Size }
