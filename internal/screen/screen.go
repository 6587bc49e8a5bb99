package screen

import (
	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/format"
)

// Banner is the content of one future-day banner.
type Banner struct {
	Day  string
	Icon int
	Temp string
}

// Screen is the widget state of one wake cycle. Every setter overwrites the previous
// value, so binding the same forecast twice yields the same screen.
type Screen struct {
	layout  Layout
	text    map[Field]string
	icon    int
	banners [BannerCount]Banner
}

// New returns a screen showing the layout's placeholders.
func New(layout Layout) *Screen {
	s := &Screen{layout: layout, text: make(map[Field]string)}
	for _, f := range layout.Fields() {
		lb, _ := layout.Label(f)
		s.text[f] = lb.Placeholder
	}
	for i := range s.banners {
		b := layout.Banner(i)
		s.banners[i] = Banner{Day: b.Day.Placeholder, Temp: b.Temp.Placeholder}
	}
	return s
}

// Layout returns the geometry the screen was built for.
func (s *Screen) Layout() Layout { return s.layout }

// SetText sets the text of one label.
func (s *Screen) SetText(f Field, text string) error {
	if _, ok := s.layout.Label(f); !ok {
		return fault.New(fault.Display, "set_text", "unknown field %q", f)
	}
	s.text[f] = text
	return nil
}

// Text returns the current text of f.
func (s *Screen) Text(f Field) string { return s.text[f] }

// SetIcon sets the sprite index of the today tile.
func (s *Screen) SetIcon(index int) error {
	if err := checkIcon(index); err != nil {
		return err
	}
	s.icon = index
	return nil
}

// Icon returns the sprite index of the today tile.
func (s *Screen) Icon() int { return s.icon }

// SetBanner replaces banner i.
func (s *Screen) SetBanner(i int, b Banner) error {
	if i < 0 || i >= BannerCount {
		return fault.New(fault.Display, "set_banner", "banner index %d out of range [0,%d)", i, BannerCount)
	}
	if err := checkIcon(b.Icon); err != nil {
		return err
	}
	s.banners[i] = b
	return nil
}

// Banner returns banner i.
func (s *Screen) Banner(i int) Banner { return s.banners[i] }

func checkIcon(index int) error {
	if index < 0 || index >= len(format.IconMap) {
		return fault.New(fault.Display, "set_icon", "icon index %d out of range [0,%d)", index, len(format.IconMap))
	}
	return nil
}
