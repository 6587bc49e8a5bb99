package format

import (
	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
)

// IconMap lists the OpenWeatherMap condition prefixes in sprite-sheet order.
var IconMap = [...]string{"01", "02", "03", "04", "09", "10", "11", "13", "50"}

// IconIndex maps an icon code such as "10n" to its sprite tile by its two-character prefix.
// There is no fallback tile: an unknown prefix is an unmapped-icon fault.
func IconIndex(code string) (int, error) {
	if len(code) >= 2 {
		prefix := code[:2]
		for i, p := range IconMap {
			if p == prefix {
				return i, nil
			}
		}
	}
	return 0, fault.New(fault.UnmappedIcon, "icon", "no sprite for icon code %q", code)
}
