package style

import (
	"math"
	"strconv"
	"strings"
)

// ViewportClampPrefix selects the fluid unit: "viewport-clamp:1920" scales
// numbers relative to a 1920px wide screen.
const ViewportClampPrefix = "viewport-clamp:"

var lengthProperties = map[string]bool{
	"width": true, "height": true, "top": true, "right": true, "bottom": true, "left": true,
	"inset": true, "margin": true, "padding": true, "gap": true,
	"font-size": true, "flex-basis": true, "text-indent": true, "border": true,
	"outline": true, "border-radius": true, "perspective": true,
}

var unitless = map[string]bool{
	"line-height": true, "z-index": true, "opacity": true, "flex": true, "flex-grow": true,
	"flex-shrink": true, "order": true, "font-weight": true, "zoom": true, "aspect-ratio": true,
	"tab-size": true, "orphans": true, "widows": true, "columns": true, "column-count": true,
	"animation-iteration-count": true, "grid-row": true, "grid-column": true, "scale": true,
}

var lengthPrefixes = []string{"margin-", "padding-", "inset-", "scroll-margin", "scroll-padding", "min-", "max-"}

var lengthSuffixes = []string{"-width", "-height", "-radius", "-gap", "-offset", "-size", "-spacing", "-indent"}

var commaListProperties = map[string]bool{
	"font-family": true, "box-shadow": true, "text-shadow": true, "will-change": true, "src": true,
}

var commaListPrefixes = []string{"transition", "animation", "background", "mask"}

// ListSeparator joins the items of a list value for the dash-cased property:
// ", " for comma-separated lists such as transition-property, " " for
// component lists such as margin or grid-template-columns.
func ListSeparator(property string) string {
	if commaListProperties[property] {
		return ", "
	}
	for _, p := range commaListPrefixes {
		if strings.HasPrefix(property, p) {
			return ", "
		}
	}
	return " "
}

// NeedsUnit reports whether a bare number assigned to the dash-cased property
// is a length and should carry a unit.
func NeedsUnit(property string) bool {
	if strings.HasPrefix(property, "--") || unitless[property] {
		return false
	}
	if lengthProperties[property] {
		return true
	}
	for _, p := range lengthPrefixes {
		if strings.HasPrefix(property, p) {
			return true
		}
	}
	for _, s := range lengthSuffixes {
		if strings.HasSuffix(property, s) {
			return true
		}
	}
	return false
}

// FormatNumber renders n for property using unit ("px" when empty). Numbers
// for properties that are not lengths are rendered bare.
func FormatNumber(property string, n float64, unit string) string {
	if !NeedsUnit(property) {
		return formatFloat(n)
	}
	if unit == "" {
		unit = "px"
	}
	if screen, ok := strings.CutPrefix(unit, ViewportClampPrefix); ok {
		if size, err := strconv.ParseFloat(screen, 64); err == nil && size > 0 {
			return viewportClamp(n, size)
		}
		unit = "px"
	}
	return formatFloat(n) + unit
}

func viewportClamp(n, screen float64) string {
	px := formatFloat(n)
	vw := formatFloat(math.Round(n/screen*100*10000) / 10000)
	low, high := "0.5", "1.5"
	if n < 0 {
		low, high = high, low
	}
	return "clamp(calc(" + px + "px * " + low + "), " + vw + "vw, calc(" + px + "px * " + high + "))"
}

func formatFloat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
