// Package color provides the normalized color representation exchanged with
// the document environment.
//
// The document reports colors as CSS strings ("rgb(255, 0, 0)",
// "rgba(0, 0, 0, 0)", "#ff0000"); commands accept colors as six uppercase hex
// digits without a leading '#'. Color bridges both forms.
package color

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an opaque 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// RGB returns the color with the given channels.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromColorful converts a go-colorful color, clamping out-of-gamut values.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// Colorful returns the color as a go-colorful value.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Hex returns the color as six uppercase hex digits, e.g. "FF8800".
func (c Color) Hex() string {
	return strings.ToUpper(strings.TrimPrefix(c.Colorful().Hex(), "#"))
}

// String returns the CSS functional form, e.g. "rgb(255, 136, 0)".
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Parse parses a color reported by the document environment.
//
// Accepted forms are rgb(r, g, b), rgba(r, g, b, a), #rgb, #rrggbb and a bare
// rrggbb. A fully transparent rgba value, "transparent" and anything
// malformed yield ok == false.
func Parse(s string) (c Color, ok bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(lower, ")"):
		return parseFunctional(lower[len("rgba(") : len(lower)-1])
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")"):
		return parseFunctional(lower[len("rgb(") : len(lower)-1])
	case strings.HasPrefix(lower, "#"):
		return parseHex(lower)
	case len(lower) == 6 && isHex(lower):
		return parseHex("#" + lower)
	default:
		return Color{}, false
	}
}

func parseHex(s string) (Color, bool) {
	cf, err := colorful.Hex(s)
	if err != nil {
		return Color{}, false
	}
	return FromColorful(cf), true
}

func parseFunctional(body string) (Color, bool) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return Color{}, false
		}
		channels[i] = uint8(v)
	}

	if len(parts) == 4 {
		alpha, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || alpha < 0 || alpha > 1 {
			return Color{}, false
		}
		if alpha == 0 {
			return Color{}, false
		}
	}

	return Color{R: channels[0], G: channels[1], B: channels[2]}, true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
