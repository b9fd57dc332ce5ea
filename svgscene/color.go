package svgscene

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Pattern is a paint server. Only plain colors are drawn:
// gradients are flattened to their first stop when parsed.
type Pattern interface {
	isPattern()
}

// PlainColor is a uniform paint.
type PlainColor struct {
	color.NRGBA
}

func (PlainColor) isPattern() {}

// NewPlainColor returns a plain color pattern.
func NewPlainColor(r, g, b, a uint8) PlainColor {
	return PlainColor{color.NRGBA{R: r, G: g, B: b, A: a}}
}

// optionnalColor is nil for `none`
type optionnalColor struct {
	valid bool
	color color.NRGBA
}

func (o optionnalColor) asPattern() Pattern {
	if !o.valid {
		return nil
	}
	return PlainColor{o.color}
}

var errColorFormat = errors.New("unsupported color format")

// parseSVGColor parses a SVG color string: named colors,
// #rgb, #rrggbb, rgb() and rgba(), none and currentColor.
func parseSVGColor(colorStr string) (optionnalColor, error) {
	v := strings.ToLower(strings.TrimSpace(colorStr))
	switch v {
	case "none", "transparent":
		return optionnalColor{}, nil
	case "currentcolor", "inherit":
		// the color property is not tracked: black
		return optionnalColor{valid: true, color: color.NRGBA{A: 0xff}}, nil
	}
	if cn, ok := colornames.Map[v]; ok {
		return optionnalColor{valid: true, color: color.NRGBA{R: cn.R, G: cn.G, B: cn.B, A: cn.A}}, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	if strings.HasPrefix(v, "rgb") {
		return parseRGBFunc(v)
	}
	return optionnalColor{}, errColorFormat
}

func parseHexColor(hex string) (optionnalColor, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return optionnalColor{}, errColorFormat
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return optionnalColor{}, err
	}
	return optionnalColor{valid: true, color: color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}}, nil
}

// parseRGBFunc handles rgb(r, g, b) and rgba(r, g, b, a),
// components being integers or percentages.
func parseRGBFunc(v string) (optionnalColor, error) {
	open, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if open < 0 || end < open {
		return optionnalColor{}, errColorFormat
	}
	parts := splitOnCommaOrSpace(v[open+1 : end])
	if len(parts) != 3 && len(parts) != 4 {
		return optionnalColor{}, errColorFormat
	}
	var comps [3]uint8
	for i := range comps {
		p := parts[i]
		var f float64
		var err error
		if strings.HasSuffix(p, "%") {
			f, err = parseFloat(strings.TrimSuffix(p, "%"), 64)
			f = f * 255 / 100
		} else {
			f, err = parseFloat(p, 64)
		}
		if err != nil {
			return optionnalColor{}, err
		}
		comps[i] = clampByte(f)
	}
	alpha := uint8(0xff)
	if len(parts) == 4 {
		a, err := readFraction(parts[3])
		if err != nil {
			return optionnalColor{}, err
		}
		alpha = clampByte(a * 255)
	}
	return optionnalColor{valid: true, color: color.NRGBA{R: comps[0], G: comps[1], B: comps[2], A: alpha}}, nil
}

func clampByte(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f + 0.5)
}
