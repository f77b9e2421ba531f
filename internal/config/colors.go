package config

import (
	"errors"
	"strconv"
	"strings"
)

// RGB is a 24-bit color.
type RGB [3]uint8

// ColorSpec is a parsed "fg(r,g,b);bg(r,g,b)" value. Either half may be absent.
type ColorSpec struct {
	Fg *RGB
	Bg *RGB
}

var errColorFormat = errors.New("invalid color format")

// ParseColors parses a semicolon separated list of fg(...) and bg(...) parts.
// Surrounding quotes are ignored and later parts override earlier ones.
func ParseColors(s string) (ColorSpec, error) {
	var spec ColorSpec
	s = strings.Trim(strings.TrimSpace(s), `'"`)

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)

		var target **RGB
		switch {
		case strings.HasPrefix(part, "bg"):
			target = &spec.Bg
		case strings.HasPrefix(part, "fg"):
			target = &spec.Fg
		default:
			return ColorSpec{}, errColorFormat
		}

		rgb, err := parseColor(strings.TrimSpace(part[2:]))
		if err != nil {
			return ColorSpec{}, err
		}
		*target = &rgb
	}
	return spec, nil
}

func parseColor(s string) (RGB, error) {
	var rgb RGB
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") || len(s) < 2 {
		return rgb, errColorFormat
	}

	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 3 {
		return rgb, errColorFormat
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return rgb, errColorFormat
		}
		rgb[i] = uint8(v)
	}
	return rgb, nil
}
