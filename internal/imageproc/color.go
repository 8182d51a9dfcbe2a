package imageproc

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// invalidColorError is returned for background colours not in #RRGGBB form.
type invalidColorError struct{ value string }

func (e invalidColorError) Error() string {
	return fmt.Sprintf("invalid background color %q: want #RRGGBB", e.value)
}

// IsInvalidColor reports whether err came from ParseHexColor.
func IsInvalidColor(err error) bool {
	_, ok := err.(invalidColorError)
	return ok
}

// ParseHexColor parses "#RRGGBB" (the leading '#' is optional) into an
// opaque colour.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, invalidColorError{value: s}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, invalidColorError{value: s}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
