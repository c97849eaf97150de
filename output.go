package termview

import (
	"fmt"
	"strings"
)

// Output is the presentation backend an image is prepared for
type Output int

const (
	// OutputCanvas draws block glyphs into the terminal grid
	OutputCanvas Output = iota
	// OutputX11 shows the image in an X11 child window
	OutputX11
	// OutputWayland shows the image in a Wayland surface
	OutputWayland
	// OutputKitty is the kitty graphics protocol (RGB/RGBA pixels)
	OutputKitty
	// OutputSixel is the sixel protocol (RGB pixels)
	OutputSixel
)

var outputNames = map[Output]string{
	OutputCanvas:  "chafa",
	OutputX11:     "x11",
	OutputWayland: "wayland",
	OutputKitty:   "kitty",
	OutputSixel:   "sixel",
}

func (o Output) String() string {
	if name, ok := outputNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Output(%d)", int(o))
}

// ParseOutput parses a backend name. "canvas" is accepted as an alias of "chafa".
func ParseOutput(s string) (Output, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "canvas" {
		return OutputCanvas, nil
	}
	for o, n := range outputNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedOutput, s)
}

// BGRA reports whether the backend consumes BGRA pixels
func (o Output) BGRA() bool {
	switch o {
	case OutputCanvas, OutputX11, OutputWayland:
		return true
	}
	return false
}

// NeedsEvenSize reports whether the display surface wants pixel-pair aligned images
func (o Output) NeedsEvenSize() bool {
	return o == OutputWayland
}

// MarshalText implements encoding.TextMarshaler
func (o Output) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Output) UnmarshalText(text []byte) error {
	parsed, err := ParseOutput(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
