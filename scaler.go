package termview

import (
	"fmt"
	"math"
	"strings"
)

// ScaleMode defines how images are scaled to the maximum pixel bounds
type ScaleMode int

const (
	// ScaleContain shrinks images larger than the bounds, keeping aspect ratio
	ScaleContain ScaleMode = iota
	// ScaleNone never scales
	ScaleNone
	// ScaleFit grows or shrinks the image to fit the bounds, keeping aspect ratio
	ScaleFit
	// ScaleStretch resizes to the bounds exactly
	ScaleStretch
)

var scaleModeNames = map[ScaleMode]string{
	ScaleContain: "contain",
	ScaleNone:    "none",
	ScaleFit:     "fit_contain",
	ScaleStretch: "distort",
}

func (m ScaleMode) String() string {
	if name, ok := scaleModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ScaleMode(%d)", int(m))
}

// ParseScaleMode parses a scaler name such as "contain" or "fit_contain"
func ParseScaleMode(s string) (ScaleMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "contain":
		return ScaleContain, nil
	case "fit", "fit_contain":
		return ScaleFit, nil
	case "stretch", "distort":
		return ScaleStretch, nil
	case "none":
		return ScaleNone, nil
	}
	return 0, fmt.Errorf("unknown scaler %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m ScaleMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *ScaleMode) UnmarshalText(text []byte) error {
	parsed, err := ParseScaleMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// TargetSize computes the size a width x height image should be resized to so
// it satisfies maxWidth x maxHeight. A bound <= 0 is unbounded. It returns
// (0, 0) when no resize is needed.
func (m ScaleMode) TargetSize(width, height, maxWidth, maxHeight int) (newWidth, newHeight int) {
	if width <= 0 || height <= 0 || (maxWidth <= 0 && maxHeight <= 0) {
		return 0, 0
	}

	ratio := math.Inf(1)
	if maxWidth > 0 {
		ratio = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 {
		ratio = min(ratio, float64(maxHeight)/float64(height))
	}

	switch m {
	case ScaleContain:
		if ratio >= 1 {
			return 0, 0
		}
	case ScaleFit:
		if ratio == 1 {
			return 0, 0
		}
	case ScaleStretch:
		newWidth, newHeight = width, height
		if maxWidth > 0 {
			newWidth = maxWidth
		}
		if maxHeight > 0 {
			newHeight = maxHeight
		}
		if newWidth == width && newHeight == height {
			return 0, 0
		}
		return newWidth, newHeight
	default:
		return 0, 0
	}

	newWidth = max(int(float64(width)*ratio), 1)
	newHeight = max(int(float64(height)*ratio), 1)
	if newWidth == width && newHeight == height {
		return 0, 0
	}
	return newWidth, newHeight
}
