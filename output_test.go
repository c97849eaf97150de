package termview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		input    string
		expected Output
	}{
		{"chafa", OutputCanvas},
		{"canvas", OutputCanvas},
		{"X11", OutputX11},
		{" wayland ", OutputWayland},
		{"kitty", OutputKitty},
		{"sixel", OutputSixel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := ParseOutput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}

	_, err := ParseOutput("iterm2")
	assert.ErrorIs(t, err, ErrUnsupportedOutput)
}

func TestOutputProperties(t *testing.T) {
	tests := []struct {
		output   Output
		bgra     bool
		evenSize bool
	}{
		{OutputCanvas, true, false},
		{OutputX11, true, false},
		{OutputWayland, true, true},
		{OutputKitty, false, false},
		{OutputSixel, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.output.String(), func(t *testing.T) {
			assert.Equal(t, tt.bgra, tt.output.BGRA())
			assert.Equal(t, tt.evenSize, tt.output.NeedsEvenSize())
		})
	}
}

func TestOutputText(t *testing.T) {
	var out Output
	require.NoError(t, out.UnmarshalText([]byte("x11")))
	assert.Equal(t, OutputX11, out)

	text, err := OutputCanvas.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "chafa", string(text))

	assert.Equal(t, "Output(42)", Output(42).String())
}
