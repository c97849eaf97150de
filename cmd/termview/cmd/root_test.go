package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/go-termview"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlacementCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "positive", x: 10, y: 4},
		{name: "negative column", x: -1, y: 0, wantErr: true},
		{name: "negative row", x: 0, y: -3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePlacementCoordinates(tt.x, tt.y)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newFlagCommand(p *placement) *cobra.Command {
	c := &cobra.Command{}
	f := c.Flags()
	f.StringVar(&p.output, "output", "", "")
	f.StringVar(&p.scaler, "scaler", "", "")
	f.BoolVar(&p.noCache, "no-cache", false, "")
	f.BoolVar(&p.originCenter, "origin-center", false, "")
	return c
}

func TestApplyFlags(t *testing.T) {
	t.Run("unchanged flags keep config values", func(t *testing.T) {
		var p placement
		c := newFlagCommand(&p)

		cfg := termview.DefaultConfig()
		cfg.Output = termview.OutputX11
		cfg.NoCache = true

		got, err := applyFlags(c, cfg, p)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})

	t.Run("changed flags override", func(t *testing.T) {
		var p placement
		c := newFlagCommand(&p)
		require.NoError(t, c.Flags().Set("output", "x11"))
		require.NoError(t, c.Flags().Set("scaler", "distort"))
		require.NoError(t, c.Flags().Set("origin-center", "true"))

		got, err := applyFlags(c, termview.DefaultConfig(), p)
		require.NoError(t, err)
		assert.Equal(t, termview.OutputX11, got.Output)
		assert.Equal(t, termview.ScaleStretch, got.Scaler)
		assert.True(t, got.OriginCenter)
		assert.False(t, got.NoCache)
	})

	t.Run("invalid output", func(t *testing.T) {
		var p placement
		c := newFlagCommand(&p)
		require.NoError(t, c.Flags().Set("output", "iterm2"))

		_, err := applyFlags(c, termview.DefaultConfig(), p)
		assert.ErrorIs(t, err, termview.ErrUnsupportedOutput)
	})
}

func TestViewerQuitKeys(t *testing.T) {
	v := viewer{session: &session{}}
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		t.Run(key.String(), func(t *testing.T) {
			_, cmd := v.Update(key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
	assert.Empty(t, v.View())
}

func TestViewerInit(t *testing.T) {
	v := viewer{session: &session{}}
	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.IsType(t, redrawMsg{}, cmd())
}

func TestViewerResizeKeepsCacheAtStartup(t *testing.T) {
	cfg := termview.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	s := &session{path: filepath.Join(t.TempDir(), "missing.png"), cfg: cfg}

	cached := termview.SharedCache(cfg.CacheDir).Path(s.path)
	require.NoError(t, os.WriteFile(cached, []byte("resized"), 0o644))

	// the first size message arrives before anything was shown
	v := viewer{session: s}
	m, _ := v.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Error(t, m.(viewer).err)
	_, err := os.Stat(cached)
	assert.NoError(t, err)

	v.shown = true
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	_, err = os.Stat(cached)
	assert.True(t, os.IsNotExist(err))
}
