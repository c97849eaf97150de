/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/go-termview"
	"github.com/blacktop/go-termview/x11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// placement holds the command line flags describing where and how to show the image
type placement struct {
	x, y              int
	maxWidth          int
	maxHeight         int
	paddingHorizontal int
	paddingVertical   int
	output            string
	scaler            string
	noCache           bool
	originCenter      bool
	parent            uint32
	display           string
}

var (
	verbose     bool
	configPath  string
	interactive bool
	duration    time.Duration
	place       placement
)

func init() {
	log.SetHandler(clihander.Default)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/termview/config.toml)")

	f := rootCmd.Flags()
	f.IntVar(&place.x, "x", 0, "Anchor column")
	f.IntVar(&place.y, "y", 0, "Anchor row")
	f.IntVar(&place.maxWidth, "max-width", 0, "Maximum width in cells (0 = unbounded)")
	f.IntVar(&place.maxHeight, "max-height", 0, "Maximum height in cells (0 = unbounded)")
	f.IntVar(&place.paddingHorizontal, "padding-x", 0, "Horizontal window padding in pixels")
	f.IntVar(&place.paddingVertical, "padding-y", 0, "Vertical window padding in pixels")
	f.StringVarP(&place.output, "output", "o", "", "Output backend (chafa, x11)")
	f.StringVarP(&place.scaler, "scaler", "s", "", "Scaler (contain, fit_contain, distort, none)")
	f.BoolVar(&place.noCache, "no-cache", false, "Do not cache resized images")
	f.BoolVar(&place.originCenter, "origin-center", false, "Center the image on the anchor")
	f.Uint32Var(&place.parent, "parent", 0, "X11 parent window id (default $WINDOWID)")
	f.StringVar(&place.display, "display", "", "X11 display (default $DISPLAY)")
	f.BoolVarP(&interactive, "interactive", "i", false, "Keep the image on screen and redraw on resize (t: toggle, q: quit)")
	f.DurationVarP(&duration, "duration", "d", 0, "Remove the image after this long instead of waiting for Enter")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "termview <image>",
	Short: "Display images inside your terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		if err := validatePlacementCoordinates(place.x, place.y); err != nil {
			return err
		}

		paths := []string{termview.DefaultConfigPath()}
		if configPath != "" {
			paths = append(paths, configPath)
		}
		cfg, err := termview.LoadConfig(paths...)
		if err != nil {
			return err
		}
		if cfg, err = applyFlags(cmd, cfg, place); err != nil {
			return err
		}

		s, err := newSession(args[0], cfg, place)
		if err != nil {
			return err
		}
		defer s.close()

		if interactive {
			m, err := tea.NewProgram(newViewer(s), tea.WithoutRenderer()).Run()
			if err != nil {
				return err
			}
			return m.(viewer).err
		}

		if err := s.show(termview.DetectTerminal()); err != nil {
			return err
		}
		if duration > 0 {
			time.Sleep(duration)
		} else {
			bufio.NewReader(os.Stdin).ReadString('\n')
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func validatePlacementCoordinates(x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("placement coordinates must be non-negative, got (%d, %d)", x, y)
	}
	return nil
}

// applyFlags overrides config values with flags given on the command line
func applyFlags(cmd *cobra.Command, cfg termview.Config, p placement) (termview.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		out, err := termview.ParseOutput(p.output)
		if err != nil {
			return cfg, err
		}
		cfg.Output = out
	}
	if flags.Changed("scaler") {
		scaler, err := termview.ParseScaleMode(p.scaler)
		if err != nil {
			return cfg, err
		}
		cfg.Scaler = scaler
	}
	if flags.Changed("no-cache") {
		cfg.NoCache = p.noCache
	}
	if flags.Changed("origin-center") {
		cfg.OriginCenter = p.originCenter
	}
	return cfg, nil
}

// session owns the shared resources for one image: the stdout lock, the X
// connection and the current renderer
type session struct {
	path  string
	cfg   termview.Config
	place placement

	stdout   sync.Mutex
	display  *x11.Display
	renderer termview.Renderer
}

func newSession(path string, cfg termview.Config, p placement) (*session, error) {
	s := &session{path: path, cfg: cfg, place: p}
	if cfg.Output == termview.OutputX11 {
		display, err := x11.Open(p.display)
		if err != nil {
			return nil, err
		}
		s.display = display
	}
	return s, nil
}

// show loads the image for the given terminal geometry and draws it,
// replacing whatever the session showed before
func (s *session) show(term termview.TerminalInfo) error {
	s.closeRenderer()

	dims := termview.NewDimensions(term, s.place.x, s.place.y, s.place.maxWidth, s.place.maxHeight, s.cfg.Scaler)
	dims.PaddingHorizontal = s.place.paddingHorizontal
	dims.PaddingVertical = s.place.paddingVertical

	img, err := termview.Load(s.path, dims, s.cfg)
	if err != nil {
		return err
	}
	log.Debugf("Image Info: %s", img)

	deps := termview.RendererDeps{Stdout: &s.stdout, Parent: s.place.parent}
	if s.display != nil {
		deps.Conn = s.display
		deps.Screen = s.display.Screen()
	}
	r, err := termview.NewRenderer(img, s.cfg, deps)
	if err != nil {
		return err
	}
	s.renderer = r

	if overlay, ok := r.(termview.Overlay); ok {
		if err := overlay.GenerateFrame(); err != nil {
			return err
		}
	}
	return r.Draw()
}

// redraw draws the current renderer again, e.g. after an expose
func (s *session) redraw() error {
	if s.renderer == nil {
		return nil
	}
	return s.renderer.Draw()
}

// toggle flips overlay visibility; canvas images are erased or redrawn
func (s *session) toggle(term termview.TerminalInfo) error {
	switch r := s.renderer.(type) {
	case termview.Overlay:
		r.Toggle()
		if err := r.Draw(); err != nil {
			return err
		}
	case *termview.Canvas:
		s.closeRenderer()
	case nil:
		return s.show(term)
	}
	return nil
}

// forgetResize drops the cached resize so the next show resizes again
func (s *session) forgetResize() {
	if s.cfg.NoCache {
		return
	}
	c := termview.SharedCache(s.cfg.CacheDir)
	c.Wait()
	c.Invalidate(s.path)
}

func (s *session) closeRenderer() {
	if s.renderer != nil {
		s.renderer.Close()
		s.renderer = nil
	}
}

func (s *session) close() {
	s.closeRenderer()
	termview.SharedCache(s.cfg.CacheDir).Wait()
	if s.display != nil {
		s.display.Close()
	}
}
