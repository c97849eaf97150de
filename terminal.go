package termview

import (
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/blacktop/go-termview/pkg/csi"
	"github.com/charmbracelet/colorprofile"
	"golang.org/x/term"
)

// TerminalInfo describes the terminal an image is placed in
type TerminalInfo struct {
	// Cell size in pixels
	FontWidth  int
	FontHeight int

	// Grid size in cells
	Cols int
	Rows int

	// Escape-sequence dialect the terminal understands
	Profile colorprofile.Profile

	TermName    string
	TermProgram string
	IsTmux      bool
}

var (
	detectedTerminal TerminalInfo
	detectOnce       sync.Once
)

// DetectTerminal returns the capabilities of the controlling terminal. The
// result is computed once per process.
func DetectTerminal() TerminalInfo {
	detectOnce.Do(func() {
		detectedTerminal = detectTerminal(os.Stdout, os.Environ())
	})
	return detectedTerminal
}

func detectTerminal(out *os.File, env []string) TerminalInfo {
	info := TerminalInfo{
		TermName:    os.Getenv("TERM"),
		TermProgram: os.Getenv("TERM_PROGRAM"),
		IsTmux:      csi.InTmux(),
		Profile:     colorprofile.Detect(out, env),
	}

	if cols, rows, fw, fh, ok := windowSize(out); ok {
		info.Cols, info.Rows = cols, rows
		info.FontWidth, info.FontHeight = fw, fh
	} else if cols, rows, err := term.GetSize(int(out.Fd())); err == nil {
		info.Cols, info.Rows = cols, rows
	}

	if info.FontWidth <= 0 || info.FontHeight <= 0 {
		if csi.QuerySupported() {
			if w, h, ok := csi.QueryCharacterCellSizeInPixels(); ok {
				info.FontWidth, info.FontHeight = w, h
			} else if w, h, ok := csi.QueryFontSize(); ok {
				info.FontWidth, info.FontHeight = w, h
			}
		}
	}

	if info.FontWidth <= 0 || info.FontHeight <= 0 {
		info.FontWidth, info.FontHeight = fontSizeFallback(info.TermName, info.TermProgram)
	}

	log.WithFields(log.Fields{
		"cols":        info.Cols,
		"rows":        info.Rows,
		"font_width":  info.FontWidth,
		"font_height": info.FontHeight,
		"profile":     info.Profile.String(),
	}).Debug("detected terminal")

	return info
}

// fontSizeFallback returns reasonable font size defaults based on terminal type
func fontSizeFallback(termName, termProgram string) (width, height int) {
	switch {
	case termProgram == "vscode":
		return 7, 14
	case termProgram == "iTerm.app":
		return 8, 16
	case termProgram == "WezTerm":
		return 8, 18
	case termProgram == "Alacritty":
		return 7, 15
	case strings.Contains(termProgram, "kitty"):
		return 8, 16
	case strings.Contains(termName, "xterm"):
		return 7, 14
	default:
		return DefaultFontWidth, DefaultFontHeight
	}
}
