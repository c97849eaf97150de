/*
Package csi provides CSI (Control Sequence Introducer) queries used to learn the
pixel geometry of the controlling terminal
*/
package csi

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// QueryTimeout is the default timeout for CSI queries
const QueryTimeout = 100 * time.Millisecond

// Report prefixes for the XTWINOPS queries
const (
	textAreaReport = "[4;"
	cellSizeReport = "[6;"
)

// QueryTextAreaSizeInPixels queries text area size in pixels using CSI 14t
func QueryTextAreaSizeInPixels() (width, height int, ok bool) {
	return query("\x1b[14t", textAreaReport)
}

// QueryCharacterCellSizeInPixels queries character cell size in pixels using CSI 16t
func QueryCharacterCellSizeInPixels() (width, height int, ok bool) {
	return query("\x1b[16t", cellSizeReport)
}

// QueryFontSize derives the cell size from the text area pixel size (CSI 14t)
// and the window size in characters
func QueryFontSize() (fontWidth, fontHeight int, ok bool) {
	pixelWidth, pixelHeight, ok := QueryTextAreaSizeInPixels()
	if !ok {
		return 0, 0, false
	}
	cols, rows, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	return CellSize(pixelWidth, pixelHeight, cols, rows)
}

// CellSize divides a text area in pixels by its size in cells, rejecting
// implausible results
func CellSize(pixelWidth, pixelHeight, cols, rows int) (fontWidth, fontHeight int, ok bool) {
	if pixelWidth <= 0 || pixelHeight <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	fontWidth = pixelWidth / cols
	fontHeight = pixelHeight / rows
	// font sizes should be reasonable (between 4 and 50 pixels)
	if fontWidth < 4 || fontWidth > 50 || fontHeight < 4 || fontHeight > 50 {
		return 0, 0, false
	}
	return fontWidth, fontHeight, true
}

// QuerySupported checks if a terminal likely supports CSI queries
func QuerySupported() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "Apple_Terminal", "vscode":
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// ParseSizeReport parses "ESC [ <kind> ; height ; width t" style reports.
// prefix is the report kind including the bracket, e.g. "[6;".
func ParseSizeReport(response, prefix string) (width, height int, ok bool) {
	start := strings.Index(response, prefix)
	if start == -1 {
		return 0, 0, false
	}
	rest := response[start+len(prefix):]
	end := strings.IndexByte(rest, 't')
	if end == -1 {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(strings.TrimSuffix(rest[:end], ";"), "%d;%d", &height, &width); err != nil {
		return 0, 0, false
	}
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

func query(seq, prefix string) (width, height int, ok bool) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return 0, 0, false
	}
	defer tty.Close()

	oldState, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return 0, 0, false
	}
	defer term.Restore(int(tty.Fd()), oldState)

	if _, err := tty.WriteString(WrapTmuxPassthrough(seq)); err != nil {
		return 0, 0, false
	}

	type report struct {
		width, height int
		ok            bool
	}
	responseChan := make(chan report, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := tty.Read(buf)
		if err != nil || n == 0 {
			responseChan <- report{}
			return
		}
		w, h, ok := ParseSizeReport(string(buf[:n]), prefix)
		responseChan <- report{w, h, ok}
	}()

	select {
	case r := <-responseChan:
		return r.width, r.height, r.ok
	case <-time.After(QueryTimeout):
		return 0, 0, false
	}
}

// InTmux checks if running inside tmux
func InTmux() bool {
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// WrapTmuxPassthrough wraps an escape sequence for tmux passthrough if needed
func WrapTmuxPassthrough(output string) string {
	if !InTmux() || !strings.HasPrefix(output, "\x1b") {
		return output
	}
	// tmux passthrough format: \ePtmux;\e{escaped_sequence}\e\\
	// All \e (ESC) characters in the sequence must be doubled
	return "\x1bPtmux;\x1b" + strings.ReplaceAll(output, "\x1b", "\x1b\x1b") + "\x1b\\"
}
