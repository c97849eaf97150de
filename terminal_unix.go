//go:build unix

package termview

import (
	"os"

	"golang.org/x/sys/unix"
)

// windowSize queries TIOCGWINSZ. Most X11 terminals also report the text
// area in pixels, from which the cell size follows; fw and fh are 0 otherwise.
func windowSize(out *os.File) (cols, rows, fw, fh int, ok bool) {
	ws, err := unix.IoctlGetWinsize(int(out.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	cols, rows = int(ws.Col), int(ws.Row)
	if ws.Col > 0 && ws.Row > 0 && ws.Xpixel > 0 && ws.Ypixel > 0 {
		fw, fh = int(ws.Xpixel)/int(ws.Col), int(ws.Ypixel)/int(ws.Row)
	}
	return cols, rows, fw, fh, true
}
