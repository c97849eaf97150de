//go:build !unix

package termview

import "os"

func windowSize(*os.File) (cols, rows, fw, fh int, ok bool) {
	return 0, 0, 0, 0, false
}
