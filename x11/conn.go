/*
Package x11 shows images in X11 child windows parented under the terminal window
*/
package x11

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrBackend is matched by every *BackendError
var ErrBackend = errors.New("x11 backend error")

// BackendError reports a window-system resource that could not be created
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{ErrBackend, e.Err}
}

// Screen describes the X screen windows are created on
type Screen struct {
	Root            uint32
	RootDepth       byte
	RootVisual      uint32
	BlackPixel      uint32
	DefaultColormap uint32
	// MaxRequestBytes bounds the size of a single request
	MaxRequestBytes int
}

// WindowAttrs are the values a child window is created with
type WindowAttrs struct {
	Parent        uint32
	X, Y          int16
	Width, Height uint16
	Depth         byte
	Visual        uint32
	BackPixel     uint32
	BorderPixel   uint32
	Colormap      uint32
	ExposureOnly  bool
}

// Conn is the subset of the X protocol the window renderer needs. It must be
// safe for concurrent use: every Window of a process shares one Conn.
type Conn interface {
	NewWindowID() (uint32, error)
	NewGCID() (uint32, error)
	CreateWindow(id uint32, attrs WindowAttrs) error
	CreateGC(id, drawable uint32) error
	MapWindow(window uint32) error
	UnmapWindow(window uint32) error
	// PutImage uploads a Z-pixmap band to the drawable at (x, y)
	PutImage(drawable, gc uint32, width, height uint16, x, y int16, depth byte, data []byte) error
	SendExpose(window uint32, width, height uint16) error
	// OnExpose calls fn whenever window is exposed; a nil fn removes the handler
	OnExpose(window uint32, fn func())
	DestroyWindow(window uint32) error
	FreeGC(gc uint32) error
	// Flush waits until the server processed every request sent so far
	Flush() error
}

// ParentFromEnv returns the terminal window id from WINDOWID, set by most X11
// terminal emulators
func ParentFromEnv() (uint32, bool) {
	v := os.Getenv("WINDOWID")
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 0, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint32(id), true
}
