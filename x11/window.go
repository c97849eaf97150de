package x11

import (
	"fmt"
	"math"
	"sync"

	"github.com/apex/log"
)

// Frame is the pixel source of a window: BGRA rows matching the screen's
// 24/32-bit Z-pixmap format
type Frame interface {
	Width() int
	Height() int
	// Size is the byte length of Data
	Size() int
	Data() []byte
}

// Window is an overlay child window showing one Frame
type Window struct {
	conn   Conn
	screen Screen
	parent uint32
	window uint32
	gc     uint32
	frame  Frame

	mu      sync.Mutex
	visible bool
	staged  []byte
	closed  bool
}

// NewWindow creates and maps a child of parent sized to frame, placed at
// pixel offset (x, y) inside the parent. The window repaints itself whenever
// the server reports it exposed.
func NewWindow(conn Conn, screen Screen, parent uint32, frame Frame, x, y int) (*Window, error) {
	if err := checkGeometry(frame.Width(), frame.Height(), x, y); err != nil {
		return nil, &BackendError{Op: "create window", Err: err}
	}

	window, err := conn.NewWindowID()
	if err != nil {
		return nil, &BackendError{Op: "allocate window id", Err: err}
	}
	gc, err := conn.NewGCID()
	if err != nil {
		return nil, &BackendError{Op: "allocate graphics context id", Err: err}
	}

	w := &Window{
		conn:   conn,
		screen: screen,
		parent: parent,
		window: window,
		gc:     gc,
		frame:  frame,
	}

	log.WithField("parent", parent).Debug("creating child window")
	err = conn.CreateWindow(window, WindowAttrs{
		Parent:       parent,
		X:            int16(x),
		Y:            int16(y),
		Width:        uint16(frame.Width()),
		Height:       uint16(frame.Height()),
		Depth:        screen.RootDepth,
		Visual:       screen.RootVisual,
		BackPixel:    screen.BlackPixel,
		BorderPixel:  screen.BlackPixel,
		Colormap:     screen.DefaultColormap,
		ExposureOnly: true,
	})
	if err != nil {
		return nil, &BackendError{Op: "create window", Err: err}
	}
	log.WithFields(log.Fields{"window": window, "x": x, "y": y}).Debug("created child window")

	if err := conn.CreateGC(gc, window); err != nil {
		conn.DestroyWindow(window)
		conn.Flush()
		return nil, &BackendError{Op: "create graphics context", Err: err}
	}

	conn.OnExpose(window, w.repaint)
	w.Show()
	return w, nil
}

// checkGeometry rejects sizes and offsets that do not fit the protocol's
// 16-bit window fields
func checkGeometry(width, height, x, y int) error {
	if width < 1 || width > math.MaxUint16 || height < 1 || height > math.MaxUint16 {
		return fmt.Errorf("window size %dx%d out of range", width, height)
	}
	if x < math.MinInt16 || x > math.MaxInt16 || y < math.MinInt16 || y > math.MaxInt16 {
		return fmt.Errorf("window offset (%d, %d) out of range", x, y)
	}
	return nil
}

// ID returns the X window id
func (w *Window) ID() uint32 { return w.window }

// Visible reports whether the window is mapped
func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Show maps the window; it does nothing when already visible
func (w *Window) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.visible || w.closed {
		return
	}
	w.visible = true
	w.conn.MapWindow(w.window)
	w.flush()
}

// Hide unmaps the window; it does nothing when already hidden
func (w *Window) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.visible || w.closed {
		return
	}
	w.visible = false
	w.conn.UnmapWindow(w.window)
	w.flush()
}

// Toggle flips visibility
func (w *Window) Toggle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.visible {
		w.conn.UnmapWindow(w.window)
	} else {
		w.conn.MapWindow(w.window)
	}
	w.visible = !w.visible
	w.flush()
}

// SetFrame replaces the pixel source. The staged frame is dropped until the
// next GenerateFrame.
func (w *Window) SetFrame(frame Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame = frame
	w.staged = nil
}

// GenerateFrame stages the current frame pixels and asks the server for a
// repaint with a synthetic expose event
func (w *Window) GenerateFrame() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	staged := make([]byte, w.frame.Size())
	copy(staged, w.frame.Data())
	w.staged = staged

	if err := w.conn.SendExpose(w.window, uint16(w.frame.Width()), uint16(w.frame.Height())); err != nil {
		return err
	}
	return w.conn.Flush()
}

// Draw blits the staged frame at (0, 0). Without a staged frame it does nothing.
func (w *Window) Draw() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.staged == nil || w.closed {
		return nil
	}

	width, height := w.frame.Width(), w.frame.Height()
	if width == 0 || height == 0 {
		return nil
	}
	stride := len(w.staged) / height
	rows := bandRows(w.screen.MaxRequestBytes, stride, height)
	for y := 0; y < height; y += rows {
		n := min(rows, height-y)
		band := w.staged[y*stride : (y+n)*stride]
		if err := w.conn.PutImage(w.window, w.gc, uint16(width), uint16(n), 0, int16(y), w.screen.RootDepth, band); err != nil {
			return err
		}
	}
	return w.conn.Flush()
}

// Close destroys the window, then frees the graphics context. Failures, for
// example on a severed connection, are logged and swallowed.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.staged = nil
	w.conn.OnExpose(w.window, nil)

	if err := w.conn.DestroyWindow(w.window); err != nil {
		log.WithError(err).Debug("failed to destroy window")
	}
	if err := w.conn.FreeGC(w.gc); err != nil {
		log.WithError(err).Debug("failed to free graphics context")
	}
	w.flush()
	return nil
}

// repaint runs on the connection's event goroutine
func (w *Window) repaint() {
	if err := w.Draw(); err != nil {
		log.WithError(err).Debug("failed to repaint exposed window")
	}
}

func (w *Window) flush() {
	if err := w.conn.Flush(); err != nil {
		log.WithError(err).Debug("failed to flush X connection")
	}
}

// bandRows returns how many rows of stride bytes fit in one PutImage request
func bandRows(maxRequestBytes, stride, height int) int {
	if maxRequestBytes <= putImageHeader || stride <= 0 {
		return height
	}
	return max((maxRequestBytes-putImageHeader)/stride, 1)
}
