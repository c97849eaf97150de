package x11

import (
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// putImageHeader is the fixed part of a PutImage request in bytes
const putImageHeader = 24

// Display is a Conn backed by an xgb connection. xgb serializes requests
// internally, so a Display can be shared by any number of windows.
//
// xgb stops reading replies once its event queue is full, so a Display
// drains every event for as long as the connection is open and hands
// exposes of registered windows to a separate goroutine.
type Display struct {
	conn   *xgb.Conn
	screen Screen

	mu       sync.Mutex
	handlers map[uint32]func()
	pending  map[uint32]bool
	wake     chan struct{}
	done     chan struct{}
}

var _ Conn = (*Display)(nil)

// Open connects to the X server named by display, or $DISPLAY when empty
func Open(display string) (*Display, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, &BackendError{Op: "connect", Err: err}
	}

	setup := xproto.Setup(conn)
	s := setup.DefaultScreen(conn)
	d := newDisplay(conn, Screen{
		Root:            uint32(s.Root),
		RootDepth:       s.RootDepth,
		RootVisual:      uint32(s.RootVisual),
		BlackPixel:      s.BlackPixel,
		DefaultColormap: uint32(s.DefaultColormap),
		MaxRequestBytes: int(setup.MaximumRequestLength) * 4,
	})
	go d.pump()
	return d, nil
}

func newDisplay(conn *xgb.Conn, screen Screen) *Display {
	d := &Display{
		conn:     conn,
		screen:   screen,
		handlers: make(map[uint32]func()),
		pending:  make(map[uint32]bool),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go d.dispatch()
	return d
}

// Screen returns the default screen
func (d *Display) Screen() Screen { return d.screen }

// Close drops the connection to the server and waits for the event
// goroutines to stop
func (d *Display) Close() {
	d.conn.Close()
	<-d.done
}

// pump reads events until the connection closes
func (d *Display) pump() {
	defer close(d.wake)
	for {
		ev, err := d.conn.WaitForEvent()
		switch {
		case ev == nil && err == nil:
			return
		case err != nil:
			log.WithField("error", err.Error()).Debug("X error")
		default:
			// only the last expose of a series triggers a repaint
			if e, ok := ev.(xproto.ExposeEvent); ok && e.Count == 0 {
				d.expose(uint32(e.Window))
			}
		}
	}
}

// expose queues a repaint of window without blocking; repeated exposes of
// a window collapse into one
func (d *Display) expose(window uint32) {
	d.mu.Lock()
	if _, ok := d.handlers[window]; !ok {
		d.mu.Unlock()
		return
	}
	d.pending[window] = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// dispatch runs the handlers of pending windows until wake is closed
func (d *Display) dispatch() {
	defer close(d.done)
	for range d.wake {
		d.mu.Lock()
		var fns []func()
		for window := range d.pending {
			if fn, ok := d.handlers[window]; ok {
				fns = append(fns, fn)
			}
		}
		clear(d.pending)
		d.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
}

func (d *Display) OnExpose(window uint32, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if fn == nil {
		delete(d.handlers, window)
		delete(d.pending, window)
		return
	}
	d.handlers[window] = fn
}

func (d *Display) NewWindowID() (uint32, error) {
	id, err := xproto.NewWindowId(d.conn)
	return uint32(id), err
}

func (d *Display) NewGCID() (uint32, error) {
	id, err := xproto.NewGcontextId(d.conn)
	return uint32(id), err
}

func (d *Display) CreateWindow(id uint32, a WindowAttrs) error {
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwEventMask | xproto.CwColormap)
	var events uint32
	if a.ExposureOnly {
		events = xproto.EventMaskExposure
	}
	// values must follow the bit order of mask
	values := []uint32{a.BackPixel, a.BorderPixel, events, a.Colormap}
	return xproto.CreateWindowChecked(d.conn, a.Depth, xproto.Window(id), xproto.Window(a.Parent),
		a.X, a.Y, a.Width, a.Height, 0, xproto.WindowClassInputOutput,
		xproto.Visualid(a.Visual), mask, values).Check()
}

func (d *Display) CreateGC(id, drawable uint32) error {
	return xproto.CreateGCChecked(d.conn, xproto.Gcontext(id), xproto.Drawable(drawable), 0, nil).Check()
}

func (d *Display) MapWindow(window uint32) error {
	xproto.MapWindow(d.conn, xproto.Window(window))
	return nil
}

func (d *Display) UnmapWindow(window uint32) error {
	xproto.UnmapWindow(d.conn, xproto.Window(window))
	return nil
}

func (d *Display) PutImage(drawable, gc uint32, width, height uint16, x, y int16, depth byte, data []byte) error {
	xproto.PutImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(drawable), xproto.Gcontext(gc),
		width, height, x, y, 0, depth, data)
	return nil
}

func (d *Display) SendExpose(window uint32, width, height uint16) error {
	ev := xproto.ExposeEvent{
		Window: xproto.Window(window),
		Width:  width,
		Height: height,
	}
	xproto.SendEvent(d.conn, false, xproto.Window(window), xproto.EventMaskExposure, string(ev.Bytes()))
	return nil
}

func (d *Display) DestroyWindow(window uint32) error {
	xproto.DestroyWindow(d.conn, xproto.Window(window))
	return nil
}

func (d *Display) FreeGC(gc uint32) error {
	xproto.FreeGC(d.conn, xproto.Gcontext(gc))
	return nil
}

// Flush round-trips to the server so every queued request has been handled
func (d *Display) Flush() error {
	if _, err := xproto.GetInputFocus(d.conn).Reply(); err != nil {
		return fmt.Errorf("failed to sync with X server: %w", err)
	}
	return nil
}
