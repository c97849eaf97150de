package termview

import (
	"fmt"
	"sync"

	"github.com/blacktop/go-termview/x11"
)

// Renderer presents an Image. Close must leave the terminal or window system
// clean and never fails the caller.
type Renderer interface {
	Draw() error
	Close() error
}

// Overlay is a Renderer backed by a window that can be shown and hidden
type Overlay interface {
	Renderer
	Show()
	Hide()
	Toggle()
	// GenerateFrame stages the current image pixels for the next Draw
	GenerateFrame() error
}

var _ Overlay = (*x11.Window)(nil)

// RendererDeps carries the shared resources renderers are bound to
type RendererDeps struct {
	// Stdout guards the terminal output stream for canvas renderers
	Stdout *sync.Mutex
	// CanvasOptions are passed to NewCanvas
	CanvasOptions []CanvasOption

	// Conn and Screen are the X connection shared by window renderers
	Conn   x11.Conn
	Screen x11.Screen
	// Parent is the terminal window; WINDOWID or the root window when zero
	Parent uint32
}

// NewRenderer builds the renderer matching cfg.Output for img
func NewRenderer(img Image, cfg Config, deps RendererDeps) (Renderer, error) {
	switch cfg.Output {
	case OutputCanvas:
		if deps.Stdout == nil {
			return nil, fmt.Errorf("canvas output requires a stdout mutex")
		}
		return NewCanvas(img, deps.Stdout, deps.CanvasOptions...), nil
	case OutputX11:
		if deps.Conn == nil {
			return nil, &x11.BackendError{Op: "connect", Err: fmt.Errorf("no X connection")}
		}
		parent := deps.Parent
		if parent == 0 {
			if id, ok := x11.ParentFromEnv(); ok {
				parent = id
			} else {
				parent = deps.Screen.Root
			}
		}
		x, y := img.Dimensions().PixelOffset()
		return x11.NewWindow(deps.Conn, deps.Screen, parent, img, x, y)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOutput, cfg.Output)
	}
}
