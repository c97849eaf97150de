package termview

import (
	"bufio"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/mosaic"
)

// ErrClosed is returned when drawing with a renderer that was closed
var ErrClosed = errors.New("renderer closed")

// LineRenderer turns an image into terminal rows, top to bottom
type LineRenderer interface {
	RenderLines(img image.Image, cols, rows int) []string
}

// mosaicLines renders with unicode block glyphs; every glyph is a single cell wide
// and covers a 2x2 block of the sampled image
type mosaicLines struct{}

func (mosaicLines) RenderLines(img image.Image, cols, rows int) []string {
	m := mosaic.New().Width(cols).Height(rows).Scale(2)
	output := m.Render(img)
	return strings.Split(strings.TrimSuffix(output, "\n"), "\n")
}

// CanvasOption customizes a Canvas
type CanvasOption func(*Canvas)

// WithWriter sends output to w instead of stdout
func WithWriter(w io.Writer) CanvasOption {
	return func(c *Canvas) { c.out = w }
}

// WithLineRenderer replaces the glyph renderer
func WithLineRenderer(r LineRenderer) CanvasOption {
	return func(c *Canvas) { c.lines = r }
}

// WithProfile overrides the color profile detected for the terminal
func WithProfile(p colorprofile.Profile) CanvasOption {
	return func(c *Canvas) { c.profile = p; c.profileSet = true }
}

// Canvas draws an image into the terminal grid with block glyphs.
//
// All Canvas instances sharing a terminal must share one mutex: drawing and
// erasing hold it for the whole save cursor, write rows, flush, restore
// cursor sequence.
type Canvas struct {
	mu *sync.Mutex

	image   Image
	imageMu sync.Mutex

	out        io.Writer
	buf        *bufio.Writer
	colors     io.Writer
	lines      LineRenderer
	profile    colorprofile.Profile
	profileSet bool

	// geometry fixed at construction, 0-based cells
	x, y       int
	cols, rows int

	closed bool
}

var _ Renderer = (*Canvas)(nil)

// NewCanvas creates a canvas renderer for img. stdout is the mutex guarding
// the terminal output stream, shared by every canvas in the process.
func NewCanvas(img Image, stdout *sync.Mutex, opts ...CanvasOption) *Canvas {
	dims := img.Dimensions()
	c := &Canvas{
		mu:    stdout,
		image: img,
		out:   os.Stdout,
		lines: mosaicLines{},
		x:     dims.X,
		y:     dims.Y,
	}
	c.cols, c.rows = dims.Cells(img.Width(), img.Height())
	for _, opt := range opts {
		opt(c)
	}
	if c.mu == nil {
		c.mu = &sync.Mutex{}
	}
	if !c.profileSet {
		c.profile = dims.Terminal.Profile
	}
	c.buf = bufio.NewWriter(c.out)
	c.colors = &colorprofile.Writer{Forward: c.buf, Profile: c.profile}
	return c
}

// Geometry returns the cell rectangle the canvas draws into
func (c *Canvas) Geometry() (x, y, cols, rows int) {
	return c.x, c.y, c.cols, c.rows
}

// SetImage replaces the image drawn by the next Draw. The cell rectangle
// stays the one computed at construction.
func (c *Canvas) SetImage(img Image) {
	c.imageMu.Lock()
	c.image = img
	c.imageMu.Unlock()
}

// Draw renders the image and writes it row by row at the anchor
func (c *Canvas) Draw() error {
	c.imageMu.Lock()
	img := c.image
	c.imageMu.Unlock()

	rows := c.lines.RenderLines(sourceImage(img), c.cols, c.rows)
	// never write outside the rectangle Close erases
	if len(rows) > c.rows {
		rows = rows[:c.rows]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	return c.withSavedCursor(func() error {
		for i, row := range rows {
			if _, err := c.buf.WriteString(ansi.CursorPosition(c.x+1, c.y+1+i)); err != nil {
				return err
			}
			if _, err := io.WriteString(c.colors, row); err != nil {
				return err
			}
		}
		return c.buf.Flush()
	})
}

// Close erases the cell rectangle computed at construction. It never fails;
// write errors are logged.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.withSavedCursor(func() error {
		erase := ansi.EraseCharacter(c.cols)
		for i := range c.rows {
			if _, err := c.buf.WriteString(ansi.CursorPosition(c.x+1, c.y+1+i) + erase); err != nil {
				return err
			}
		}
		return c.buf.Flush()
	})
	if err != nil {
		log.WithError(err).Debug("failed to clear terminal area")
	}
	return nil
}

// withSavedCursor runs fn between a cursor save and restore. The caller must
// hold the output mutex.
func (c *Canvas) withSavedCursor(fn func() error) (err error) {
	if _, err := c.buf.WriteString(ansi.SaveCursor); err != nil {
		return err
	}
	defer func() {
		c.buf.WriteString(ansi.RestoreCursor)
		if ferr := c.buf.Flush(); err == nil {
			err = ferr
		}
	}()
	return fn()
}

// sourceImage exposes the pixels of img to the glyph renderer
func sourceImage(img Image) image.Image {
	if p, ok := img.(*PixelImage); ok {
		return p.Image()
	}
	return &bgraImage{
		pix:    img.Data(),
		stride: img.Width() * 4,
		rect:   image.Rect(0, 0, img.Width(), img.Height()),
	}
}

// bgraImage reads a BGRA buffer without copying it
type bgraImage struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

func (b *bgraImage) ColorModel() color.Model { return color.NRGBAModel }

func (b *bgraImage) Bounds() image.Rectangle { return b.rect }

func (b *bgraImage) At(x, y int) color.Color {
	if !image.Pt(x, y).In(b.rect) {
		return color.NRGBA{}
	}
	i := y*b.stride + x*4
	return color.NRGBA{R: b.pix[i+2], G: b.pix[i+1], B: b.pix[i], A: b.pix[i+3]}
}
