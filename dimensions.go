package termview

// Fallback cell size used when the terminal did not report font metrics
const (
	DefaultFontWidth  = 8
	DefaultFontHeight = 16
)

// Dimensions places an image on the terminal grid.
//
// X and Y are the anchor cell (0-based column and row). MaxWidth and MaxHeight
// bound the image in cells; zero means unbounded. Dimensions are shared by an
// Image and the renderer built on top of it, and only Center mutates them.
type Dimensions struct {
	Terminal TerminalInfo

	X int
	Y int

	PaddingHorizontal int
	PaddingVertical   int

	MaxWidth  int
	MaxHeight int
	Scaler    ScaleMode

	origX int
	origY int
}

// NewDimensions creates placement information anchored at cell (x, y)
func NewDimensions(term TerminalInfo, x, y, maxWidth, maxHeight int, scaler ScaleMode) *Dimensions {
	x, y = max(x, 0), max(y, 0)
	return &Dimensions{
		Terminal:  term,
		X:         x,
		Y:         y,
		MaxWidth:  max(maxWidth, 0),
		MaxHeight: max(maxHeight, 0),
		Scaler:    scaler,
		origX:     x,
		origY:     y,
	}
}

// fontSize returns usable cell metrics, never zero
func (d *Dimensions) fontSize() (width, height int) {
	width, height = d.Terminal.FontWidth, d.Terminal.FontHeight
	if width <= 0 {
		width = DefaultFontWidth
	}
	if height <= 0 {
		height = DefaultFontHeight
	}
	return width, height
}

// MaxWidthPixels returns the horizontal pixel bound, or 0 when unbounded
func (d *Dimensions) MaxWidthPixels() int {
	fw, _ := d.fontSize()
	return d.MaxWidth * fw
}

// MaxHeightPixels returns the vertical pixel bound, or 0 when unbounded
func (d *Dimensions) MaxHeightPixels() int {
	_, fh := d.fontSize()
	return d.MaxHeight * fh
}

// Cells returns how many terminal cells an image of the given pixel size covers.
// Partial cells are rounded up so the image is never clipped.
func (d *Dimensions) Cells(pixelWidth, pixelHeight int) (cols, rows int) {
	fw, fh := d.fontSize()
	return ceilDiv(pixelWidth, fw), ceilDiv(pixelHeight, fh)
}

// XPixels returns the anchor column in pixels
func (d *Dimensions) XPixels() int {
	fw, _ := d.fontSize()
	return d.X * fw
}

// YPixels returns the anchor row in pixels
func (d *Dimensions) YPixels() int {
	_, fh := d.fontSize()
	return d.Y * fh
}

// PixelOffset returns where an overlay window should be placed relative to the
// terminal window, padding included
func (d *Dimensions) PixelOffset() (x, y int) {
	return d.XPixels() + d.PaddingHorizontal, d.YPixels() + d.PaddingVertical
}

// Center moves the anchor so the image's middle, not its top-left corner, sits
// on the requested cell. The shift is always taken from the original anchor,
// so calling Center again after a resize replaces the previous adjustment.
func (d *Dimensions) Center(pixelWidth, pixelHeight int) {
	cols, rows := d.Cells(pixelWidth, pixelHeight)
	d.X = max(d.origX-cols/2, 0)
	d.Y = max(d.origY-rows/2, 0)
}

// Origin returns the anchor the Dimensions were created with
func (d *Dimensions) Origin() (x, y int) {
	return d.origX, d.origY
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
