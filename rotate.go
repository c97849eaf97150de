package termview

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation values that need correcting, named by the correction applied
const (
	OrientationUpsideDown  = 3 // rotate 180°
	OrientationRotateRight = 6 // rotate 90° clockwise
	OrientationRotateLeft  = 8 // rotate 90° counter-clockwise
)

// OrientationReader reads the EXIF orientation of an image file. ok is false
// when the file carries no orientation.
type OrientationReader interface {
	Orientation(path string) (value int, ok bool)
}

// OrientationFunc adapts a function to OrientationReader
type OrientationFunc func(path string) (int, bool)

func (f OrientationFunc) Orientation(path string) (int, bool) { return f(path) }

// exifOrientation reads the orientation tag with goexif
type exifOrientation struct{}

func (exifOrientation) Orientation(path string) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 0, false
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, false
	}
	value, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return value, true
}

// rotate applies the correction for an orientation value. Unknown values
// leave the buffer untouched.
func (p *pixbuf) rotate(orientation int) *pixbuf {
	switch orientation {
	case OrientationUpsideDown:
		return p.rotate180()
	case OrientationRotateRight:
		return p.rotate90(true)
	case OrientationRotateLeft:
		return p.rotate90(false)
	default:
		return p
	}
}

func (p *pixbuf) rotate180() *pixbuf {
	out := newPixbuf(p.width, p.height, p.layout)
	ch := p.channels()
	n := p.width * p.height
	for i := range n {
		copy(out.pix[(n-1-i)*ch:(n-i)*ch], p.pix[i*ch:(i+1)*ch])
	}
	return out
}

// rotate90 turns the buffer a quarter turn, clockwise or counter-clockwise
func (p *pixbuf) rotate90(clockwise bool) *pixbuf {
	out := newPixbuf(p.height, p.width, p.layout)
	ch := p.channels()
	for y := range p.height {
		for x := range p.width {
			var nx, ny int
			if clockwise {
				nx, ny = p.height-1-y, x
			} else {
				nx, ny = y, p.width-1-x
			}
			src := (y*p.width + x) * ch
			dst := (ny*out.width + nx) * ch
			copy(out.pix[dst:dst+ch], p.pix[src:src+ch])
		}
	}
	return out
}
