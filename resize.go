package termview

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// areaKernel is a box filter. When downscaling, x/image/draw stretches the
// kernel over the source footprint of each destination pixel, so every output
// pixel is the average of the source area it covers.
var areaKernel = &xdraw.Kernel{
	Support: 0.5,
	At:      func(float64) float64 { return 1 },
}

// resize scales the buffer to width x height, keeping its layout. Shrinking
// uses area averaging; growing uses bilinear interpolation.
func (p *pixbuf) resize(width, height int) *pixbuf {
	if width <= 0 || height <= 0 || (width == p.width && height == p.height) {
		return p
	}

	src := p.toImage()
	var scaled image.Image
	if width <= p.width && height <= p.height {
		var dst draw.Image
		if p.layout == LayoutGray {
			dst = image.NewGray(image.Rect(0, 0, width, height))
		} else {
			dst = image.NewNRGBA(image.Rect(0, 0, width, height))
		}
		areaKernel.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		scaled = dst
	} else {
		scaled = resize.Resize(uint(width), uint(height), src, resize.Bilinear)
	}

	out := fromImage(scaled)
	return out.withLayout(p.layout)
}
