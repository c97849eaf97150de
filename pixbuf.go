package termview

import (
	"image"
	"image/color"
	"image/draw"
)

// Layout is the channel order of a pixel buffer
type Layout int

const (
	LayoutGray Layout = iota
	LayoutBGR
	LayoutBGRA
	LayoutRGB
	LayoutRGBA
)

// Channels returns the number of 8-bit samples per pixel
func (l Layout) Channels() int {
	switch l {
	case LayoutGray:
		return 1
	case LayoutBGR, LayoutRGB:
		return 3
	default:
		return 4
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutGray:
		return "gray"
	case LayoutBGR:
		return "bgr"
	case LayoutBGRA:
		return "bgra"
	case LayoutRGB:
		return "rgb"
	case LayoutRGBA:
		return "rgba"
	}
	return "unknown"
}

// pixbuf is a tightly packed, row-major 8-bit pixel buffer
type pixbuf struct {
	width  int
	height int
	layout Layout
	pix    []byte
}

func newPixbuf(width, height int, layout Layout) *pixbuf {
	return &pixbuf{
		width:  width,
		height: height,
		layout: layout,
		pix:    make([]byte, width*height*layout.Channels()),
	}
}

func (p *pixbuf) channels() int { return p.layout.Channels() }

func (p *pixbuf) stride() int { return p.width * p.channels() }

func (p *pixbuf) size() int { return len(p.pix) }

// fromImage copies a decoded image into a pixel buffer, choosing a gray, BGR
// or BGRA layout the way the source was stored
func fromImage(img image.Image) *pixbuf {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch m := img.(type) {
	case *image.Gray:
		p := newPixbuf(w, h, LayoutGray)
		for y := range h {
			copy(p.pix[y*w:(y+1)*w], m.Pix[y*m.Stride:y*m.Stride+w])
		}
		return p
	case *image.Gray16:
		p := newPixbuf(w, h, LayoutGray)
		for y := range h {
			for x := range w {
				p.pix[y*w+x] = uint8(m.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return p
	case *image.NRGBA:
		// straight alpha is copied as is; draw.Draw would premultiply it
		p := newPixbuf(w, h, LayoutBGRA)
		for y := range h {
			row := m.Pix[y*m.Stride : y*m.Stride+w*4]
			out := p.pix[y*w*4 : (y+1)*w*4]
			for i := 0; i < len(row); i += 4 {
				out[i+0], out[i+1], out[i+2], out[i+3] = row[i+2], row[i+1], row[i+0], row[i+3]
			}
		}
		return p
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	layout := LayoutBGR
	if hasAlpha(img) {
		layout = LayoutBGRA
	}
	p := newPixbuf(w, h, layout)
	ch := p.channels()
	for i, j := 0, 0; i < len(nrgba.Pix); i, j = i+4, j+ch {
		p.pix[j+0] = nrgba.Pix[i+2]
		p.pix[j+1] = nrgba.Pix[i+1]
		p.pix[j+2] = nrgba.Pix[i+0]
		if ch == 4 {
			p.pix[j+3] = nrgba.Pix[i+3]
		}
	}
	return p
}

// hasAlpha reports whether the source carries an alpha channel
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		return true
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.YCbCr, *image.CMYK:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// toImage returns the buffer as an image.Image with true colors, suitable for
// encoding, scaling or glyph rendering
func (p *pixbuf) toImage() image.Image {
	if p.layout == LayoutGray {
		return &image.Gray{Pix: p.pix, Stride: p.width, Rect: image.Rect(0, 0, p.width, p.height)}
	}
	if p.layout == LayoutRGBA {
		return &image.NRGBA{Pix: p.pix, Stride: p.stride(), Rect: image.Rect(0, 0, p.width, p.height)}
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	ch := p.channels()
	swap := p.layout == LayoutBGR || p.layout == LayoutBGRA
	for i, j := 0, 0; j < len(p.pix); i, j = i+4, j+ch {
		if swap {
			nrgba.Pix[i+0], nrgba.Pix[i+1], nrgba.Pix[i+2] = p.pix[j+2], p.pix[j+1], p.pix[j+0]
		} else {
			nrgba.Pix[i+0], nrgba.Pix[i+1], nrgba.Pix[i+2] = p.pix[j+0], p.pix[j+1], p.pix[j+2]
		}
		if ch == 4 {
			nrgba.Pix[i+3] = p.pix[j+3]
		} else {
			nrgba.Pix[i+3] = 0xff
		}
	}
	return nrgba
}

// cacheImage returns an image whose concrete type survives an encode/decode
// round trip with the same channel count: NRGBA for 4 channels, opaque RGBA
// for 3, Gray for 1
func (p *pixbuf) cacheImage() image.Image {
	img := p.toImage()
	if p.channels() != 3 {
		return img
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	return rgba
}

// withLayout converts between layouts of the same family of samples
func (p *pixbuf) withLayout(layout Layout) *pixbuf {
	if p.layout == layout {
		return p
	}
	out := newPixbuf(p.width, p.height, layout)
	src, dst := p.channels(), out.channels()
	n := p.width * p.height
	for i := range n {
		r, g, b, a := p.sample(i*src)
		o := i * dst
		switch layout {
		case LayoutGray:
			out.pix[o] = color.GrayModel.Convert(color.NRGBA{R: r, G: g, B: b, A: 0xff}).(color.Gray).Y
		case LayoutBGR:
			out.pix[o+0], out.pix[o+1], out.pix[o+2] = b, g, r
		case LayoutBGRA:
			out.pix[o+0], out.pix[o+1], out.pix[o+2], out.pix[o+3] = b, g, r, a
		case LayoutRGB:
			out.pix[o+0], out.pix[o+1], out.pix[o+2] = r, g, b
		case LayoutRGBA:
			out.pix[o+0], out.pix[o+1], out.pix[o+2], out.pix[o+3] = r, g, b, a
		}
	}
	return out
}

// sample reads one pixel as straight RGBA
func (p *pixbuf) sample(off int) (r, g, b, a uint8) {
	s := p.pix[off:]
	switch p.layout {
	case LayoutGray:
		return s[0], s[0], s[0], 0xff
	case LayoutBGR:
		return s[2], s[1], s[0], 0xff
	case LayoutBGRA:
		return s[2], s[1], s[0], s[3]
	case LayoutRGB:
		return s[0], s[1], s[2], 0xff
	default:
		return s[0], s[1], s[2], s[3]
	}
}

// clone returns a deep copy
func (p *pixbuf) clone() *pixbuf {
	out := *p
	out.pix = append([]byte(nil), p.pix...)
	return &out
}
