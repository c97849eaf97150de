package termview

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded, normalized image ready to be handed to a renderer
type Image interface {
	Filename() string
	Dimensions() *Dimensions
	Width() int
	Height() int
	// Size is the byte length of Data
	Size() int
	Data() []byte
	Channels() int
}

// PixelImage is an Image backed by a raw pixel buffer
type PixelImage struct {
	path      string
	dims      *Dimensions
	output    Output
	pix       *pixbuf
	size      int
	fromCache bool
}

var _ Image = (*PixelImage)(nil)

func (i *PixelImage) Filename() string        { return i.path }
func (i *PixelImage) Dimensions() *Dimensions { return i.dims }
func (i *PixelImage) Width() int              { return i.pix.width }
func (i *PixelImage) Height() int             { return i.pix.height }
func (i *PixelImage) Size() int               { return i.size }
func (i *PixelImage) Data() []byte            { return i.pix.pix }
func (i *PixelImage) Channels() int           { return i.pix.channels() }

// Layout returns the channel order of Data
func (i *PixelImage) Layout() Layout { return i.pix.layout }

// Output returns the backend the pixels were normalized for
func (i *PixelImage) Output() Output { return i.output }

// FromCache reports whether the pixels came from a previously resized copy
func (i *PixelImage) FromCache() bool { return i.fromCache }

// Image returns the pixels as an image.Image with true colors
func (i *PixelImage) Image() image.Image { return i.pix.toImage() }

func (i *PixelImage) String() string {
	return fmt.Sprintf("%s %dx%d %s (%d bytes, cached=%t)",
		i.path, i.Width(), i.Height(), i.pix.layout, i.size, i.fromCache)
}

// Decoder turns an image file into pixels
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(path string) (image.Image, error)

func (f DecoderFunc) Decode(path string) (image.Image, error) { return f(path) }

// fileDecoder decodes any format registered with the image package
type fileDecoder struct{}

func (fileDecoder) Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func decodeFile(path string) (*pixbuf, error) {
	return decodeWith(fileDecoder{}, path)
}

func decodeWith(dec Decoder, path string) (*pixbuf, error) {
	img, err := dec.Decode(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if img == nil || img.Bounds().Empty() {
		return nil, &LoadError{Path: path}
	}
	return fromImage(img), nil
}
