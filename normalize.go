package termview

import (
	"image"
	"sync"

	"github.com/apex/log"
)

// LoadOption customizes Load
type LoadOption func(*loader)

// WithDecoder replaces the file decoder
func WithDecoder(dec Decoder) LoadOption {
	return func(l *loader) { l.decoder = dec }
}

// WithOrientation replaces the EXIF orientation reader
func WithOrientation(r OrientationReader) LoadOption {
	return func(l *loader) { l.orientation = r }
}

// WithCache uses c instead of the shared cache for the configured directory
func WithCache(c *Cache) LoadOption {
	return func(l *loader) { l.cache = c }
}

type loader struct {
	decoder     Decoder
	orientation OrientationReader
	cache       *Cache
}

var (
	sharedCaches   = make(map[string]*Cache)
	sharedCachesMu sync.Mutex
)

// SharedCache returns the process-wide cache for dir
func SharedCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	sharedCachesMu.Lock()
	defer sharedCachesMu.Unlock()
	c, ok := sharedCaches[dir]
	if !ok {
		c = NewCache(dir)
		sharedCaches[dir] = c
	}
	return c
}

// Load decodes the image at path and normalizes it for cfg.Output: EXIF
// rotation, resize to the Dimensions bounds (or reuse of a cached resize),
// origin centering and colorspace conversion. Only decoding can fail.
func Load(path string, dims *Dimensions, cfg Config, opts ...LoadOption) (*PixelImage, error) {
	l := &loader{
		decoder:     fileDecoder{},
		orientation: exifOrientation{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if dims == nil {
		dims = NewDimensions(TerminalInfo{}, 0, 0, 0, 0, cfg.Scaler)
	}
	if l.cache == nil && !cfg.NoCache {
		l.cache = SharedCache(cfg.CacheDir)
	}

	img := &PixelImage{path: path, dims: dims, output: cfg.Output}

	if !cfg.NoCache {
		if p, ok := l.cache.Lookup(path); ok {
			if cacheFits(p, dims) {
				log.WithField("path", path).Debug("loading resized image from cache")
				img.pix = p
				img.fromCache = true
			} else {
				log.WithFields(log.Fields{
					"path":   path,
					"cached": [2]int{p.width, p.height},
				}).Debug("cached resize does not match the current bounds")
			}
		}
	}

	if img.pix == nil {
		p, err := decodeWith(l.decoder, path)
		if err != nil {
			log.WithError(err).Warn("unable to read image")
			return nil, err
		}
		log.WithField("path", path).Info("loading file")
		img.pix = p
		if value, ok := l.orientation.Orientation(path); ok {
			img.pix = img.pix.rotate(value)
		}
	}

	normalize(img, cfg, l.cache)
	return img, nil
}

// cacheFits reports whether a cached resize is what resizing the source for
// dims would produce: inside the bounds, left alone by the scaler and filling
// at least one bound. A copy shrunk for smaller bounds fills neither.
func cacheFits(p *pixbuf, dims *Dimensions) bool {
	maxWidth, maxHeight := dims.MaxWidthPixels(), dims.MaxHeightPixels()
	if dims.Scaler == ScaleNone || (maxWidth <= 0 && maxHeight <= 0) {
		return false
	}
	if (maxWidth > 0 && p.width > maxWidth) || (maxHeight > 0 && p.height > maxHeight) {
		return false
	}
	if w, h := dims.Scaler.TargetSize(p.width, p.height, maxWidth, maxHeight); w > 0 || h > 0 {
		return false
	}
	// one pixel of slack for truncation and even-size trimming
	fillsWidth := maxWidth > 0 && maxWidth-p.width <= 1
	fillsHeight := maxHeight > 0 && maxHeight-p.height <= 1
	return fillsWidth || fillsHeight
}

// NewImage normalizes an already decoded image. Nothing is cached and no
// rotation is applied.
func NewImage(src image.Image, dims *Dimensions, cfg Config) (*PixelImage, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, &LoadError{Path: "<memory>"}
	}
	if dims == nil {
		dims = NewDimensions(TerminalInfo{}, 0, 0, 0, 0, cfg.Scaler)
	}
	img := &PixelImage{path: "<memory>", dims: dims, output: cfg.Output, pix: fromImage(src)}
	cfg.NoCache = true
	normalize(img, cfg, nil)
	return img, nil
}

func normalize(img *PixelImage, cfg Config, cache *Cache) {
	resizeImage(img, cfg, cache)

	if cfg.OriginCenter {
		img.dims.Center(img.Width(), img.Height())
	}

	img.pix = convertColorspace(img.pix, cfg.Output)
	img.size = img.pix.size()
}

// resizeImage shrinks or grows the pixels to the Dimensions bounds
func resizeImage(img *PixelImage, cfg Config, cache *Cache) {
	if img.fromCache {
		return
	}

	dims := img.dims
	newWidth, newHeight := dims.Scaler.TargetSize(img.Width(), img.Height(), dims.MaxWidthPixels(), dims.MaxHeightPixels())
	if newWidth <= 0 && newHeight <= 0 {
		if !cfg.Output.NeedsEvenSize() {
			return
		}
		w, h := img.Width(), img.Height()
		if w%2 == 0 && h%2 == 0 {
			return
		}
		newWidth, newHeight = max(w-w%2, 2), max(h-h%2, 2)
	}

	log.WithFields(log.Fields{
		"from": [2]int{img.Width(), img.Height()},
		"to":   [2]int{newWidth, newHeight},
	}).Debug("resizing image")
	img.pix = img.pix.resize(newWidth, newHeight)

	if cfg.NoCache || cache == nil {
		log.Debug("caching is disabled")
		return
	}
	cache.Store(img.path, img.pix)
}

// convertColorspace arranges the channels the way output expects. Grayscale is
// always widened to BGRA first. Buffers already in the right layout are
// returned unchanged.
func convertColorspace(p *pixbuf, output Output) *pixbuf {
	if p.layout == LayoutGray {
		p = p.withLayout(LayoutBGRA)
	}

	switch {
	case output.BGRA():
		if p.layout == LayoutBGR {
			p = p.withLayout(LayoutBGRA)
		}
	case output == OutputKitty:
		switch p.layout {
		case LayoutBGRA:
			p = p.withLayout(LayoutRGBA)
		case LayoutBGR:
			p = p.withLayout(LayoutRGB)
		}
	case output == OutputSixel:
		if p.layout != LayoutRGB {
			p = p.withLayout(LayoutRGB)
		}
	}
	return p
}
