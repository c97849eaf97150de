package termview

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func noCacheConfig(output Output) Config {
	cfg := DefaultConfig()
	cfg.Output = output
	cfg.NoCache = true
	return cfg
}

func decoderFor(img image.Image) LoadOption {
	return WithDecoder(DecoderFunc(func(string) (image.Image, error) { return img, nil }))
}

func TestLoadColorspace(t *testing.T) {
	tests := []struct {
		name     string
		img      image.Image
		output   Output
		expected Layout
	}{
		{name: "x11 widens bgr", img: createTestImage(100, 50), output: OutputX11, expected: LayoutBGRA},
		{name: "canvas widens bgr", img: createTestImage(10, 10), output: OutputCanvas, expected: LayoutBGRA},
		{name: "wayland keeps bgra", img: createAlphaImage(10, 10), output: OutputWayland, expected: LayoutBGRA},
		{name: "kitty swaps bgra", img: createAlphaImage(10, 10), output: OutputKitty, expected: LayoutRGBA},
		{name: "kitty swaps bgr", img: createTestImage(10, 10), output: OutputKitty, expected: LayoutRGB},
		{name: "gray becomes bgra for x11", img: createGrayImage(10, 10), output: OutputX11, expected: LayoutBGRA},
		{name: "gray becomes rgba for kitty", img: createGrayImage(10, 10), output: OutputKitty, expected: LayoutRGBA},
		{name: "sixel wants rgb", img: createAlphaImage(10, 10), output: OutputSixel, expected: LayoutRGB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)
			img, err := Load("test.png", dims, noCacheConfig(tt.output), decoderFor(tt.img), WithOrientation(OrientationFunc(func(string) (int, bool) { return 0, false })))
			require.NoError(t, err)

			b := tt.img.Bounds()
			assert.Equal(t, tt.expected, img.Layout())
			assert.Equal(t, tt.expected.Channels(), img.Channels())
			assert.Equal(t, b.Dx()*b.Dy()*tt.expected.Channels(), img.Size())
			assert.Equal(t, img.Size(), len(img.Data()))
		})
	}
}

func TestLoadX11Scenario(t *testing.T) {
	dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)
	img, err := Load("test.png", dims, noCacheConfig(OutputX11), decoderFor(createTestImage(100, 50)))
	require.NoError(t, err)

	assert.Equal(t, 100, img.Width())
	assert.Equal(t, 50, img.Height())
	assert.Equal(t, 4, img.Channels())
	assert.Equal(t, 20000, img.Size())
}

func TestConvertColorspaceIdempotent(t *testing.T) {
	for _, output := range []Output{OutputCanvas, OutputX11, OutputWayland, OutputKitty, OutputSixel} {
		t.Run(output.String(), func(t *testing.T) {
			once := convertColorspace(fromImage(createAlphaImage(5, 5)), output)
			twice := convertColorspace(once.clone(), output)
			assert.Equal(t, once.layout, twice.layout)
			assert.Equal(t, once.pix, twice.pix)
		})
	}
}

func TestLoadKittyKeepsSize(t *testing.T) {
	src := createAlphaImage(10, 10)
	dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)

	x11, err := Load("a.png", dims, noCacheConfig(OutputX11), decoderFor(src))
	require.NoError(t, err)
	kitty, err := Load("a.png", dims, noCacheConfig(OutputKitty), decoderFor(src))
	require.NoError(t, err)

	assert.Equal(t, x11.Size(), kitty.Size())
	// B and R swapped, G and A untouched
	assert.Equal(t, x11.Data()[0], kitty.Data()[2])
	assert.Equal(t, x11.Data()[1], kitty.Data()[1])
	assert.Equal(t, x11.Data()[2], kitty.Data()[0])
	assert.Equal(t, x11.Data()[3], kitty.Data()[3])
}

func TestLoadResize(t *testing.T) {
	t.Run("contain shrinks to max cells", func(t *testing.T) {
		dims := NewDimensions(testTerminal(), 0, 0, 10, 10, ScaleContain) // 80x160 px
		img, err := Load("big.png", dims, noCacheConfig(OutputX11), decoderFor(createTestImage(400, 200)))
		require.NoError(t, err)
		assert.Equal(t, 80, img.Width())
		assert.Equal(t, 40, img.Height())
		assert.Equal(t, 80*40*4, img.Size())
	})

	t.Run("none keeps the original size", func(t *testing.T) {
		dims := NewDimensions(testTerminal(), 0, 0, 10, 10, ScaleNone)
		img, err := Load("big.png", dims, noCacheConfig(OutputX11), decoderFor(createTestImage(400, 200)))
		require.NoError(t, err)
		assert.Equal(t, 400, img.Width())
		assert.Equal(t, 200, img.Height())
	})

	t.Run("wayland trims to even size", func(t *testing.T) {
		dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)
		img, err := Load("odd.png", dims, noCacheConfig(OutputWayland), decoderFor(createTestImage(11, 7)))
		require.NoError(t, err)
		assert.Equal(t, 10, img.Width())
		assert.Equal(t, 6, img.Height())
	})

	t.Run("wayland keeps at least two pixels", func(t *testing.T) {
		dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)
		img, err := Load("tiny.png", dims, noCacheConfig(OutputWayland), decoderFor(createTestImage(1, 3)))
		require.NoError(t, err)
		assert.Equal(t, 2, img.Width())
		assert.Equal(t, 2, img.Height())
	})
}

func TestLoadRotation(t *testing.T) {
	orientation := WithOrientation(OrientationFunc(func(string) (int, bool) {
		return OrientationRotateRight, true
	}))
	dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)

	img, err := Load("photo.jpg", dims, noCacheConfig(OutputX11), decoderFor(createTestImage(30, 20)), orientation)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Width())
	assert.Equal(t, 30, img.Height())
}

func TestLoadOriginCenter(t *testing.T) {
	cfg := noCacheConfig(OutputX11)
	cfg.OriginCenter = true

	dims := NewDimensions(testTerminal(), 20, 10, 0, 0, ScaleContain)
	img, err := Load("test.png", dims, cfg, decoderFor(createTestImage(100, 50)))
	require.NoError(t, err)

	assert.Same(t, dims, img.Dimensions())
	assert.Equal(t, 14, dims.X)
	assert.Equal(t, 8, dims.Y)
}

func TestLoadErrors(t *testing.T) {
	t.Run("decoder failure", func(t *testing.T) {
		boom := errors.New("boom")
		dec := WithDecoder(DecoderFunc(func(string) (image.Image, error) { return nil, boom }))
		_, err := Load("broken.png", nil, noCacheConfig(OutputX11), dec)

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "broken.png", loadErr.Path)
		assert.ErrorIs(t, err, ErrLoad)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
		_, err := Load(path, nil, noCacheConfig(OutputX11))
		assert.ErrorIs(t, err, ErrLoad)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.png"), nil, noCacheConfig(OutputX11))
		assert.ErrorIs(t, err, ErrLoad)
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := Load("empty.png", nil, noCacheConfig(OutputX11), decoderFor(image.NewRGBA(image.Rect(0, 0, 0, 0))))
		assert.ErrorIs(t, err, ErrLoad)
	})
}

func TestLoadFromFile(t *testing.T) {
	path := writePNG(t, createAlphaImage(16, 8))

	img, err := Load(path, nil, noCacheConfig(OutputCanvas))
	require.NoError(t, err)
	assert.Equal(t, path, img.Filename())
	assert.Equal(t, 16, img.Width())
	assert.Equal(t, 8, img.Height())
	assert.Equal(t, LayoutBGRA, img.Layout())
	assert.False(t, img.FromCache())
}

func TestLoadCacheRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{name: "three channels", img: createTestImage(64, 32)},
		{name: "four channels", img: createAlphaImage(64, 32)},
		{name: "gray", img: createGrayImage(64, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePNG(t, tt.img)
			cfg := DefaultConfig()
			cfg.Output = OutputX11
			dims := NewDimensions(testTerminal(), 0, 0, 2, 1, ScaleContain) // 16x16 px

			first, err := Load(path, dims, cfg, WithCache(NewCache(t.TempDir())))
			require.NoError(t, err)
			assert.False(t, first.FromCache())
			assert.Equal(t, 16, first.Width())
			assert.Equal(t, 8, first.Height())

			// a fresh cache on the same directory only has the file on disk
			cache := NewCache(t.TempDir())
			_, err = Load(path, dims, cfg, WithCache(cache))
			require.NoError(t, err)
			cache.Wait()
			_, err = os.Stat(cache.Path(path))
			require.NoError(t, err)

			reopened := NewCache(cache.Dir)
			second, err := Load(path, dims, cfg, WithCache(reopened))
			require.NoError(t, err)
			assert.True(t, second.FromCache())
			assert.Equal(t, first.Width(), second.Width())
			assert.Equal(t, first.Height(), second.Height())
			assert.Equal(t, first.Layout(), second.Layout())
			assert.Equal(t, first.Size(), second.Size())
			assert.Equal(t, first.Data(), second.Data())
		})
	}
}

func TestLoadCacheFollowsBounds(t *testing.T) {
	path := writePNG(t, createTestImage(64, 32))
	cache := NewCache(t.TempDir())
	cfg := DefaultConfig()
	cfg.Output = OutputX11

	load := func(cols, rows int) *PixelImage {
		t.Helper()
		dims := NewDimensions(testTerminal(), 0, 0, cols, rows, ScaleContain)
		img, err := Load(path, dims, cfg, WithCache(cache))
		require.NoError(t, err)
		cache.Wait()
		return img
	}

	first := load(4, 4) // 32x64 px
	assert.False(t, first.FromCache())
	assert.Equal(t, [2]int{32, 16}, [2]int{first.Width(), first.Height()})

	// tighter bounds must not reuse the larger copy
	smaller := load(1, 1) // 8x16 px
	assert.False(t, smaller.FromCache())
	assert.Equal(t, [2]int{8, 4}, [2]int{smaller.Width(), smaller.Height()})

	again := load(1, 1)
	assert.True(t, again.FromCache())
	assert.Equal(t, [2]int{8, 4}, [2]int{again.Width(), again.Height()})

	// looser bounds must not reuse the smaller copy either
	larger := load(4, 4)
	assert.False(t, larger.FromCache())
	assert.Equal(t, [2]int{32, 16}, [2]int{larger.Width(), larger.Height()})
}

func TestCacheFits(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cols, rows    int
		scaler        ScaleMode
		expected      bool
	}{
		{name: "fills width", width: 16, height: 8, cols: 2, rows: 1, scaler: ScaleContain, expected: true},
		{name: "fills height after even trim", width: 30, height: 15, cols: 8, rows: 1, scaler: ScaleContain, expected: true},
		{name: "too wide", width: 32, height: 16, cols: 1, rows: 1, scaler: ScaleContain},
		{name: "smaller than bounds", width: 8, height: 4, cols: 4, rows: 4, scaler: ScaleContain},
		{name: "fit would grow it", width: 8, height: 4, cols: 4, rows: 4, scaler: ScaleFit},
		{name: "stretch to bounds", width: 32, height: 64, cols: 4, rows: 4, scaler: ScaleStretch, expected: true},
		{name: "stretch elsewhere", width: 32, height: 32, cols: 4, rows: 4, scaler: ScaleStretch},
		{name: "no scaling", width: 16, height: 8, cols: 2, rows: 1, scaler: ScaleNone},
		{name: "unbounded", width: 16, height: 8, scaler: ScaleContain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims := NewDimensions(testTerminal(), 0, 0, tt.cols, tt.rows, tt.scaler)
			p := newPixbuf(tt.width, tt.height, LayoutBGRA)
			assert.Equal(t, tt.expected, cacheFits(p, dims))
		})
	}
}

func TestLoadCacheWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	// the cache directory cannot be created below a regular file
	cache := NewCache(filepath.Join(blocker, "cache"))
	dims := NewDimensions(testTerminal(), 0, 0, 2, 2, ScaleContain)
	cfg := DefaultConfig()
	cfg.Output = OutputX11

	img, err := Load("big.png", dims, cfg, decoderFor(createTestImage(100, 100)), WithCache(cache))
	require.NoError(t, err)
	cache.Wait()
	assert.Equal(t, 16, img.Width())

	_, err = os.Stat(cache.Path("big.png"))
	assert.Error(t, err)
}

func TestNewImage(t *testing.T) {
	dims := NewDimensions(testTerminal(), 0, 0, 0, 0, ScaleContain)
	img, err := NewImage(createTestImage(8, 8), dims, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, LayoutBGRA, img.Layout())
	assert.Equal(t, 8*8*4, img.Size())

	_, err = NewImage(nil, dims, DefaultConfig())
	assert.ErrorIs(t, err, ErrLoad)
}
