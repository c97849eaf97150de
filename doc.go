/*
Package termview displays raster images inside a terminal emulator.

An image is decoded once, normalized for the chosen backend and then handed
to a renderer:

  - Canvas draws the image into the terminal grid with unicode block glyphs.
  - x11.Window shows the image in an X11 child window on top of the terminal.

Normalization runs in a fixed order: EXIF rotation, resize to the configured
bounds (or reuse of a previously resized copy from the cache), origin
centering and colorspace conversion to the pixel layout the backend expects.

Basic Usage:

	term := termview.DetectTerminal()
	dims := termview.NewDimensions(term, 10, 5, 40, 20, termview.ScaleContain)

	cfg := termview.DefaultConfig()
	img, err := termview.Load("image.png", dims, cfg)
	if err != nil {
	    log.Fatal(err)
	}

	var stdout sync.Mutex
	canvas := termview.NewCanvas(img, &stdout)
	defer canvas.Close()

	if err := canvas.Draw(); err != nil {
	    log.Fatal(err)
	}

Overlay windows:

	display, err := x11.Open("")
	if err != nil {
	    log.Fatal(err)
	}
	cfg.Output = termview.OutputX11
	img, _ := termview.Load("image.png", dims, cfg)

	r, err := termview.NewRenderer(img, cfg, termview.RendererDeps{
	    Conn:   display,
	    Screen: display.Screen(),
	})
	overlay := r.(termview.Overlay)
	overlay.GenerateFrame()
	overlay.Draw()

Every canvas drawing into the same terminal must share one mutex; the X
connection may be shared by any number of windows.
*/
package termview
