// Package pngdevice buffers finished pages and encodes them as PNG
// files when closed. Rasterization proper is the renderer's job; this
// device scan-converts only flattened fills so page output is usable
// without one.
package pngdevice

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/postforge/postforge/device"
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

type page struct {
	number int
	info   device.PageInfo
	dl     *graphics.DisplayList
}

// PNG writes page-NNN.png files under Dir.
type PNG struct {
	Dir   string
	pages []page
}

// New returns a PNG device writing into dir.
func New(dir string) *PNG {
	return &PNG{Dir: dir}
}

func (d *PNG) Name() string { return "png" }

// ShowPage snapshots the display list; encoding happens at Close so the
// interpreter thread never waits on image I/O.
func (d *PNG) ShowPage(vm *object.VM, dl *graphics.DisplayList, pageDevice object.Object) error {
	snap := &graphics.DisplayList{Elements: append([]graphics.Element(nil), dl.Elements...)}
	d.pages = append(d.pages, page{
		number: len(d.pages) + 1,
		info:   device.DecodePage(vm, pageDevice),
		dl:     snap,
	})
	return nil
}

// Close encodes all buffered pages concurrently.
func (d *PNG) Close() error {
	if len(d.pages) == 0 {
		return nil
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	var eg errgroup.Group
	for _, p := range d.pages {
		p := p
		eg.Go(func() error {
			return d.encodePage(p)
		})
	}
	return eg.Wait()
}

func (d *PNG) encodePage(p page) error {
	w := int(p.info.Width * p.info.ResX / 72)
	h := int(p.info.Height * p.info.ResY / 72)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	renderFills(img, p.dl, p.info)
	path := filepath.Join(d.Dir, fmt.Sprintf("page-%03d.png", p.number))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// renderFills paints fill elements by point-in-path testing against the
// accumulated path. Strokes, images, and text are left to a real
// renderer.
func renderFills(img *image.RGBA, dl *graphics.DisplayList, info device.PageInfo) {
	sx := info.ResX / 72
	sy := info.ResY / 72
	var cur graphics.Path
	h := img.Bounds().Dy()
	for _, e := range dl.Elements {
		switch v := e.(type) {
		case graphics.MoveTo:
			cur = append(cur, graphics.Segment{Kind: graphics.SegMove, X1: v.X, Y1: v.Y})
		case graphics.LineTo:
			cur = append(cur, graphics.Segment{Kind: graphics.SegLine, X1: v.X, Y1: v.Y})
		case graphics.CurveTo:
			cur = append(cur, graphics.Segment{Kind: graphics.SegCurve, X1: v.X1, Y1: v.Y1, X2: v.X2, Y2: v.Y2, X3: v.X3, Y3: v.Y3})
		case graphics.ClosePath:
			cur = append(cur, graphics.Segment{Kind: graphics.SegClose})
		case graphics.Fill:
			if len(cur) == 0 {
				continue
			}
			llx, lly, urx, ury, ok := cur.BBox()
			if !ok {
				continue
			}
			c := color.RGBA{
				R: uint8(v.Color[0] * 255),
				G: uint8(v.Color[1] * 255),
				B: uint8(v.Color[2] * 255),
				A: 255,
			}
			rl := cur
			for py := int(lly * sy); py <= int(ury*sy); py++ {
				for px := int(llx * sx); px <= int(urx*sx); px++ {
					ux := (float64(px) + 0.5) / sx
					uy := (float64(py) + 0.5) / sy
					if rl.Contains(ux, uy, v.Rule) {
						// Device origin is bottom-left; images are
						// top-down.
						img.Set(px, h-1-py, c)
					}
				}
			}
			cur = nil
		case graphics.Stroke, graphics.ErasePage:
			cur = nil
		}
	}
}
