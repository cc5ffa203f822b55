package graphics

import (
	"math"
	"testing"

	"github.com/postforge/postforge/object"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDeviceConversions(t *testing.T) {
	t.Run("gray to rgb", func(t *testing.T) {
		if got := GrayToRGB(0.5); got != (RGB{0.5, 0.5, 0.5}) {
			t.Errorf("got %v", got)
		}
	})
	t.Run("rgb to gray uses NTSC weights", func(t *testing.T) {
		if got := RGBToGray(RGB{1, 0, 0}); !almost(got, 0.3) {
			t.Errorf("red gray = %g, want 0.3", got)
		}
		if got := RGBToGray(RGB{0, 1, 0}); !almost(got, 0.59) {
			t.Errorf("green gray = %g, want 0.59", got)
		}
		if got := RGBToGray(RGB{1, 1, 1}); !almost(got, 1) {
			t.Errorf("white gray = %g, want 1", got)
		}
	})
	t.Run("cmyk undercolor", func(t *testing.T) {
		if got := CMYKToRGB(0, 0, 0, 1); got != (RGB{0, 0, 0}) {
			t.Errorf("black = %v", got)
		}
		if got := CMYKToRGB(1, 0, 0, 0); got != (RGB{0, 1, 1}) {
			t.Errorf("cyan = %v", got)
		}
		if got := CMYKToRGB(0.5, 0, 0, 0.8); got[0] != 0 {
			t.Errorf("c+k clamps at 1: %v", got)
		}
	})
	t.Run("rgb to cmyk removes undercolor", func(t *testing.T) {
		c, m, y, k := RGBToCMYK(RGB{0.5, 0.5, 0.5})
		if !almost(c, 0) || !almost(m, 0) || !almost(y, 0) || !almost(k, 0.5) {
			t.Errorf("gray cmyk = %g %g %g %g", c, m, y, k)
		}
	})
}

func TestLazyConversion(t *testing.T) {
	c := Color{Space: &ColorSpace{Kind: DeviceCMYK, NComp: 4}, Comp: []float64{0, 0, 0, 0}}
	rgb, err := c.ToRGB(nil)
	if err != nil {
		t.Fatal(err)
	}
	if rgb != (RGB{1, 1, 1}) {
		t.Errorf("cmyk zero = %v, want white", rgb)
	}
}

func TestIndexedPalette(t *testing.T) {
	cs := &ColorSpace{
		Kind:         Indexed,
		NComp:        1,
		HiVal:        2,
		Base:         &ColorSpace{Kind: DeviceRGB, NComp: 3},
		PaletteBytes: []byte{255, 0, 0, 0, 255, 0, 0, 0, 255},
	}
	c := Color{Space: cs, Comp: []float64{1}}
	rgb, err := c.ToRGB(nil)
	if err != nil {
		t.Fatal(err)
	}
	if rgb != (RGB{0, 1, 0}) {
		t.Errorf("index 1 = %v, want green", rgb)
	}

	// Out-of-range indices clamp to hival.
	c.Comp = []float64{9}
	rgb, _ = c.ToRGB(nil)
	if rgb != (RGB{0, 0, 1}) {
		t.Errorf("clamped index = %v, want blue", rgb)
	}
}

func TestSeparationUsesTintTransform(t *testing.T) {
	cs := &ColorSpace{
		Kind:  Separation,
		NComp: 1,
		Alt:   &ColorSpace{Kind: DeviceGray, NComp: 1},
	}
	// Tint transform inverts: full tint paints black.
	eval := ProcEval(func(proc object.Object, in []float64, nout int) ([]float64, error) {
		return []float64{1 - in[0]}, nil
	})
	c := Color{Space: cs, Comp: []float64{1}}
	rgb, err := c.ToRGB(eval)
	if err != nil {
		t.Fatal(err)
	}
	if rgb != (RGB{0, 0, 0}) {
		t.Errorf("full tint = %v, want black", rgb)
	}
}

func TestICCFallsBackToAlternate(t *testing.T) {
	cs := &ColorSpace{
		Kind:  ICCBased,
		NComp: 4,
		Alt:   &ColorSpace{Kind: DeviceCMYK, NComp: 4},
	}
	c := Color{Space: cs, Comp: []float64{0, 0, 0, 1}}
	rgb, err := c.ToRGB(nil)
	if err != nil {
		t.Fatal(err)
	}
	if rgb != (RGB{0, 0, 0}) {
		t.Errorf("icc->cmyk black = %v", rgb)
	}

	// Without an alternate, N selects the device family.
	noAlt := Color{Space: &ColorSpace{Kind: ICCBased, NComp: 1}, Comp: []float64{0.25}}
	rgb, _ = noAlt.ToRGB(nil)
	if rgb != (RGB{0.25, 0.25, 0.25}) {
		t.Errorf("icc n=1 = %v, want gray expansion", rgb)
	}
}

func TestCIEABCIdentityIsSRGBEncoded(t *testing.T) {
	// With identity decodes and matrices, the pipeline reduces to
	// XYZ -> sRGB; Y=1 white must land near RGB white.
	cs := &ColorSpace{Kind: CIEBasedABC, NComp: 3, WhitePoint: [3]float64{0.9505, 1, 1.089}}
	c := Color{Space: cs, Comp: []float64{0.9505, 1.0, 1.089}}
	rgb, err := c.ToRGB(nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range rgb {
		if v < 0.95 || v > 1.0 {
			t.Errorf("white component %d = %g", i, v)
		}
	}
}

func TestInitialComponents(t *testing.T) {
	if got := (&ColorSpace{Kind: DeviceCMYK, NComp: 4}).InitialComponents(); got[3] != 1 {
		t.Errorf("cmyk initial = %v, want black k=1", got)
	}
	if got := (&ColorSpace{Kind: DeviceRGB, NComp: 3}).InitialComponents(); len(got) != 3 || got[0] != 0 {
		t.Errorf("rgb initial = %v", got)
	}
}
