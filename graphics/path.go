package graphics

// SegKind tags a path segment.
type SegKind uint8

const (
	SegMove SegKind = iota
	SegLine
	SegCurve
	SegClose
)

// Segment is one element of a path. Coordinates are device space; path
// construction operators transform through the CTM at call time. Curves
// carry two control points and the endpoint.
type Segment struct {
	Kind                   SegKind
	X1, Y1, X2, Y2, X3, Y3 float64
}

// Path is a flat segment list; each SegMove opens a subpath.
type Path []Segment

// Clone returns an independent copy.
func (p Path) Clone() Path {
	cp := make(Path, len(p))
	copy(cp, p)
	return cp
}

// BBox returns the bounding box over all control and end points. ok is
// false for an empty path.
func (p Path) BBox() (llx, lly, urx, ury float64, ok bool) {
	first := true
	add := func(x, y float64) {
		if first {
			llx, lly, urx, ury = x, y, x, y
			first = false
			return
		}
		if x < llx {
			llx = x
		}
		if y < lly {
			lly = y
		}
		if x > urx {
			urx = x
		}
		if y > ury {
			ury = y
		}
	}
	for _, s := range p {
		switch s.Kind {
		case SegMove, SegLine:
			add(s.X1, s.Y1)
		case SegCurve:
			add(s.X1, s.Y1)
			add(s.X2, s.Y2)
			add(s.X3, s.Y3)
		}
	}
	return llx, lly, urx, ury, !first
}

// Flatten replaces curves with line segments, subdividing each curve
// into 2^depth chords.
func (p Path) Flatten(depth int) Path {
	n := 1 << depth
	out := make(Path, 0, len(p))
	var cx, cy float64
	for _, s := range p {
		switch s.Kind {
		case SegCurve:
			x0, y0 := cx, cy
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				x, y := bezier(x0, y0, s.X1, s.Y1, s.X2, s.Y2, s.X3, s.Y3, t)
				out = append(out, Segment{Kind: SegLine, X1: x, Y1: y})
			}
			cx, cy = s.X3, s.Y3
		default:
			out = append(out, s)
			if s.Kind != SegClose {
				cx, cy = s.X1, s.Y1
			}
		}
	}
	return out
}

func bezier(x0, y0, x1, y1, x2, y2, x3, y3, t float64) (float64, float64) {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return a*x0 + b*x1 + c*x2 + d*x3, a*y0 + b*y1 + c*y2 + d*y3
}

// Contains tests point insideness under the given fill rule, flattening
// curves first. It backs the infill/ineofill operators.
func (p Path) Contains(x, y float64, rule FillRule) bool {
	flat := p.Flatten(4)
	winding := 0
	crossings := 0
	var sx, sy, cx, cy float64
	started := false
	edge := func(x0, y0, x1, y1 float64) {
		if (y0 <= y) != (y1 <= y) {
			t := (y - y0) / (y1 - y0)
			ix := x0 + t*(x1-x0)
			if ix > x {
				crossings++
				if y1 > y0 {
					winding++
				} else {
					winding--
				}
			}
		}
	}
	closeSub := func() {
		if started && (cx != sx || cy != sy) {
			edge(cx, cy, sx, sy)
		}
	}
	for _, s := range flat {
		switch s.Kind {
		case SegMove:
			closeSub()
			sx, sy, cx, cy = s.X1, s.Y1, s.X1, s.Y1
			started = true
		case SegLine:
			edge(cx, cy, s.X1, s.Y1)
			cx, cy = s.X1, s.Y1
		case SegClose:
			edge(cx, cy, sx, sy)
			cx, cy = sx, sy
		}
	}
	closeSub()
	if rule == EvenOdd {
		return crossings%2 == 1
	}
	return winding != 0
}
