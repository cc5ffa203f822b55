package interp

import (
	"math"

	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerPathOps(def defFunc) {
	def("newpath", opNewPath)
	def("currentpoint", opCurrentPoint)
	def("moveto", opMoveTo)
	def("rmoveto", opRMoveTo)
	def("lineto", opLineTo)
	def("rlineto", opRLineTo)
	def("curveto", opCurveTo)
	def("rcurveto", opRCurveTo)
	def("arc", opArc)
	def("arcn", opArcN)
	def("arct", opArcT)
	def("arcto", opArcTo)
	def("closepath", opClosePath)
	def("pathbbox", opPathBBox)
	def("pathforall", opPathForAll)
	def("flattenpath", opFlattenPath)
	def("reversepath", opReversePath)
	def("clip", opClip)
	def("eoclip", opEoClip)
	def("rectclip", opRectClip)
	def("initclip", opInitClip)
	def("clippath", opClipPath)
	def("infill", opInFill)
	def("ineofill", opInEoFill)
	def("instroke", opInStroke)
}

func opNewPath(ctx *Context) *PSError {
	ctx.GS.ClearPath()
	return nil
}

func opCurrentPoint(ctx *Context) *PSError {
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	x, y := ctx.GS.UserPoint()
	return ctx.pushAll(object.MakeReal(x), object.MakeReal(y))
}

func (ctx *Context) twoNums() (x, y float64, err *PSError) {
	if y, err = ctx.peekNum(0); err != nil {
		return
	}
	x, err = ctx.peekNum(1)
	return
}

func opMoveTo(ctx *Context) *PSError {
	x, y, err := ctx.twoNums()
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	ctx.GS.MoveTo(x, y)
	return nil
}

func opRMoveTo(ctx *Context) *PSError {
	dx, dy, err := ctx.twoNums()
	if err != nil {
		return err
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.Op.PopN(2)
	x, y := ctx.GS.UserPoint()
	ctx.GS.MoveTo(x+dx, y+dy)
	return nil
}

func opLineTo(ctx *Context) *PSError {
	x, y, err := ctx.twoNums()
	if err != nil {
		return err
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.Op.PopN(2)
	ctx.GS.LineTo(x, y)
	return nil
}

func opRLineTo(ctx *Context) *PSError {
	dx, dy, err := ctx.twoNums()
	if err != nil {
		return err
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.Op.PopN(2)
	x, y := ctx.GS.UserPoint()
	ctx.GS.LineTo(x+dx, y+dy)
	return nil
}

func (ctx *Context) sixNums() (v [6]float64, err *PSError) {
	for i := 0; i < 6; i++ {
		if v[5-i], err = ctx.peekNum(i); err != nil {
			return
		}
	}
	return
}

func opCurveTo(ctx *Context) *PSError {
	v, err := ctx.sixNums()
	if err != nil {
		return err
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.Op.PopN(6)
	ctx.GS.CurveTo(v[0], v[1], v[2], v[3], v[4], v[5])
	return nil
}

func opRCurveTo(ctx *Context) *PSError {
	v, err := ctx.sixNums()
	if err != nil {
		return err
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.Op.PopN(6)
	x, y := ctx.GS.UserPoint()
	ctx.GS.CurveTo(x+v[0], y+v[1], x+v[2], y+v[3], x+v[4], y+v[5])
	return nil
}

func opClosePath(ctx *Context) *PSError {
	ctx.GS.ClosePath()
	return nil
}

// appendArc approximates a circular arc with cubic segments of at most
// a quarter turn, in user space.
func (ctx *Context) appendArc(cx, cy, r, a1, a2 float64, clockwise bool) {
	if clockwise {
		for a2 > a1 {
			a2 -= 360
		}
	} else {
		for a2 < a1 {
			a2 += 360
		}
	}
	startX := cx + r*math.Cos(a1*math.Pi/180)
	startY := cy + r*math.Sin(a1*math.Pi/180)
	if ctx.GS.HasCurrent {
		ctx.GS.LineTo(startX, startY)
	} else {
		ctx.GS.MoveTo(startX, startY)
	}
	total := a2 - a1
	steps := int(math.Ceil(math.Abs(total) / 90))
	if steps == 0 {
		return
	}
	delta := total / float64(steps)
	for i := 0; i < steps; i++ {
		b1 := (a1 + float64(i)*delta) * math.Pi / 180
		b2 := (a1 + float64(i+1)*delta) * math.Pi / 180
		k := 4.0 / 3.0 * math.Tan((b2-b1)/4)
		x1 := cx + r*(math.Cos(b1)-k*math.Sin(b1))
		y1 := cy + r*(math.Sin(b1)+k*math.Cos(b1))
		x2 := cx + r*(math.Cos(b2)+k*math.Sin(b2))
		y2 := cy + r*(math.Sin(b2)-k*math.Cos(b2))
		x3 := cx + r*math.Cos(b2)
		y3 := cy + r*math.Sin(b2)
		ctx.GS.CurveTo(x1, y1, x2, y2, x3, y3)
	}
}

func arcOperands(ctx *Context) (cx, cy, r, a1, a2 float64, err *PSError) {
	if a2, err = ctx.peekNum(0); err != nil {
		return
	}
	if a1, err = ctx.peekNum(1); err != nil {
		return
	}
	if r, err = ctx.peekNum(2); err != nil {
		return
	}
	if cy, err = ctx.peekNum(3); err != nil {
		return
	}
	cx, err = ctx.peekNum(4)
	return
}

func opArc(ctx *Context) *PSError {
	cx, cy, r, a1, a2, err := arcOperands(ctx)
	if err != nil {
		return err
	}
	if r < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.PopN(5)
	ctx.appendArc(cx, cy, r, a1, a2, false)
	return nil
}

func opArcN(ctx *Context) *PSError {
	cx, cy, r, a1, a2, err := arcOperands(ctx)
	if err != nil {
		return err
	}
	if r < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.PopN(5)
	ctx.appendArc(cx, cy, r, a1, a2, true)
	return nil
}

// arcTangent computes the tangent arc used by arct/arcto; returns the
// two tangent points.
func (ctx *Context) arcTangent(x1, y1, x2, y2, r float64) (t1x, t1y, t2x, t2y float64, perr *PSError) {
	if !ctx.GS.HasCurrent {
		perr = fail(object.ErrNoCurrentPoint)
		return
	}
	x0, y0 := ctx.GS.UserPoint()
	d1x, d1y := x0-x1, y0-y1
	d2x, d2y := x2-x1, y2-y1
	l1 := math.Hypot(d1x, d1y)
	l2 := math.Hypot(d2x, d2y)
	if l1 == 0 || l2 == 0 {
		perr = fail(object.ErrUndefinedResult)
		return
	}
	d1x, d1y = d1x/l1, d1y/l1
	d2x, d2y = d2x/l2, d2y/l2
	cross := d1x*d2y - d1y*d2x
	if cross == 0 {
		// Collinear: degenerate arc, just a line to the corner.
		ctx.GS.LineTo(x1, y1)
		t1x, t1y, t2x, t2y = x1, y1, x1, y1
		return
	}
	halfAngle := math.Acos(d1x*d2x+d1y*d2y) / 2
	dist := r / math.Tan(halfAngle)
	t1x, t1y = x1+d1x*dist, y1+d1y*dist
	t2x, t2y = x1+d2x*dist, y1+d2y*dist

	// Arc center along the angle bisector.
	bx, by := d1x+d2x, d1y+d2y
	bl := math.Hypot(bx, by)
	bx, by = bx/bl, by/bl
	centerDist := r / math.Sin(halfAngle)
	cx, cy := x1+bx*centerDist, y1+by*centerDist
	a1 := math.Atan2(t1y-cy, t1x-cx) * 180 / math.Pi
	a2 := math.Atan2(t2y-cy, t2x-cx) * 180 / math.Pi
	ctx.appendArc(cx, cy, r, a1, a2, cross > 0)
	return
}

func opArcT(ctx *Context) *PSError {
	r, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	y2, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	x2, err := ctx.peekNum(2)
	if err != nil {
		return err
	}
	y1, err := ctx.peekNum(3)
	if err != nil {
		return err
	}
	x1, err := ctx.peekNum(4)
	if err != nil {
		return err
	}
	if r < 0 {
		return fail(object.ErrRangeCheck)
	}
	if _, _, _, _, e := ctx.arcTangent(x1, y1, x2, y2, r); e != nil {
		return e
	}
	ctx.Op.PopN(5)
	return nil
}

func opArcTo(ctx *Context) *PSError {
	r, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	y2, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	x2, err := ctx.peekNum(2)
	if err != nil {
		return err
	}
	y1, err := ctx.peekNum(3)
	if err != nil {
		return err
	}
	x1, err := ctx.peekNum(4)
	if err != nil {
		return err
	}
	if r < 0 {
		return fail(object.ErrRangeCheck)
	}
	t1x, t1y, t2x, t2y, e := ctx.arcTangent(x1, y1, x2, y2, r)
	if e != nil {
		return e
	}
	ctx.Op.PopN(5)
	return ctx.pushAll(
		object.MakeReal(t1x), object.MakeReal(t1y),
		object.MakeReal(t2x), object.MakeReal(t2y),
	)
}

func opPathBBox(ctx *Context) *PSError {
	llx, lly, urx, ury, ok := ctx.GS.Path.BBox()
	if !ok {
		return fail(object.ErrNoCurrentPoint)
	}
	// Report in user space.
	x0, y0 := ctx.GS.ICTM.Apply(llx, lly)
	x1, y1 := ctx.GS.ICTM.Apply(urx, ury)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return ctx.pushAll(
		object.MakeReal(x0), object.MakeReal(y0),
		object.MakeReal(x1), object.MakeReal(y1),
	)
}

func opPathForAll(ctx *Context) *PSError {
	cl, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	cv, err := ctx.Op.Peek(1)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ln, err := ctx.Op.Peek(2)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	mv, err := ctx.Op.Peek(3)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	for _, p := range []object.Object{mv, ln, cv, cl} {
		if !isProc(p) {
			return fail(object.ErrTypeCheck)
		}
	}
	ctx.Op.PopN(4)
	st := &loopState{
		kind: loopPathForAll,
		segs: ctx.GS.Path.Clone(),
		mv:   mv, ln: ln, cv: cv, cl: cl,
		ictm: ctx.GS.ICTM,
	}
	return ctx.pushExecutable(loopMarker(st))
}

func opFlattenPath(ctx *Context) *PSError {
	ctx.GS.Path = ctx.GS.Path.Flatten(4)
	return nil
}

func opReversePath(ctx *Context) *PSError {
	// Reverse each subpath's segment order, preserving subpath order.
	src := ctx.GS.Path
	var out graphics.Path
	var sub graphics.Path
	flush := func() {
		if len(sub) == 0 {
			return
		}
		pts := make([][2]float64, 0, len(sub))
		closed := false
		for _, s := range sub {
			switch s.Kind {
			case graphics.SegMove, graphics.SegLine:
				pts = append(pts, [2]float64{s.X1, s.Y1})
			case graphics.SegCurve:
				pts = append(pts, [2]float64{s.X3, s.Y3})
			case graphics.SegClose:
				closed = true
			}
		}
		for i := len(pts) - 1; i >= 0; i-- {
			kind := graphics.SegLine
			if i == len(pts)-1 {
				kind = graphics.SegMove
			}
			out = append(out, graphics.Segment{Kind: kind, X1: pts[i][0], Y1: pts[i][1]})
		}
		if closed {
			out = append(out, graphics.Segment{Kind: graphics.SegClose})
		}
		sub = nil
	}
	for _, s := range src {
		if s.Kind == graphics.SegMove {
			flush()
		}
		sub = append(sub, s)
	}
	flush()
	ctx.GS.Path = out
	return nil
}

// Clip operators update clip state only; painting emits the clip
// element when the version changes.
func opClip(ctx *Context) *PSError {
	ctx.GS.SetClip(graphics.NonZero, ctx.nextClipVersion())
	return nil
}

func opEoClip(ctx *Context) *PSError {
	ctx.GS.SetClip(graphics.EvenOdd, ctx.nextClipVersion())
	return nil
}

func opRectClip(ctx *Context) *PSError {
	h, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	w, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	y, err := ctx.peekNum(2)
	if err != nil {
		return err
	}
	x, err := ctx.peekNum(3)
	if err != nil {
		return err
	}
	ctx.Op.PopN(4)
	ctx.GS.ClearPath()
	ctx.appendRect(x, y, w, h)
	ctx.GS.SetClip(graphics.NonZero, ctx.nextClipVersion())
	ctx.GS.ClearPath()
	return nil
}

func opInitClip(ctx *Context) *PSError {
	ctx.GS.InitClip(ctx.nextClipVersion())
	return nil
}

// opClipPath replaces the current path with the clip path.
func opClipPath(ctx *Context) *PSError {
	if len(ctx.GS.Clip) > 0 {
		ctx.GS.Path = ctx.GS.Clip.Clone()
	} else {
		// Full page.
		info := ctx.pageInfo()
		ctx.GS.Path = graphics.Path{
			{Kind: graphics.SegMove, X1: 0, Y1: 0},
			{Kind: graphics.SegLine, X1: info.Width, Y1: 0},
			{Kind: graphics.SegLine, X1: info.Width, Y1: info.Height},
			{Kind: graphics.SegLine, X1: 0, Y1: info.Height},
			{Kind: graphics.SegClose},
		}
	}
	ctx.GS.HasCurrent = len(ctx.GS.Path) > 0
	return nil
}

func (ctx *Context) appendRect(x, y, w, h float64) {
	ctx.GS.MoveTo(x, y)
	ctx.GS.LineTo(x+w, y)
	ctx.GS.LineTo(x+w, y+h)
	ctx.GS.LineTo(x, y+h)
	ctx.GS.ClosePath()
}

func insideTest(ctx *Context, rule graphics.FillRule, widen float64) *PSError {
	y, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	x, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	dx, dy := ctx.GS.CTM.Apply(x, y)
	path := ctx.GS.Path
	hit := path.Contains(dx, dy, rule)
	if !hit && widen > 0 {
		// Stroke insideness: probe around the point at half the line
		// width.
		for _, d := range [][2]float64{{widen, 0}, {-widen, 0}, {0, widen}, {0, -widen}} {
			if path.Contains(dx+d[0], dy+d[1], rule) {
				hit = true
				break
			}
		}
	}
	return ctx.pushAll(object.MakeBool(hit))
}

func opInFill(ctx *Context) *PSError {
	return insideTest(ctx, graphics.NonZero, 0)
}

func opInEoFill(ctx *Context) *PSError {
	return insideTest(ctx, graphics.EvenOdd, 0)
}

func opInStroke(ctx *Context) *PSError {
	return insideTest(ctx, graphics.NonZero, ctx.GS.LineWidth/2)
}
