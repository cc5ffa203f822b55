package graphics

import "github.com/postforge/postforge/object"

// State is the graphics state: the CTM, current path and point, clip,
// color, and line properties. gsave copies it shallowly with deep copies
// of the mutable containers; the page-device dictionary is shared.
type State struct {
	CTM  Matrix
	ICTM Matrix

	HasCurrent   bool
	CurX, CurY   float64 // device space
	SubX, SubY   float64 // current subpath start, device space
	Path         Path
	Clip         Path // empty means the full page
	ClipRule     FillRule
	ClipVersion  int
	Color        Color
	Transfer     object.Object // stored; not applied at build time
	BlackGen     object.Object
	UnderColor   object.Object
	Halftone     object.Object
	LineWidth    float64
	LineCap      int64
	LineJoin     int64
	MiterLimit   float64
	Dash         []float64
	DashOffset   float64
	Flatness     float64
	StrokeAdjust bool
	Font         object.Object
	PageDevice   object.Object // dict, shared across gsave

	// FromSave marks states pushed by save rather than gsave; restore
	// pops through them, grestore stops at them.
	FromSave bool
}

// StateBox is the payload of a PostScript gstate object: a mutable
// holder so setgstate/currentgstate can swap contents in place.
type StateBox struct {
	State *State
}

// NewState returns the initial graphics state for a page.
func NewState() *State {
	return &State{
		CTM:        Identity(),
		ICTM:       Identity(),
		Color:      Color{Space: &ColorSpace{Kind: DeviceGray, NComp: 1}, Comp: []float64{0}},
		LineWidth:  1,
		MiterLimit: 10,
		Flatness:   1,
	}
}

// Clone returns an independent copy for gsave. The path, clip, dash
// pattern, and color components are deep-copied; the page-device dict
// and proc handles stay shared.
func (st *State) Clone() *State {
	cp := *st
	cp.Path = st.Path.Clone()
	cp.Clip = st.Clip.Clone()
	cp.Dash = append([]float64(nil), st.Dash...)
	cp.Color.Comp = append([]float64(nil), st.Color.Comp...)
	cp.FromSave = false
	return &cp
}

// SetCTM installs a new transform and keeps the inverse in step.
func (st *State) SetCTM(m Matrix) {
	st.CTM = m
	if inv, ok := m.Invert(); ok {
		st.ICTM = inv
	} else {
		st.ICTM = Matrix{}
	}
}

// UserPoint maps the device-space current point back to user space.
func (st *State) UserPoint() (float64, float64) {
	return st.ICTM.Apply(st.CurX, st.CurY)
}

// MoveTo starts a new subpath at the user-space point.
func (st *State) MoveTo(x, y float64) {
	dx, dy := st.CTM.Apply(x, y)
	st.Path = append(st.Path, Segment{Kind: SegMove, X1: dx, Y1: dy})
	st.CurX, st.CurY = dx, dy
	st.SubX, st.SubY = dx, dy
	st.HasCurrent = true
}

// LineTo appends a line segment to the user-space point.
func (st *State) LineTo(x, y float64) {
	dx, dy := st.CTM.Apply(x, y)
	st.Path = append(st.Path, Segment{Kind: SegLine, X1: dx, Y1: dy})
	st.CurX, st.CurY = dx, dy
}

// CurveTo appends a cubic segment with user-space control points.
func (st *State) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	d1x, d1y := st.CTM.Apply(x1, y1)
	d2x, d2y := st.CTM.Apply(x2, y2)
	d3x, d3y := st.CTM.Apply(x3, y3)
	st.Path = append(st.Path, Segment{Kind: SegCurve, X1: d1x, Y1: d1y, X2: d2x, Y2: d2y, X3: d3x, Y3: d3y})
	st.CurX, st.CurY = d3x, d3y
}

// ClosePath closes the current subpath.
func (st *State) ClosePath() {
	if !st.HasCurrent {
		return
	}
	st.Path = append(st.Path, Segment{Kind: SegClose})
	st.CurX, st.CurY = st.SubX, st.SubY
}

// ClearPath empties the path (newpath and post-paint clearing).
func (st *State) ClearPath() {
	st.Path = nil
	st.HasCurrent = false
}

// SetClip installs the current path as clip and bumps the version.
func (st *State) SetClip(rule FillRule, nextVersion int) {
	st.Clip = st.Path.Clone()
	st.ClipRule = rule
	st.ClipVersion = nextVersion
}

// InitClip resets the clip to the full page.
func (st *State) InitClip(nextVersion int) {
	st.Clip = nil
	st.ClipRule = NonZero
	st.ClipVersion = nextVersion
}
