package svgscene

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Bounding boxes are computed from the points zeroing the
// derivative of each segment, which is exact for bézier curves.

type line [2]fixed.Point26_6

func (l line) criticalPoints() (tX, tY []float64) { return nil, nil }

func (l line) evaluateCurve(t float64) (x, y float64) {
	x = bezierLine(float64(l[0].X), float64(l[1].X), t)
	y = bezierLine(float64(l[0].Y), float64(l[1].Y), t)
	return x, y
}

func bezierLine(p0, p1, t float64) float64 {
	return p0*(1-t) + p1*t
}

type quadBezier [3]fixed.Point26_6

func bezierQuad(p0, p1, p2, t float64) float64 {
	return (1-t)*(1-t)*p0 + 2*t*(1-t)*p1 + t*t*p2
}

// quadraticDerivative returns the coefficients of the derivative,
// as a*t + b
func quadraticDerivative(p0, p1, p2 float64) (a, b float64) {
	return 2 * (p2 - 2*p1 + p0), 2 * (p1 - p0)
}

func linearRoots(a, b float64) []float64 {
	if a == 0 {
		return nil
	}
	return []float64{-b / a}
}

func (cu quadBezier) criticalPoints() (tX, tY []float64) {
	tX = linearRoots(quadraticDerivative(float64(cu[0].X), float64(cu[1].X), float64(cu[2].X)))
	tY = linearRoots(quadraticDerivative(float64(cu[0].Y), float64(cu[1].Y), float64(cu[2].Y)))
	return tX, tY
}

func (cu quadBezier) evaluateCurve(t float64) (x, y float64) {
	x = bezierQuad(float64(cu[0].X), float64(cu[1].X), float64(cu[2].X), t)
	y = bezierQuad(float64(cu[0].Y), float64(cu[1].Y), float64(cu[2].Y), t)
	return x, y
}

type cubicBezier [4]fixed.Point26_6

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	tX = quadraticRoots(cubicDerivative(float64(cu[0].X), float64(cu[1].X), float64(cu[2].X), float64(cu[3].X)))
	tY = quadraticRoots(cubicDerivative(float64(cu[0].Y), float64(cu[1].Y), float64(cu[2].Y), float64(cu[3].Y)))
	return tX, tY
}

func (cu cubicBezier) evaluateCurve(t float64) (x, y float64) {
	x = bezierSpline(float64(cu[0].X), float64(cu[1].X), float64(cu[2].X), float64(cu[3].X), t)
	y = bezierSpline(float64(cu[0].Y), float64(cu[1].Y), float64(cu[2].Y), float64(cu[3].Y), t)
	return x, y
}

func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	u := 1 - t
	return u*u*u*p0 + 3*t*u*u*p1 + 3*t*t*u*p2 + t*t*t*p3
}

// cubicDerivative returns the coefficients of the derivative,
// as a*t^2 + b*t + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	a = 3 * (-p0 + 3*p1 - 3*p2 + p3)
	b = 6 * (p0 - 2*p1 + p2)
	c = 3 * (p1 - p0)
	return a, b, c
}

func determinant(a, b, c float64) float64 { return b*b - 4*a*c }

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		return linearRoots(b, c)
	}
	delta := determinant(a, b, c)
	switch {
	case delta < 0:
		return nil
	case delta == 0:
		return []float64{-b / (2 * a)}
	default:
		sq := math.Sqrt(delta)
		return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
	}
}

type bezier interface {
	// compute the t zeroing the derivative
	criticalPoints() (tX, tY []float64)
	// compute the point a time t
	evaluateCurve(t float64) (x, y float64)
}

// extent accumulates a bounding box, in 26.6 units
type extent struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newExtent() extent {
	return extent{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1), empty: true}
}

func (e *extent) add(curve bezier) {
	resX, resY := curve.criticalPoints()
	// add begin and end point
	for _, t := range append(append(resX, 0, 1), resY...) {
		// filter invalid value
		if !(0 <= t && t <= 1) {
			continue
		}
		x, y := curve.evaluateCurve(t)
		e.minX = math.Min(x, e.minX)
		e.minY = math.Min(y, e.minY)
		e.maxX = math.Max(x, e.maxX)
		e.maxY = math.Max(y, e.maxY)
		e.empty = false
	}
}

func (e *extent) addPath(p Path, M Matrix2D) {
	var first, current fixed.Point26_6
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			current = M.trMove(op)
			first = current
			e.add(line{current, current})
		case LineTo:
			b := M.trLine(op)
			e.add(line{current, b})
			current = b
		case QuadTo:
			b, c := M.trQuad(op)
			e.add(quadBezier{current, b, c})
			current = c
		case CubicTo:
			b, c, d := M.trCubic(op)
			e.add(cubicBezier{current, b, c, d})
			current = d
		case Close:
			current = first
		}
	}
}

func (e extent) bounds() Bounds {
	return Bounds{X: e.minX / 64, Y: e.minY / 64, W: (e.maxX - e.minX) / 64, H: (e.maxY - e.minY) / 64}
}

// Bounds returns the extent of the visible and invisible content of the group subtree,
// in document space, with pose transforms applied.
// It returns false for a group without geometry.
func (g *Group) Bounds() (Bounds, bool) {
	e := newExtent()
	for i := range g.scene.SVGPaths {
		svgp := &g.scene.SVGPaths[i]
		if !g.Contains(svgp.Group) {
			continue
		}
		e.addPath(svgp.Path, svgp.Group.effectivePose().Mult(svgp.Style.transform))
	}
	return e.bounds(), !e.empty
}

// Bounds returns the extent of the visible content, in document space.
func (s *Scene) Bounds() (Bounds, bool) {
	e := newExtent()
	for i := range s.SVGPaths {
		svgp := &s.SVGPaths[i]
		if svgp.Style.Hidden || svgp.Group.hidden() {
			continue
		}
		e.addPath(svgp.Path, svgp.Group.effectivePose().Mult(svgp.Style.transform))
	}
	return e.bounds(), !e.empty
}

func norm(x, y float64) float64 { return math.Hypot(x, y) }
