package svgscene

import (
	"golang.org/x/image/math/fixed"
)

// Given a parsed SVG document, implements how to
// draw it on screen.
// This requires a driver implementing the actual draw operations,
// such as a rasterizer to output .png images or a pdf writer.

// Drawer knows how to do the actual draw operations
// but doesn't need any SVG kwowledge
// In particular, tranformations matrix are already applied to the points
// before sending them to the Drawer.
type Drawer interface {
	// Clear must reset the internal state (used before starting a new path painting)
	Clear()

	// Start starts a new path at the given point.
	Start(a fixed.Point26_6)

	// Line Adds a line for the current point to `b`
	Line(b fixed.Point26_6)

	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c fixed.Point26_6)

	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d fixed.Point26_6)

	// Closes the path to the start point if `closeLoop` is true
	Stop(closeLoop bool)

	// SetColor set the color for the current path
	SetColor(color Pattern, opacity float64)

	// Draw fills or strokes the accumulated path using the current settings
	// depending on the filling mode
	Draw()
}

type Filler interface {
	Drawer

	// Decide to use or not the NonZeroWinding rule for the current path
	SetWinding(useNonZeroWinding bool)
}

type Stroker interface {
	Drawer

	// Parametrize the stroking style for the current path
	SetStrokeOptions(options StrokeOptions)
}

type Driver interface {
	// SetupDrawers returns the backend painters, and
	// will be called at the begining of every path.
	// If the `willXXX` boolean is false, the returned drawer should be nil
	// to avoid useless operations.
	// When both booleans are true, one can assume that the exact same draw operations
	// will be performed on the Filler first and then on the Stroker.
	SetupDrawers(willFill, willStroke bool) (Filler, Stroker)
}

type DashOptions struct {
	Dash       []float64 // values for the dash pattern (nil or an empty slice for no dashes)
	DashOffset float64   // starting offset into the dash array
}

// JoinMode type to specify how segments join.
type JoinMode uint8

// JoinMode constants determine how stroke segments bridge the gap at a join
// ArcClip mode is like MiterClip applied to arcs, and is not part of the SVG2.0
// standard.
const (
	Arc JoinMode = iota // New in SVG2
	Round
	Bevel
	Miter
	MiterClip // New in SVG2
	ArcClip   // Like MiterClip applied to arcs, and is not part of the SVG2.0 standard.
)

func (s JoinMode) String() string {
	switch s {
	case Round:
		return "Round"
	case Bevel:
		return "Bevel"
	case Miter:
		return "Miter"
	case MiterClip:
		return "MiterClip"
	case Arc:
		return "Arc"
	case ArcClip:
		return "ArcClip"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	NilCap CapMode = iota // default value
	ButtCap
	SquareCap
	RoundCap
)

func (c CapMode) String() string {
	switch c {
	case NilCap:
		return "NilCap"
	case ButtCap:
		return "ButtCap"
	case SquareCap:
		return "SquareCap"
	case RoundCap:
		return "RoundCap"
	default:
		return "<unknown CapMode>"
	}
}

type JoinOptions struct {
	MiterLimit   fixed.Int26_6 // the miter cutoff value for miter, arc, miterclip and arcClip joinModes
	LineJoin     JoinMode      // JoinMode for curve segments
	TrailLineCap CapMode       // capping function for line ends
}

type StrokeOptions struct {
	LineWidth fixed.Int26_6 // width of the line
	Join      JoinOptions
	Dash      DashOptions
}

// Draw the scene into the driver `d`, in document order,
// applying the pose transforms of the groups.
func (s *Scene) Draw(d Driver, opacity float64) {
	for i := range s.SVGPaths {
		s.drawPath(d, i, opacity)
	}
}

// DrawOrdered draws the content which is not inside one of the `order` groups
// first, in document order, then the subtree of each listed group,
// in list order. A path belongs to its nearest listed ancestor.
// Nil entries are ignored.
func (s *Scene) DrawOrdered(d Driver, order []*Group, opacity float64) {
	slot := make(map[*Group]int, len(order))
	for i, g := range order {
		if g == nil {
			continue
		}
		if _, dup := slot[g]; !dup {
			slot[g] = i
		}
	}
	buckets := make([][]int, len(order))
	for i := range s.SVGPaths {
		owner := -1
		for grp := s.SVGPaths[i].Group; grp != nil; grp = grp.Parent {
			if k, ok := slot[grp]; ok {
				owner = k
				break
			}
		}
		if owner < 0 {
			s.drawPath(d, i, opacity)
		} else {
			buckets[owner] = append(buckets[owner], i)
		}
	}
	for _, bucket := range buckets {
		for _, i := range bucket {
			s.drawPath(d, i, opacity)
		}
	}
}

// pathMatrix returns the transform from the path coordinates to the output
func (s *Scene) pathMatrix(svgp *SvgPath) Matrix2D {
	return s.Transform.Mult(svgp.Group.effectivePose()).Mult(svgp.Style.transform)
}

func (s *Scene) drawPath(d Driver, i int, opacity float64) {
	svgp := &s.SVGPaths[i]
	if svgp.Style.Hidden || svgp.Group.hidden() {
		return
	}
	svgp.drawTransformed(d, opacity, s.pathMatrix(svgp))
}

// drawTransformed draws the compiled SvgPath into the driver while applying transform M.
func (svgp *SvgPath) drawTransformed(d Driver, opacity float64, M Matrix2D) {
	filler, stroker := d.SetupDrawers(svgp.Style.FillerColor != nil, svgp.Style.LinerColor != nil)
	if filler != nil { // nil color disable filling
		filler.Clear()
		filler.SetWinding(svgp.Style.UseNonZeroWinding)

		for _, op := range svgp.Path {
			op.drawTo(filler, M)
		}
		filler.Stop(false)

		filler.SetColor(svgp.Style.FillerColor, svgp.Style.FillOpacity*opacity)
		filler.Draw()
		filler.SetWinding(true) // default is true
	}

	if stroker != nil { // nil color disable lining
		stroker.Clear()

		lineCap := svgp.Style.Join.TrailLineCap
		if lineCap == NilCap {
			lineCap = DefaultStyle.Join.TrailLineCap
		}
		// scale the width with the transform, as the points are
		// already transformed
		scale := (norm(M.A, M.B) + norm(M.C, M.D)) / 2
		stroker.SetStrokeOptions(StrokeOptions{
			LineWidth: fToFixed(svgp.Style.LineWidth * scale),
			Join: JoinOptions{
				MiterLimit:   svgp.Style.Join.MiterLimit,
				LineJoin:     svgp.Style.Join.LineJoin,
				TrailLineCap: lineCap,
			},
			Dash: svgp.Style.Dash,
		})

		for _, op := range svgp.Path {
			op.drawTo(stroker, M)
		}
		stroker.Stop(false)

		stroker.SetColor(svgp.Style.LinerColor, svgp.Style.LineOpacity*opacity)
		stroker.Draw()
	}
}
