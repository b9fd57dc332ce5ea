// Implements a PDF backend to render scenes,
// by wrapping github.com/jung-kurt/gofpdf.
package svgpdf

import (
	"io"

	"github.com/benoitkugler/svgpuppet/svgscene"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ svgscene.Driver  = (*Renderer)(nil)
	_ svgscene.Filler  = (*filler)(nil)
	_ svgscene.Stroker = (*stroker)(nil)
)

type Renderer struct {
	filler  *filler
	stroker *stroker
}

// implements the path commands,
// shared by the filler and the stroker
type pather struct {
	pdf *gofpdf.Fpdf
}

// implements the filling operation
type filler struct {
	pather
	useNonZeroWinding bool
}

// implements the stroking operation
type stroker struct {
	pather
}

// NewRenderer return a renderer which will
// write to the current page of `pdf`.
func NewRenderer(pdf *gofpdf.Fpdf) *Renderer {
	return &Renderer{
		filler:  &filler{pather: pather{pdf: pdf}, useNonZeroWinding: true},
		stroker: &stroker{pather: pather{pdf: pdf}},
	}
}

// SetupDrawers implements svgscene.Driver
func (r *Renderer) SetupDrawers(willFill, willStroke bool) (f svgscene.Filler, s svgscene.Stroker) {
	if willFill {
		f = r.filler
	}
	if willStroke {
		s = r.stroker
	}
	return f, s
}

func fixedTof(a fixed.Point26_6) (float64, float64) {
	return float64(a.X) / 64, float64(a.Y) / 64
}

func (p pather) Clear() {}

func (p pather) Start(a fixed.Point26_6) {
	p.pdf.MoveTo(fixedTof(a))
}

func (p pather) Line(b fixed.Point26_6) {
	p.pdf.LineTo(fixedTof(b))
}

func (p pather) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {
	cx, cy := fixedTof(b)
	x, y := fixedTof(c)
	p.pdf.CurveTo(cx, cy, x, y)
}

func (p pather) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {
	cx0, cy0 := fixedTof(b)
	cx1, cy1 := fixedTof(c)
	x, y := fixedTof(d)
	p.pdf.CurveBezierCubicTo(cx0, cy0, cx1, cy1, x, y)
}

func (p pather) Stop(closeLoop bool) {
	if closeLoop {
		p.pdf.ClosePath()
	}
}

func (f *filler) SetColor(color svgscene.Pattern, opacity float64) {
	switch color := color.(type) {
	case svgscene.PlainColor:
		f.pdf.SetFillColor(int(color.R), int(color.G), int(color.B))
		opacity *= float64(color.A) / 255.
	}
	f.pdf.SetAlpha(opacity, "Normal")
}

func (f *filler) Draw() {
	styleStr := "f*"
	if f.useNonZeroWinding {
		styleStr = "f"
	}
	f.pdf.DrawPath(styleStr)
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

func (s *stroker) SetColor(color svgscene.Pattern, opacity float64) {
	switch color := color.(type) {
	case svgscene.PlainColor:
		s.pdf.SetDrawColor(int(color.R), int(color.G), int(color.B))
		opacity *= float64(color.A) / 255.
	}
	s.pdf.SetAlpha(opacity, "Normal")
}

func (s *stroker) Draw() {
	s.pdf.DrawPath("D")
}

var (
	capToStyle = [...]string{
		svgscene.NilCap:    "butt",
		svgscene.ButtCap:   "butt",
		svgscene.SquareCap: "square",
		svgscene.RoundCap:  "round",
	}

	// PDF has no arc joins
	joinToStyle = [...]string{
		svgscene.Round:     "round",
		svgscene.Bevel:     "bevel",
		svgscene.Miter:     "miter",
		svgscene.MiterClip: "miter",
		svgscene.Arc:       "round",
		svgscene.ArcClip:   "round",
	}
)

func (s *stroker) SetStrokeOptions(options svgscene.StrokeOptions) {
	s.pdf.SetLineWidth(float64(options.LineWidth) / 64)
	s.pdf.SetLineCapStyle(capToStyle[options.Join.TrailLineCap])
	s.pdf.SetLineJoinStyle(joinToStyle[options.Join.LineJoin])
	s.pdf.SetDashPattern(options.Dash.Dash, options.Dash.DashOffset)
}

// Document is a PDF file with one page per drawing,
// all with the same size, in points.
type Document struct {
	PDF *gofpdf.Fpdf

	width, height float64
}

// NewDocument returns an empty document.
func NewDocument(width, height float64) *Document {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &Document{PDF: pdf, width: width, height: height}
}

// AddPage adds a page and draws on it.
func (doc *Document) AddPage(paint func(svgscene.Driver)) {
	doc.PDF.AddPage()
	paint(NewRenderer(doc.PDF))
}

// PageCount returns the number of pages.
func (doc *Document) PageCount() int { return doc.PDF.PageCount() }

// Output writes the document and closes it.
func (doc *Document) Output(w io.Writer) error { return doc.PDF.Output(w) }

// OutputFile writes the document to disk and closes it.
func (doc *Document) OutputFile(path string) error { return doc.PDF.OutputFileAndClose(path) }

// RenderSVGToPDF writes a one-page PDF with the given document,
// at the size of its view box.
func RenderSVGToPDF(svg io.Reader, out io.Writer) error {
	scene, err := svgscene.Parse(svg, svgscene.IgnoreErrorMode)
	if err != nil {
		return err
	}
	doc := NewDocument(scene.ViewBox.W, scene.ViewBox.H)
	doc.AddPage(func(d svgscene.Driver) { scene.Draw(d, 1) })
	return doc.Output(out)
}
