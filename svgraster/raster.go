// Implements a raster backend to render scenes,
// by wrapping rasterx.
package svgraster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/benoitkugler/svgpuppet/svgscene"
	"github.com/srwiley/rasterx"
)

var _ svgscene.Driver = (*Renderer)(nil) // assert interface conformance

type Renderer struct {
	dasher dasher // to avoid shared state
	filler filler // we use separated instance
}

// NewRenderer returns a renderer with default values.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
func NewRenderer(width, height int, scanner rasterx.Scanner) *Renderer {
	return &Renderer{
		dasher: dasher{rasterx.NewDasher(width, height, scanner)},
		filler: filler{rasterx.NewFiller(width, height, scanner)},
	}
}

// SetupDrawers implements svgscene.Driver
func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f svgscene.Filler, s svgscene.Stroker) {
	if willFill {
		f = rd.filler
	}
	if willStroke {
		s = rd.dasher
	}
	return f, s
}

// Rasterize draws into a new image of the given size,
// painted with bg first, if not nil.
func Rasterize(width, height int, bg color.Color, paint func(svgscene.Driver)) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if bg != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	paint(NewRenderer(width, height, scanner))
	return img
}

// RasterSceneToImage renders the scene, at the size of its view box
// if its output transform is the identity.
func RasterSceneToImage(scene *svgscene.Scene) *image.RGBA {
	w, h := int(scene.ViewBox.W), int(scene.ViewBox.H)
	return Rasterize(w, h, nil, func(d svgscene.Driver) { scene.Draw(d, 1) })
}

// RasterSVGToImage parses the document and renders it.
func RasterSVGToImage(svg io.Reader) (*image.RGBA, error) {
	scene, err := svgscene.Parse(svg, svgscene.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	return RasterSceneToImage(scene), nil
}

// WritePNG encodes the image as PNG.
func WritePNG(out io.Writer, img image.Image) error {
	return png.Encode(out, img)
}

// resolve the color
func setColorFromPattern(color svgscene.Pattern, opacity float64, scanner rasterx.Scanner) {
	switch fillerColor := color.(type) {
	case svgscene.PlainColor:
		scanner.SetColor(rasterx.ApplyOpacity(fillerColor, opacity))
	}
}

type filler struct {
	*rasterx.Filler
}

func (f filler) SetColor(color svgscene.Pattern, opacity float64) {
	setColorFromPattern(color, opacity, f.Scanner)
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgscene.Round:     rasterx.Round,
		svgscene.Bevel:     rasterx.Bevel,
		svgscene.Miter:     rasterx.Miter,
		svgscene.MiterClip: rasterx.MiterClip,
		svgscene.Arc:       rasterx.Arc,
		svgscene.ArcClip:   rasterx.ArcClip,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgscene.NilCap:    rasterx.ButtCap,
		svgscene.ButtCap:   rasterx.ButtCap,
		svgscene.SquareCap: rasterx.SquareCap,
		svgscene.RoundCap:  rasterx.RoundCap,
	}
)

type dasher struct {
	*rasterx.Dasher
}

func (d dasher) SetColor(color svgscene.Pattern, opacity float64) {
	setColorFromPattern(color, opacity, d.Scanner)
}

func (d dasher) SetStrokeOptions(options svgscene.StrokeOptions) {
	d.SetStroke(
		options.LineWidth, options.Join.MiterLimit, capToFunc[options.Join.TrailLineCap],
		capToFunc[options.Join.TrailLineCap], rasterx.FlatGap,
		joinToJoin[options.Join.LineJoin], options.Dash.Dash, options.Dash.DashOffset,
	)
}
