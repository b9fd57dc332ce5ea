package svgraster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/puppet"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gonum.org/v1/gonum/spatial/r2"
)

func rgb(s string) color.RGBA {
	var c color.RGBA
	for i, p := range []*uint8{&c.R, &c.G, &c.B} {
		var v uint8
		for _, r := range s[1+2*i : 3+2*i] {
			v <<= 4
			switch {
			case r >= '0' && r <= '9':
				v |= uint8(r - '0')
			default:
				v |= uint8(r-'a') + 10
			}
		}
		*p = v
	}
	c.A = 0xff
	return c
}

func checkPixel(t *testing.T, img *image.RGBA, x, y int, expected string) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != rgb(expected) {
		t.Errorf("pixel (%d, %d): expected %s, got %v", x, y, expected, got)
	}
}

func TestRasterSVG(t *testing.T) {
	f, err := os.Open("../testdata/puppet.svg")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := RasterSVGToImage(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 200, 220) {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	checkPixel(t, img, 5, 5, "#f4f0e8")
	checkPixel(t, img, 100, 85, "#d94f3d")
	checkPixel(t, img, 165, 50, "#b37a52")

	var buf bytes.Buffer
	if err = WritePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	if _, err = png.Decode(&buf); err != nil {
		t.Fatal(err)
	}

	if _, err = RasterSVGToImage(strings.NewReader("")); err == nil {
		t.Error("expected an error for an empty document")
	}
}

func TestRasterPosedPuppet(t *testing.T) {
	cfg := puppet.DefaultConfig()
	cfg.Canvas = puppet.Canvas{Width: 200, Height: 220}
	p, err := puppet.Load(context.Background(), puppet.FileSource("../testdata/puppet.svg"), cfg)
	if err != nil {
		t.Fatal(err)
	}
	arm, _ := p.Skeleton().Bone("leftUpperArm")
	// arm down, forearm down
	_, ok := p.Apply([]pose.Pose{{Score: 1, Keypoints: []pose.Keypoint{
		{Label: pose.LeftShoulder, Position: arm.BindStart, Confidence: 1},
		{Label: pose.LeftElbow, Position: r2.Vec{X: 120, Y: 80}, Confidence: 1},
		{Label: pose.LeftWrist, Position: r2.Vec{X: 120, Y: 110}, Confidence: 1},
	}}})
	if !ok {
		t.Fatal("expected a frame")
	}

	img := Rasterize(200, 220, color.White, p.Draw)
	checkPixel(t, img, 165, 50, "#f4f0e8")
	checkPixel(t, img, 121, 95, "#b37a52")
	checkPixel(t, img, 100, 85, "#d94f3d")
}

func TestBackground(t *testing.T) {
	img := Rasterize(4, 4, color.Black, func(svgscene.Driver) {})
	checkPixel(t, img, 2, 2, "#000000")
	img = Rasterize(4, 4, nil, func(svgscene.Driver) {})
	if img.RGBAAt(2, 2).A != 0 {
		t.Error("expected a transparent image")
	}
}
