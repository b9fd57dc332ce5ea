package svgscene

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestGetPoints(t *testing.T) {
	for _, test := range []struct {
		in       string
		expected []float64
	}{
		{"1 2,3", []float64{1, 2, 3}},
		{"10-5.5.5", []float64{10, -5.5, 0.5}},
		{"1e-2,3E1", []float64{0.01, 30}},
		{"  -.5\n+2 ", []float64{-0.5, 2}},
		{"", nil},
	} {
		var c pathCursor
		if err := c.getPoints(test.in); err != nil {
			t.Fatalf("%q: %s", test.in, err)
		}
		if len(c.points) == 0 && len(test.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(c.points, test.expected) {
			t.Errorf("%q: expected %v, got %v", test.in, test.expected, c.points)
		}
	}

	var c pathCursor
	if err := c.getPoints("1 x 2"); err == nil {
		t.Error("expected an error on invalid input")
	}
}

// pathData formats the path with SVG syntax, in absolute coordinates
func pathData(p Path) string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = fmt.Sprintf("M%4.3f,%4.3f", float32(op.X)/64, float32(op.Y)/64)
		case LineTo:
			chunks[i] = fmt.Sprintf("L%4.3f,%4.3f", float32(op.X)/64, float32(op.Y)/64)
		case QuadTo:
			chunks[i] = fmt.Sprintf("Q%4.3f,%4.3f,%4.3f,%4.3f", float32(op[0].X)/64, float32(op[0].Y)/64,
				float32(op[1].X)/64, float32(op[1].Y)/64)
		case CubicTo:
			chunks[i] = fmt.Sprintf("C%4.3f,%4.3f,%4.3f,%4.3f,%4.3f,%4.3f", float32(op[0].X)/64, float32(op[0].Y)/64,
				float32(op[1].X)/64, float32(op[1].Y)/64, float32(op[2].X)/64, float32(op[2].Y)/64)
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

func TestCompilePath(t *testing.T) {
	for _, test := range []struct {
		d, expected string
	}{
		{"M10 20 L30 40 Z", "M10.000,20.000 L30.000,40.000 Z"},
		{"m10 20 l5 5 h5 v-10", "M10.000,20.000 L15.000,25.000 L20.000,25.000 L20.000,15.000"},
		{"M0 0 Q5 5 10 0 T20 0", "M0.000,0.000 Q5.000,5.000,10.000,0.000 Q15.000,-5.000,20.000,0.000"},
		{"M0 0 C0 5 10 5 10 0 S20 -5 20 0", "M0.000,0.000 C0.000,5.000,10.000,5.000,10.000,0.000 C10.000,-5.000,20.000,-5.000,20.000,0.000"},
	} {
		var c pathCursor
		if err := c.compilePath(test.d); err != nil {
			t.Fatalf("%q: %s", test.d, err)
		}
		if got := pathData(c.path); got != test.expected {
			t.Errorf("%q: expected\n%s\ngot\n%s", test.d, test.expected, got)
		}
	}
}

func TestArcEndsOnTarget(t *testing.T) {
	var c pathCursor
	if err := c.compilePath("M0 0 A10 10 0 0 1 20 0"); err != nil {
		t.Fatal(err)
	}
	last, ok := c.path[len(c.path)-1].(CubicTo)
	if !ok {
		t.Fatalf("expected a cubic, got %T", c.path[len(c.path)-1])
	}
	if last[2] != toFixedP(20, 0) {
		t.Errorf("arc should end on its target, got %v", last[2])
	}
}

func TestMatrix(t *testing.T) {
	m := Identity.Translate(10, 5).Rotate(math.Pi / 3).Scale(2, 0.5)
	if !m.Mult(m.Invert()).Equal(Identity, 1e-12) {
		t.Error("M * M^-1 should be the identity")
	}
	x, y := Identity.Rotate(math.Pi/2).Transform(1, 0)
	if math.Abs(x) > 1e-12 || math.Abs(y-1) > 1e-12 {
		t.Errorf("unexpected rotation (%f, %f)", x, y)
	}
	// b is applied first
	x, y = Identity.Translate(1, 0).Mult(Identity.Scale(2, 2)).Transform(1, 1)
	if x != 3 || y != 2 {
		t.Errorf("unexpected composition (%f, %f)", x, y)
	}
}

func TestParseTransform(t *testing.T) {
	c := sceneCursor{styleStack: []PathStyle{DefaultStyle}}
	m, err := c.parseTransform("translate(10 20) scale(2)")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Equal(Matrix2D{2, 0, 0, 2, 10, 20}, 1e-12) {
		t.Errorf("unexpected matrix %v", m)
	}
	if _, err = c.parseTransform("rotate(1, 2)"); err == nil {
		t.Error("expected an error for rotate with 2 arguments")
	}
}

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		in      string
		r, g, b uint8
	}{
		{"red", 0xff, 0, 0},
		{"#0f0", 0, 0xff, 0},
		{"#0000FF", 0, 0, 0xff},
		{"rgb(100%, 0%, 50%)", 0xff, 0, 0x80},
		{"rgba(1,2,3,0.5)", 1, 2, 3},
	} {
		col, err := parseSVGColor(test.in)
		if err != nil {
			t.Fatalf("%q: %s", test.in, err)
		}
		if !col.valid || col.color.R != test.r || col.color.G != test.g || col.color.B != test.b {
			t.Errorf("%q: unexpected %v", test.in, col.color)
		}
	}
	if col, err := parseSVGColor("none"); err != nil || col.asPattern() != nil {
		t.Error("none should disable painting")
	}
	if _, err := parseSVGColor("#12"); err == nil {
		t.Error("expected an error")
	}
}
