package svgscene

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// pathCursor is used to compile the `d` attribute of
// a path element, and the point lists of the basic shapes
type pathCursor struct {
	path                   Path
	placeX, placeY         float64
	curX, curY             float64 // offset of the enclosing `use` element
	cntlPtX, cntlPtY       float64
	pathStartX, pathStartY float64
	points                 []float64
	lastKey                byte
	errorMode              ErrorMode
}

func (c *pathCursor) init() {
	c.placeX, c.placeY = 0, 0
	c.cntlPtX, c.cntlPtY = 0, 0
	c.points = c.points[:0]
	c.lastKey = ' '
	c.path.Clear()
}

func parseFloat(s string, bitSize int) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), bitSize)
}

// parseBasicFloat accepts an optional px suffix
func parseBasicFloat(s string) (float64, error) {
	return parseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
}

func isSeparator(r byte) bool {
	return r == ',' || unicode.IsSpace(rune(r))
}

// getPoints reads a list of numbers into c.points.
// Numbers may be packed as in "10-5.5.5", which is 10, -5.5, 0.5
func (c *pathCursor) getPoints(dataPoints string) error {
	c.points = c.points[:0]
	start := -1
	var seenDot, seenExp bool
	flush := func(end int) error {
		if start < 0 {
			return nil
		}
		f, err := parseFloat(dataPoints[start:end], 64)
		if err != nil {
			return err
		}
		c.points = append(c.points, f)
		start = -1
		return nil
	}
	for i := 0; i < len(dataPoints); i++ {
		ch := dataPoints[i]
		switch {
		case '0' <= ch && ch <= '9':
			if start < 0 {
				start, seenDot, seenExp = i, false, false
			}
		case ch == '.':
			if start >= 0 && (seenDot || seenExp) {
				if err := flush(i); err != nil {
					return err
				}
			}
			if start < 0 {
				start, seenExp = i, false
			}
			seenDot = true
		case ch == '-' || ch == '+':
			if start >= 0 && (dataPoints[i-1] == 'e' || dataPoints[i-1] == 'E') {
				continue
			}
			if err := flush(i); err != nil {
				return err
			}
			start, seenDot, seenExp = i, false, false
		case ch == 'e' || ch == 'E':
			if start < 0 || seenExp {
				return errParamMismatch
			}
			seenExp = true
		case isSeparator(ch):
			if err := flush(i); err != nil {
				return err
			}
		default:
			return errParamMismatch
		}
	}
	return flush(len(dataPoints))
}

// compilePath translates the svgPath description string into a path.
// The resulting path element is stored in the pathCursor.
func (c *pathCursor) compilePath(svgPath string) error {
	c.init()
	lastIndex := -1
	for i, v := range svgPath {
		if unicode.IsLetter(v) && v != 'e' && v != 'E' {
			if lastIndex != -1 {
				if err := c.addSeg(svgPath[lastIndex:i]); err != nil {
					return err
				}
			}
			lastIndex = i
		}
	}
	if lastIndex != -1 {
		if err := c.addSeg(svgPath[lastIndex:]); err != nil {
			return err
		}
	}
	return nil
}

// abs resolves a path coordinate into absolute user space
func (c *pathCursor) abs(rel bool, x, y float64) (float64, float64) {
	if rel {
		return c.placeX + x, c.placeY + y
	}
	return x + c.curX, y + c.curY
}

// reflect returns the implicit control point of a smooth curve command:
// the mirror of the last control point when the previous command
// was of the same family, the current point otherwise
func (c *pathCursor) reflect(family ...byte) (float64, float64) {
	for _, k := range family {
		if c.lastKey == k {
			return 2*c.placeX - c.cntlPtX, 2*c.placeY - c.cntlPtY
		}
	}
	return c.placeX, c.placeY
}

func (c *pathCursor) lineTo(x, y float64) {
	c.placeX, c.placeY = x, y
	c.path.Line(toFixedP(x, y))
}

// addSeg decodes an individual command of the path
func (c *pathCursor) addSeg(segString string) error {
	if err := c.getPoints(segString[1:]); err != nil {
		return err
	}
	l := len(c.points)
	k := segString[0]
	rel := 'a' <= k && k <= 'z'
	lk := k | 0x20 // lower case
	switch lk {
	case 'z':
		if l != 0 {
			return errParamMismatch
		}
		c.path.Stop(true)
		c.placeX, c.placeY = c.pathStartX, c.pathStartY
	case 'm':
		if l < 2 || l%2 != 0 {
			return errParamMismatch
		}
		c.placeX, c.placeY = c.abs(rel, c.points[0], c.points[1])
		c.pathStartX, c.pathStartY = c.placeX, c.placeY
		c.path.Start(toFixedP(c.placeX, c.placeY))
		for i := 2; i < l-1; i += 2 {
			c.lineTo(c.abs(rel, c.points[i], c.points[i+1]))
		}
	case 'l':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-1; i += 2 {
			c.lineTo(c.abs(rel, c.points[i], c.points[i+1]))
		}
	case 'h':
		if l == 0 {
			return errParamMismatch
		}
		for _, x := range c.points {
			if rel {
				x += c.placeX
			} else {
				x += c.curX
			}
			c.lineTo(x, c.placeY)
		}
	case 'v':
		if l == 0 {
			return errParamMismatch
		}
		for _, y := range c.points {
			if rel {
				y += c.placeY
			} else {
				y += c.curY
			}
			c.lineTo(c.placeX, y)
		}
	case 'q':
		if l == 0 || l%4 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-3; i += 4 {
			cx, cy := c.abs(rel, c.points[i], c.points[i+1])
			x, y := c.abs(rel, c.points[i+2], c.points[i+3])
			c.path.QuadBezier(toFixedP(cx, cy), toFixedP(x, y))
			c.cntlPtX, c.cntlPtY, c.placeX, c.placeY = cx, cy, x, y
		}
	case 't':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-1; i += 2 {
			cx, cy := c.reflect('q', 't')
			x, y := c.abs(rel, c.points[i], c.points[i+1])
			c.path.QuadBezier(toFixedP(cx, cy), toFixedP(x, y))
			c.cntlPtX, c.cntlPtY, c.placeX, c.placeY = cx, cy, x, y
			c.lastKey = lk
		}
	case 'c':
		if l == 0 || l%6 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-5; i += 6 {
			c1x, c1y := c.abs(rel, c.points[i], c.points[i+1])
			c2x, c2y := c.abs(rel, c.points[i+2], c.points[i+3])
			x, y := c.abs(rel, c.points[i+4], c.points[i+5])
			c.path.CubeBezier(toFixedP(c1x, c1y), toFixedP(c2x, c2y), toFixedP(x, y))
			c.cntlPtX, c.cntlPtY, c.placeX, c.placeY = c2x, c2y, x, y
		}
	case 's':
		if l == 0 || l%4 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-3; i += 4 {
			c1x, c1y := c.reflect('c', 's')
			c2x, c2y := c.abs(rel, c.points[i], c.points[i+1])
			x, y := c.abs(rel, c.points[i+2], c.points[i+3])
			c.path.CubeBezier(toFixedP(c1x, c1y), toFixedP(c2x, c2y), toFixedP(x, y))
			c.cntlPtX, c.cntlPtY, c.placeX, c.placeY = c2x, c2y, x, y
			c.lastKey = lk
		}
	case 'a':
		if l == 0 || l%7 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-6; i += 7 {
			args := append([]float64(nil), c.points[i:i+7]...)
			x, y := c.abs(rel, args[5], args[6])
			args[5], args[6] = x, y
			args[0], args[1] = math.Abs(args[0]), math.Abs(args[1])
			if args[0] == 0 || args[1] == 0 || (x == c.placeX && y == c.placeY) {
				c.lineTo(x, y)
				continue
			}
			cx, cy := findEllipseCenter(&args[0], &args[1], args[2]*math.Pi/180,
				c.placeX, c.placeY, x, y, args[4] != 0, args[3] == 0)
			c.placeX, c.placeY = c.path.addArc(args, cx, cy, c.placeX, c.placeY)
		}
	default:
		return c.handleError("Ignoring svg command " + string(k))
	}
	c.lastKey = lk
	return nil
}
