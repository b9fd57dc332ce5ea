package svgscene

import (
	"encoding/xml"
	"errors"
	"strings"
)

func init() {
	// avoids cyclical static declaration
	// called on package initialization
	drawFuncs["use"] = useF
}

type svgFunc func(c *sceneCursor, attrs []xml.Attr) error

var drawFuncs = map[string]svgFunc{
	"svg":            svgF,
	"g":              gF,
	"line":           lineF,
	"stop":           stopF,
	"rect":           rectF,
	"circle":         circleF,
	"ellipse":        circleF, //circleF handles ellipse also
	"polyline":       polylineF,
	"polygon":        polygonF,
	"path":           pathF,
	"desc":           descF,
	"defs":           defsF,
	"title":          titleF,
	"linearGradient": gradientF,
	"radialGradient": gradientF,
	"metadata":       ignoreF,
	"style":          ignoreF,
}

func svgF(c *sceneCursor, attrs []xml.Attr) error {
	c.scene.ViewBox = Bounds{}
	var width, height float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "viewBox":
			err = c.getPoints(attr.Value)
			if len(c.points) != 4 {
				return errParamMismatch
			}
			c.scene.ViewBox.X = c.points[0]
			c.scene.ViewBox.Y = c.points[1]
			c.scene.ViewBox.W = c.points[2]
			c.scene.ViewBox.H = c.points[3]
		case "width":
			c.scene.Width = attr.Value
			if !strings.HasSuffix(attr.Value, "%") {
				width, err = c.parseUnit(attr.Value, widthPercentage)
			}
		case "height":
			c.scene.Height = attr.Value
			if !strings.HasSuffix(attr.Value, "%") {
				height, err = c.parseUnit(attr.Value, heightPercentage)
			}
		}
		if err != nil {
			return err
		}
	}
	if c.scene.ViewBox.W == 0 {
		c.scene.ViewBox.W = width
	}
	if c.scene.ViewBox.H == 0 {
		c.scene.ViewBox.H = height
	}
	return nil
}

func gF(*sceneCursor, []xml.Attr) error     { return nil } // g does nothing but push the style
func ignoreF(*sceneCursor, []xml.Attr) error { return nil }

func rectF(c *sceneCursor, attrs []xml.Attr) error {
	var x, y, w, h, rx, ry float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		case "width":
			w, err = c.parseUnit(attr.Value, widthPercentage)
		case "height":
			h, err = c.parseUnit(attr.Value, heightPercentage)
		case "rx":
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if w == 0 || h == 0 {
		return nil
	}
	c.path.addRoundRect(x+c.curX, y+c.curY, w+x+c.curX, h+y+c.curY, rx, ry)
	return nil
}

func circleF(c *sceneCursor, attrs []xml.Attr) error {
	var cx, cy, rx, ry float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			cx, err = c.parseUnit(attr.Value, widthPercentage)
		case "cy":
			cy, err = c.parseUnit(attr.Value, heightPercentage)
		case "r":
			rx, err = c.parseUnit(attr.Value, diagPercentage)
			ry = rx
		case "rx":
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if rx == 0 || ry == 0 { // not drawn, but not an error
		return nil
	}
	c.path.addEllipse(cx+c.curX, cy+c.curY, rx, ry)
	return nil
}

func lineF(c *sceneCursor, attrs []xml.Attr) error {
	var x1, x2, y1, y2 float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			x1, err = c.parseUnit(attr.Value, widthPercentage)
		case "x2":
			x2, err = c.parseUnit(attr.Value, widthPercentage)
		case "y1":
			y1, err = c.parseUnit(attr.Value, heightPercentage)
		case "y2":
			y2, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	c.path.Start(toFixedP(x1+c.curX, y1+c.curY))
	c.path.Line(toFixedP(x2+c.curX, y2+c.curY))
	return nil
}

func polylineF(c *sceneCursor, attrs []xml.Attr) error {
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "points":
			err = c.getPoints(attr.Value)
			if len(c.points)%2 != 0 {
				return errors.New("polygon has odd number of points")
			}
		}
		if err != nil {
			return err
		}
	}
	if len(c.points) >= 4 {
		c.path.Start(toFixedP(c.points[0]+c.curX, c.points[1]+c.curY))
		for i := 2; i < len(c.points)-1; i += 2 {
			c.path.Line(toFixedP(c.points[i]+c.curX, c.points[i+1]+c.curY))
		}
	}
	return nil
}

func polygonF(c *sceneCursor, attrs []xml.Attr) error {
	err := polylineF(c, attrs)
	if len(c.points) >= 4 {
		c.path.Stop(true)
	}
	return err
}

func pathF(c *sceneCursor, attrs []xml.Attr) error {
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "d":
			err = c.compilePath(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func descF(c *sceneCursor, attrs []xml.Attr) error {
	c.inDescText = true
	c.scene.Descriptions = append(c.scene.Descriptions, "")
	return nil
}

func titleF(c *sceneCursor, attrs []xml.Attr) error {
	c.inTitleText = true
	c.scene.Titles = append(c.scene.Titles, "")
	return nil
}

func defsF(c *sceneCursor, attrs []xml.Attr) error {
	c.inDefs = true
	return nil
}

// gradientF registers a linear or radial gradient. Only its first
// stop is kept, see stopF.
func gradientF(c *sceneCursor, attrs []xml.Attr) error {
	c.inGrad = true
	c.grad = ""
	for _, attr := range attrs {
		if attr.Name.Local == "id" {
			if len(attr.Value) == 0 {
				return errZeroLengthID
			}
			c.grad = attr.Value
		}
	}
	return nil
}

func stopF(c *sceneCursor, attrs []xml.Attr) error {
	if !c.inGrad || c.grad == "" {
		return nil
	}
	if _, seen := c.scene.grads[c.grad]; seen {
		return nil
	}
	stop := optionnalColor{valid: true, color: DefaultStyle.FillerColor.(PlainColor).NRGBA}
	opacity := 1.
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "stop-color":
			stop, err = parseSVGColor(attr.Value)
		case "stop-opacity":
			opacity, err = readFraction(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	stop.color.A = clampByte(float64(stop.color.A) * opacity)
	c.scene.grads[c.grad] = stop
	return nil
}

func useF(c *sceneCursor, attrs []xml.Attr) error {
	var (
		href string
		x, y float64
		err  error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "href":
			href = attr.Value
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	c.curX, c.curY = x, y
	defer func() {
		c.curX, c.curY = 0, 0
	}()
	if href == "" {
		return errors.New("only use tags with href is supported")
	}
	if !strings.HasPrefix(href, "#") {
		return errors.New("only the ID CSS selector is supported")
	}
	defs, ok := c.scene.defs[href[1:]]
	if !ok {
		return errors.New("href ID in use statement was not found in saved defs")
	}
	for _, def := range defs {
		if def.Tag == "endg" {
			// pop style
			c.styleStack = c.styleStack[:len(c.styleStack)-1]
			continue
		}
		if err = c.pushStyle(def.Attrs); err != nil {
			return err
		}
		df, ok := drawFuncs[def.Tag]
		if !ok {
			if err := c.handleError("Cannot process svg element " + def.Tag); err != nil {
				return err
			}
			c.styleStack = c.styleStack[:len(c.styleStack)-1]
			continue
		}
		if err := df(c, def.Attrs); err != nil {
			return err
		}
		if len(c.path) > 0 {
			pathCopy := append(Path{}, c.path...)
			c.scene.SVGPaths = append(c.scene.SVGPaths,
				SvgPath{Path: pathCopy, Style: c.currentStyle(), Group: c.currentGroup()})
			c.path = c.path[:0]
		}
		if def.Tag != "g" {
			// pop style
			c.styleStack = c.styleStack[:len(c.styleStack)-1]
		}
	}
	return nil
}
