package svgscene

import (
	"encoding/xml"
	"errors"
	"math"
	"strings"
)

type (
	// sceneCursor is used while parsing SVG files
	sceneCursor struct {
		pathCursor
		scene                                   *Scene
		styleStack                              []PathStyle
		groupStack                              []*Group
		grad                                    string // id of the gradient being read
		inTitleText, inDescText, inGrad, inDefs bool
		svgDepth                                int
		currentDef                              []definition
	}

	// definition is used to store what's given in a def tag
	definition struct {
		ID, Tag string
		Attrs   []xml.Attr
	}
)

// DefaultStyle sets the default PathStyle to fill black, winding rule,
// full opacity, no stroke, ButtCap line end and Bevel line connect.
var DefaultStyle = PathStyle{
	FillOpacity:       1.0,
	LineOpacity:       1.0,
	LineWidth:         2.0,
	UseNonZeroWinding: true,
	Join: JoinOptions{
		MiterLimit:   fToFixed(4),
		LineJoin:     Bevel,
		TrailLineCap: ButtCap,
	},
	FillerColor: NewPlainColor(0x00, 0x00, 0x00, 0xff),
	transform:   Identity,
}

func (c *sceneCursor) currentStyle() PathStyle { return c.styleStack[len(c.styleStack)-1] }

func (c *sceneCursor) currentGroup() *Group { return c.groupStack[len(c.groupStack)-1] }

func (c *sceneCursor) readTransformAttr(m1 Matrix2D, k string) (Matrix2D, error) {
	ln := len(c.points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(c.points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(c.points[1], c.points[2]).
				Rotate(c.points[0]*math.Pi/180).
				Translate(-c.points[1], -c.points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(c.points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(c.points[0], c.points[0])
		} else if ln == 2 {
			m1 = m1.Scale(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(Matrix2D{
				A: c.points[0],
				B: c.points[1],
				C: c.points[2],
				D: c.points[3],
				E: c.points[4],
				F: c.points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

func (c *sceneCursor) parseTransform(v string) (Matrix2D, error) {
	ts := strings.Split(v, ")")
	m1 := c.currentStyle().transform
	for _, t := range ts {
		t = strings.TrimSpace(strings.TrimLeft(t, ", \t\n"))
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		err := c.getPoints(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = c.readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])))
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

// readGradURL resolves a url(#id) paint reference. Gradients are
// flattened to their first stop color.
func (c *sceneCursor) readGradURL(v string) (Pattern, bool) {
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return nil, false
	}
	urlStr := strings.TrimSpace(v[4 : len(v)-1])
	if !strings.HasPrefix(urlStr, "#") {
		return nil, false
	}
	if col, ok := c.scene.grads[urlStr[1:]]; ok {
		return col.asPattern(), true
	}
	return DefaultStyle.FillerColor, true
}

func (c *sceneCursor) readStyleAttr(curStyle *PathStyle, k, v string) error {
	switch k {
	case "fill":
		if gradient, ok := c.readGradURL(v); ok {
			curStyle.FillerColor = gradient
			break
		}
		optCol, err := parseSVGColor(v)
		curStyle.FillerColor = optCol.asPattern()
		return err
	case "stroke":
		if gradient, ok := c.readGradURL(v); ok {
			curStyle.LinerColor = gradient
			break
		}
		col, errc := parseSVGColor(v)
		if errc != nil {
			return errc
		}
		curStyle.LinerColor = col.asPattern()
	case "fill-rule":
		curStyle.UseNonZeroWinding = v != "evenodd"
	case "display":
		curStyle.Hidden = v == "none"
	case "visibility":
		curStyle.Hidden = v == "hidden" || v == "collapse"
	case "stroke-linecap":
		switch v {
		case "butt":
			curStyle.Join.TrailLineCap = ButtCap
		case "round":
			curStyle.Join.TrailLineCap = RoundCap
		case "square":
			curStyle.Join.TrailLineCap = SquareCap
		}
	case "stroke-linejoin":
		switch v {
		case "miter":
			curStyle.Join.LineJoin = Miter
		case "miter-clip":
			curStyle.Join.LineJoin = MiterClip
		case "arc-clip":
			curStyle.Join.LineJoin = ArcClip
		case "round":
			curStyle.Join.LineJoin = Round
		case "arc":
			curStyle.Join.LineJoin = Arc
		case "bevel":
			curStyle.Join.LineJoin = Bevel
		}
	case "stroke-miterlimit":
		mLimit, err := parseFloat(v, 64)
		if err != nil {
			return err
		}
		curStyle.Join.MiterLimit = fToFixed(mLimit)
	case "stroke-width":
		width, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		curStyle.LineWidth = width
	case "stroke-dashoffset":
		dashOffset, err := parseFloat(v, 64)
		if err != nil {
			return err
		}
		curStyle.Dash.DashOffset = dashOffset
	case "stroke-dasharray":
		if v == "none" {
			curStyle.Dash.Dash = nil
			break
		}
		dashes := splitOnCommaOrSpace(v)
		dList := make([]float64, len(dashes))
		for i, dstr := range dashes {
			d, err := parseBasicFloat(dstr)
			if err != nil {
				return err
			}
			dList[i] = d
		}
		curStyle.Dash.Dash = dList
	case "opacity", "stroke-opacity", "fill-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		if k != "stroke-opacity" {
			curStyle.FillOpacity *= op
		}
		if k != "fill-opacity" {
			curStyle.LineOpacity *= op
		}
	case "transform":
		m, err := c.parseTransform(v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	}
	return nil
}

// pushStyle parses the style element, and push it on the style stack. Only color and opacity are supported
// for fill. Note that this parses both the contents of a style attribute plus
// direct fill and opacity attributes.
func (c *sceneCursor) pushStyle(attrs []xml.Attr) error {
	var pairs []string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			pairs = append(pairs, strings.Split(attr.Value, ";")...)
		default:
			pairs = append(pairs, attr.Name.Local+":"+attr.Value)
		}
	}
	// Make a copy of the top style
	curStyle := c.currentStyle()
	for _, pair := range pairs {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			k := strings.ToLower(strings.TrimSpace(kv[0]))
			v := strings.TrimSpace(kv[1])
			if err := c.readStyleAttr(&curStyle, k, v); err != nil {
				return err
			}
		}
	}
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' '
		})
}

// elementNames returns the id and the inkscape:label of an element
func elementNames(attrs []xml.Attr) (id, label string) {
	for _, attr := range attrs {
		switch {
		case attr.Name.Local == "id":
			id = attr.Value
		case attr.Name.Local == "label" && strings.Contains(attr.Name.Space, "inkscape"):
			label = attr.Value
		}
	}
	return id, label
}

// openGroup appends a new group as child of the current one,
// registering its names
func (c *sceneCursor) openGroup(attrs []xml.Attr) *Group {
	parent := c.currentGroup()
	id, label := elementNames(attrs)
	g := &Group{
		ID:        id,
		Label:     label,
		Parent:    parent,
		scene:     c.scene,
		transform: c.currentStyle().transform,
		pose:      Identity,
	}
	parent.Children = append(parent.Children, g)
	c.scene.groups = append(c.scene.groups, g)
	if id != "" {
		if _, dup := c.scene.byID[id]; !dup {
			c.scene.byID[id] = g
		}
	}
	if label != "" {
		if _, dup := c.scene.byLabel[label]; !dup {
			c.scene.byLabel[label] = g
		}
	}
	return g
}

func (c *sceneCursor) readStartElement(se xml.StartElement) (err error) {
	var skipDef bool
	if se.Name.Local == "radialGradient" || se.Name.Local == "linearGradient" || c.inGrad {
		skipDef = true
	}
	if c.inDefs && !skipDef {
		ID, _ := elementNames(se.Attr)
		if ID != "" && len(c.currentDef) > 0 {
			c.scene.defs[c.currentDef[0].ID] = c.currentDef
			c.currentDef = make([]definition, 0)
		}
		c.currentDef = append(c.currentDef, definition{
			ID:    ID,
			Tag:   se.Name.Local,
			Attrs: se.Attr,
		})
		return nil
	}

	switch se.Name.Local {
	case "svg":
		c.svgDepth++
		if c.svgDepth > 1 { // nested viewport, handled as a group
			c.groupStack = append(c.groupStack, c.openGroup(se.Attr))
			return nil
		}
		c.scene.Root.ID, c.scene.Root.Label = elementNames(se.Attr)
		if c.scene.Root.ID != "" {
			c.scene.byID[c.scene.Root.ID] = c.scene.Root
		}
	case "g":
		c.groupStack = append(c.groupStack, c.openGroup(se.Attr))
		return nil
	}

	df, ok := drawFuncs[se.Name.Local]
	if !ok {
		return c.handleError("Cannot process svg element " + se.Name.Local)
	}
	err = df(c, se.Attr)

	if len(c.path) > 0 {
		//The cursor parsed a path from the xml element
		owner := c.currentGroup()
		if id, label := elementNames(se.Attr); id != "" || label != "" {
			// named shapes are addressable as single path groups
			owner = c.openGroup(se.Attr)
		}
		pathCopy := append(Path{}, c.path...)
		c.scene.SVGPaths = append(c.scene.SVGPaths,
			SvgPath{Path: pathCopy, Style: c.currentStyle(), Group: owner})
		c.path = c.path[:0]
	}
	return
}

func (c *sceneCursor) readEndElement(se xml.EndElement) {
	// pop style
	c.styleStack = c.styleStack[:len(c.styleStack)-1]
	switch se.Name.Local {
	case "g":
		if c.inDefs {
			c.currentDef = append(c.currentDef, definition{
				Tag: "endg",
			})
			return
		}
		c.groupStack = c.groupStack[:len(c.groupStack)-1]
	case "svg":
		if c.inDefs {
			return
		}
		if c.svgDepth > 1 {
			c.groupStack = c.groupStack[:len(c.groupStack)-1]
		}
		c.svgDepth--
	case "title":
		c.inTitleText = false
	case "desc":
		c.inDescText = false
	case "defs":
		if len(c.currentDef) > 0 {
			c.scene.defs[c.currentDef[0].ID] = c.currentDef
			c.currentDef = make([]definition, 0)
		}
		c.inDefs = false
	case "radialGradient", "linearGradient":
		c.inGrad = false
	}
}

func readFraction(v string) (f float64, err error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err = parseFloat(v, 64)
	f /= d
	return
}

type percentageReference uint8

const (
	widthPercentage percentageReference = iota
	heightPercentage
	diagPercentage
)

// absolute units, in pixels
var unitFactors = [...]struct {
	suffix string
	factor float64
}{
	{"px", 1},
	{"pt", 4. / 3},
	{"pc", 16},
	{"mm", 96 / 25.4},
	{"cm", 96 / 2.54},
	{"in", 96},
}

var errUnit = errors.New("invalid length")

// parseUnit converts a length to user units. Percentages are resolved
// against the viewBox.
func (c *sceneCursor) parseUnit(s string, asPerc percentageReference) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errUnit
	}
	if strings.HasSuffix(s, "%") {
		f, err := parseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		vb := c.scene.ViewBox
		switch asPerc {
		case widthPercentage:
			return f / 100 * vb.W, nil
		case heightPercentage:
			return f / 100 * vb.H, nil
		default:
			return f / 100 * math.Sqrt(vb.W*vb.W+vb.H*vb.H) / math.Sqrt2, nil
		}
	}
	for _, u := range unitFactors {
		if strings.HasSuffix(s, u.suffix) {
			f, err := parseFloat(strings.TrimSuffix(s, u.suffix), 64)
			return f * u.factor, err
		}
	}
	return parseFloat(s, 64)
}
