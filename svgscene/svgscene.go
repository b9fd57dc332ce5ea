// Package svgscene parses SVG documents into a scene graph of
// named, nested groups. Each group may carry a pose transform,
// applied over the authored geometry of its subtree when the scene
// is drawn through a Driver (see svgraster and svgpdf).
package svgscene

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html/charset"
)

// PathStyle holds the state of the SVG style
type PathStyle struct {
	FillOpacity, LineOpacity float64
	LineWidth                float64
	UseNonZeroWinding        bool

	Join                    JoinOptions
	Dash                    DashOptions
	FillerColor, LinerColor Pattern // nil disables filling or stroking

	Hidden bool // display:none or visibility:hidden

	transform Matrix2D // current transform
}

// Transform returns the authored transform, from the element
// user space to the document space.
func (s PathStyle) Transform() Matrix2D { return s.transform }

// SvgPath binds a style to a path
type SvgPath struct {
	Path  Path
	Style PathStyle
	Group *Group // innermost enclosing group
}

// Bounds defines a bounding box, such as a viewport
// or a path extent.
type Bounds struct{ X, Y, W, H float64 }

// Center returns the middle of the box.
func (b Bounds) Center() (x, y float64) { return b.X + b.W/2, b.Y + b.H/2 }

// Scene holds data from parsed SVGs.
// See the `Draw` methods to use it.
type Scene struct {
	ViewBox      Bounds
	Titles       []string // Title elements collect here
	Descriptions []string // Description elements collect here
	SVGPaths     []SvgPath
	Transform    Matrix2D // output transform, see SetTarget

	Width, Height string // top level width and height attributes

	// Root is the implicit group of the <svg> element
	Root *Group

	groups  []*Group // document order, Root first
	byID    map[string]*Group
	byLabel map[string]*Group

	grads map[string]optionnalColor
	defs  map[string][]definition
}

func newScene() *Scene {
	s := &Scene{
		Transform: Identity,
		byID:      make(map[string]*Group),
		byLabel:   make(map[string]*Group),
		grads:     make(map[string]optionnalColor),
		defs:      make(map[string][]definition),
	}
	s.Root = &Group{scene: s, transform: Identity}
	s.groups = append(s.groups, s.Root)
	return s
}

// Parse reads the scene from the given io.Reader.
// This only supports a sub-set of SVG, but
// is enough to draw most illustrations. errMode determines if the parser
// ignores, errors out, or logs a warning if it does not handle an element found in the document.
// Any failure is reported as a *ParseError.
func Parse(stream io.Reader, errMode ErrorMode) (*Scene, error) {
	scene := newScene()
	cursor := &sceneCursor{
		styleStack: []PathStyle{DefaultStyle},
		groupStack: []*Group{scene.Root},
		scene:      scene,
	}
	cursor.errorMode = errMode
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	seenTag := false
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				if !seenTag {
					return nil, &ParseError{Err: errEmptyDocument}
				}
				break
			}
			return nil, &ParseError{Err: err}
		}
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			seenTag = true
			// Reads all recognized style attributes from the start element
			// and places it on top of the styleStack
			if err = cursor.pushStyle(se.Attr); err != nil {
				return nil, &ParseError{Element: se.Name.Local, Err: err}
			}
			if err = cursor.readStartElement(se); err != nil {
				return nil, &ParseError{Element: se.Name.Local, Err: err}
			}
		case xml.EndElement:
			cursor.readEndElement(se)
		case xml.CharData:
			if cursor.inTitleText {
				scene.Titles[len(scene.Titles)-1] += string(se)
			}
			if cursor.inDescText {
				scene.Descriptions[len(scene.Descriptions)-1] += string(se)
			}
		}
	}
	return scene, nil
}

// ParseFile reads the scene from the named file.
func ParseFile(path string, errMode ErrorMode) (*Scene, error) {
	fin, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return Parse(fin, errMode)
}

// Group returns the group with the given id, or, failing that,
// with the given inkscape:label.
func (s *Scene) Group(name string) (*Group, bool) {
	if g, ok := s.byID[name]; ok {
		return g, true
	}
	g, ok := s.byLabel[name]
	return g, ok
}

// Groups returns every group in document order, starting with Root.
func (s *Scene) Groups() []*Group { return s.groups }

// Require checks that every name addresses a group.
func (s *Scene) Require(names ...string) error {
	for _, name := range names {
		if _, ok := s.Group(name); !ok {
			return &ParseError{Element: "g", Err: fmt.Errorf("required group %q: %w", name, ErrGroupNotFound)}
		}
	}
	return nil
}

// SetTransform sets the pose transform of the named group.
// It is only visible at the next draw.
func (s *Scene) SetTransform(name string, m Matrix2D) error {
	g, ok := s.Group(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrGroupNotFound)
	}
	g.SetPose(m)
	return nil
}

// Clear drops every pose transform, restoring the authored scene.
func (s *Scene) Clear() {
	for _, g := range s.groups {
		g.ClearPose()
	}
}

// SetTarget sets the Transform matrix to draw within the bounds of the rectangle arguments:
// the view box origin is mapped to (x, y).
func (s *Scene) SetTarget(x, y, w, h float64) {
	scaleW := w / s.ViewBox.W
	scaleH := h / s.ViewBox.H
	s.Transform = Identity.Translate(x, y).Scale(scaleW, scaleH).Translate(-s.ViewBox.X, -s.ViewBox.Y)
}

// Group is a named (or anonymous) node of the scene graph.
type Group struct {
	ID    string
	Label string // inkscape:label, if any

	// Hidden groups are skipped when drawing.
	Hidden bool

	Parent   *Group
	Children []*Group

	scene     *Scene
	transform Matrix2D // authored transform at the group
	pose      Matrix2D
	posed     bool
}

// Name returns the id of the group, or its label for groups without id.
func (g *Group) Name() string {
	if g.ID != "" {
		return g.ID
	}
	return g.Label
}

func (g *Group) String() string {
	if n := g.Name(); n != "" {
		return n
	}
	return "<anonymous group>"
}

// Transform returns the authored transform of the group,
// from its user space to the document space.
func (g *Group) Transform() Matrix2D { return g.transform }

// SetPose sets the pose transform, expressed in document space.
// It applies to the whole subtree, except for descendants
// having their own pose, which replaces this one.
func (g *Group) SetPose(m Matrix2D) {
	g.pose, g.posed = m, true
}

// ClearPose restores the authored geometry.
func (g *Group) ClearPose() {
	g.pose, g.posed = Identity, false
}

// Pose returns the pose transform set on the group, if any.
func (g *Group) Pose() (Matrix2D, bool) { return g.pose, g.posed }

// Contains returns true if o is g or one of its descendants.
func (g *Group) Contains(o *Group) bool {
	for ; o != nil; o = o.Parent {
		if o == g {
			return true
		}
	}
	return false
}

// Walk calls fn on g and its descendants, depth first,
// skipping the subtree of nodes for which fn returns false.
func (g *Group) Walk(fn func(*Group) bool) {
	if !fn(g) {
		return
	}
	for _, child := range g.Children {
		child.Walk(fn)
	}
}

// effectivePose returns the pose applying to a path owned by g.
func (g *Group) effectivePose() Matrix2D {
	for ; g != nil; g = g.Parent {
		if g.posed {
			return g.pose
		}
	}
	return Identity
}

func (g *Group) hidden() bool {
	for ; g != nil; g = g.Parent {
		if g.Hidden {
			return true
		}
	}
	return false
}
