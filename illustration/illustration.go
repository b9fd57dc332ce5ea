// Package illustration moves the parts of a bound scene
// according to the current pose of its skeleton, and draws them
// with a static z-order.
package illustration

import (
	"github.com/benoitkugler/svgpuppet/binder"
	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gonum.org/v1/gonum/spatial/r2"
)

// ZOrder lists, from back to front, the names of the groups
// or bones to draw last. A bone stands for its parts.
// Names not found are skipped.
type ZOrder []string

// DefaultZOrder draws the right limbs behind the torso
// and the left ones in front of it.
var DefaultZOrder = ZOrder{
	"rightThigh", "rightShin", "rightUpperArm", "rightForearm",
	"torso", "head",
	"leftThigh", "leftShin", "leftUpperArm", "leftForearm",
}

// Illustration owns a scene and the skeleton bound to it.
type Illustration struct {
	Scene    *svgscene.Scene
	Skeleton *skeleton.Skeleton
	Table    *binder.Table

	// Opacity is applied to every path. It defaults to 1.
	Opacity float64

	order []*svgscene.Group
}

// New resolves the z-order of the illustration.
// A nil order means DefaultZOrder.
func New(scene *svgscene.Scene, skel *skeleton.Skeleton, table *binder.Table, order ZOrder) *Illustration {
	if order == nil {
		order = DefaultZOrder
	}
	il := &Illustration{Scene: scene, Skeleton: skel, Table: table, Opacity: 1}
	seen := map[*svgscene.Group]bool{}
	add := func(g *svgscene.Group) {
		if !seen[g] {
			seen[g] = true
			il.order = append(il.order, g)
		}
	}
	for _, name := range order {
		if g, ok := scene.Group(name); ok {
			add(g)
			continue
		}
		b, ok := skel.Bone(name)
		if !ok {
			continue
		}
		parts := table.BoneParts[b.ID]
		for _, p := range parts {
			if !nestedIn(table.Parts[p], table, parts) {
				add(table.Parts[p])
			}
		}
	}
	return il
}

// nestedIn returns true if one of the parts is a strict ancestor of g.
func nestedIn(g *svgscene.Group, table *binder.Table, parts []int) bool {
	for _, p := range parts {
		if other := table.Parts[p]; other != g && other.Contains(g) {
			return true
		}
	}
	return false
}

// Order returns the groups drawn last, from back to front.
func (il *Illustration) Order() []*svgscene.Group { return il.order }

// Update drops the previous transforms and moves every bound part
// with its bone. Unbound parts keep their authored geometry.
// The changes are visible at the next Draw.
func (il *Illustration) Update() {
	il.Scene.Clear()
	for part, bone := range il.Table.PartBone {
		if bone == binder.Unbound {
			continue
		}
		il.Table.Parts[part].SetPose(il.Skeleton.World(bone).Mult(il.Table.Offsets[part]))
	}
}

// Draw renders the scene into the driver, in z-order.
func (il *Illustration) Draw(d svgscene.Driver) {
	il.Scene.DrawOrdered(d, il.order, il.Opacity)
}

// PartPosition returns the center of the current bounding box of the part.
func (il *Illustration) PartPosition(part int) (r2.Vec, bool) {
	b, ok := il.Table.Parts[part].Bounds()
	if !ok {
		return r2.Vec{}, false
	}
	x, y := b.Center()
	return r2.Vec{X: x, Y: y}, true
}
