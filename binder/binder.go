// Package binder builds a skeleton from the joint markers drawn
// in an illustration, and attaches the named groups of the illustration
// to its bones.
//
// The joints are the named children of the skeleton group
// (by default, the group with id "skeleton"): each one is named after
// a PoseNet part, such as "leftShoulder", and its position is the center
// of its bounding box. The skeleton group is hidden once read.
//
// Every other named group is a part. It is bound to the bone
// sharing its name (after normalization, see DefaultAliases), or else
// to the bone of its closest bound ancestor. Remaining parts are unbound:
// they are drawn at their authored position.
package binder

import (
	"fmt"

	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultSkeletonGroup is the id of the group holding the joints.
const DefaultSkeletonGroup = "skeleton"

// Unbound is the bone index of parts without bone.
const Unbound = -1

// BindingError is returned when the illustration can't support a skeleton.
type BindingError struct {
	Reason string
	Err    error
}

func (e *BindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("binding: %s: %s", e.Reason, e.Err)
	}
	return "binding: " + e.Reason
}

func (e *BindingError) Unwrap() error { return e.Err }

// Options tunes Bind. The zero value is valid.
type Options struct {
	// SkeletonGroup defaults to DefaultSkeletonGroup
	SkeletonGroup string
	// Limits defaults to skeleton.DefaultLimits
	Limits *skeleton.Limits
	// Aliases defaults to DefaultAliases
	Aliases map[string]string
}

// Table binds the parts of the illustration to the bones.
// It is not modified after Bind.
type Table struct {
	Parts    []*svgscene.Group
	PartBone []int // bone index, or Unbound, by part index
	// Offsets is, for each part, the inverse of the bind transform
	// of its bone (the identity for unbound parts).
	Offsets   []svgscene.Matrix2D
	BoneParts [][]int // part indexes, by bone index

	byGroup map[*svgscene.Group]int
}

// Part returns the index of the part with the given group name.
func (t *Table) Part(name string) (int, bool) {
	for i, g := range t.Parts {
		if g.ID == name || g.Label == name {
			return i, true
		}
	}
	return 0, false
}

// PartOf returns the index of the given group.
func (t *Table) PartOf(g *svgscene.Group) (int, bool) {
	i, ok := t.byGroup[g]
	return i, ok
}

// Unbound returns the parts without bone.
func (t *Table) Unbound() []*svgscene.Group {
	var out []*svgscene.Group
	for i, b := range t.PartBone {
		if b == Unbound {
			out = append(out, t.Parts[i])
		}
	}
	return out
}

// Complete returns true if every part is bound.
func (t *Table) Complete() bool {
	for _, b := range t.PartBone {
		if b == Unbound {
			return false
		}
	}
	return true
}

// Rig is a skeleton bound to the scene it was read from.
type Rig struct {
	Scene         *svgscene.Scene
	SkeletonGroup *svgscene.Group
	Skeleton      *skeleton.Skeleton
	Table         *Table
}

// Bind reads the joints of the scene, builds the skeleton
// of the schema and binds the parts.
// It returns a *BindingError if the skeleton group is missing
// or if the joints of the root bone can't be found.
func Bind(scene *svgscene.Scene, schema skeleton.Schema, opts Options) (*Rig, error) {
	if opts.SkeletonGroup == "" {
		opts.SkeletonGroup = DefaultSkeletonGroup
	}
	limits := skeleton.DefaultLimits()
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	if opts.Aliases == nil {
		opts.Aliases = DefaultAliases
	}

	if err := scene.Require(opts.SkeletonGroup); err != nil {
		return nil, &BindingError{Reason: "missing skeleton group", Err: err}
	}
	skelGroup, _ := scene.Group(opts.SkeletonGroup)
	// read the bind pose on the authored geometry
	scene.Clear()

	joints := readJoints(skelGroup)
	sk, err := skeleton.New(schema, joints, limits)
	if err != nil {
		return nil, &BindingError{Reason: fmt.Sprintf("skeleton %q", opts.SkeletonGroup), Err: err}
	}
	skelGroup.Hidden = true

	index := newBoneIndex(sk, opts.Aliases)
	table := &Table{
		BoneParts: make([][]int, len(sk.Bones)),
		byGroup:   make(map[*svgscene.Group]int),
	}
	// bone of the closest bound ancestor
	inherited := map[*svgscene.Group]int{}
	scene.Root.Walk(func(g *svgscene.Group) bool {
		if g == skelGroup {
			return false
		}
		bone, ok := index.resolve(g.ID, g.Label)
		if !ok {
			bone = Unbound
			if g.Parent != nil {
				if b, has := inherited[g.Parent]; has {
					bone = b
				}
			}
		}
		if bone != Unbound {
			inherited[g] = bone
		}
		if g == scene.Root || g.Name() == "" {
			return true
		}

		part := len(table.Parts)
		table.Parts = append(table.Parts, g)
		table.PartBone = append(table.PartBone, bone)
		table.byGroup[g] = part
		if bone == Unbound {
			table.Offsets = append(table.Offsets, svgscene.Identity)
		} else {
			table.Offsets = append(table.Offsets, sk.BindOffset(bone))
			table.BoneParts[bone] = append(table.BoneParts[bone], part)
		}
		return true
	})

	return &Rig{Scene: scene, SkeletonGroup: skelGroup, Skeleton: sk, Table: table}, nil
}

// readJoints returns the center of the joints found under g.
// The first marker of a joint wins.
func readJoints(g *svgscene.Group) skeleton.BindJoints {
	joints := skeleton.BindJoints{}
	g.Walk(func(child *svgscene.Group) bool {
		if child == g {
			return true
		}
		label, ok := resolveJoint(child.ID, child.Label)
		if !ok {
			return true
		}
		if _, seen := joints[label]; seen {
			return false
		}
		bounds, ok := child.Bounds()
		if !ok {
			return true
		}
		x, y := bounds.Center()
		joints[label] = r2.Vec{X: x, Y: y}
		return false
	})
	return joints
}
