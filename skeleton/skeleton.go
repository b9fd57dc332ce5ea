// Package skeleton implements a 2-D bone hierarchy driven by
// keypoint frames, and the deformation it applies to the artwork
// bound to each bone.
package skeleton

import (
	"errors"
	"fmt"
	"math"

	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrRootUnresolved is returned when the bind pose does not define the root bone.
var ErrRootUnresolved = errors.New("root bone unresolved")

// bones shorter than this are ignored
const minBindLength = 1e-6

// Limits tunes the pose update.
type Limits struct {
	// Joints below this confidence are ignored.
	MinConfidence float64 `yaml:"min_confidence"`
	// Bounds for the length scale of the bones.
	MinScale float64 `yaml:"min_scale"`
	MaxScale float64 `yaml:"max_scale"`
	// If true, the root pivot follows the observed joints,
	// otherwise it stays at its bind position.
	TrackRoot bool `yaml:"track_root"`
}

// DefaultLimits returns the default settings.
func DefaultLimits() Limits {
	return Limits{MinConfidence: 0.1, MinScale: 0.2, MaxScale: 3}
}

func (l Limits) clampScale(s float64) float64 {
	if l.MinScale > 0 && s < l.MinScale {
		return l.MinScale
	}
	if l.MaxScale > 0 && s > l.MaxScale {
		return l.MaxScale
	}
	return s
}

// Bone is a segment of the bind pose.
type Bone struct {
	ID     int // index in the skeleton
	Name   string
	Parent int // -1 for the root

	BindStart, BindEnd r2.Vec
	BindAngle          float64 // world angle, in radians
	BindLength         float64

	start, end JointRef
	bindFrame  svgscene.Matrix2D // inverse of the bind transform
}

// Local is the current pose of a bone: its angle relative to
// the current world angle of its parent, and its length scale.
type Local struct {
	Angle float64
	Scale float64
}

// State of the skeleton
type State uint8

const (
	// Bound means that no frame has been applied since the bind pose.
	Bound State = iota
	// Posed means that at least one pose has been applied.
	Posed
)

func (s State) String() string {
	switch s {
	case Bound:
		return "Bound"
	case Posed:
		return "Posed"
	default:
		return "<unknown State>"
	}
}

// Skeleton is a tree of bones, with the root first and each
// parent before its children.
type Skeleton struct {
	Bones []Bone

	limits  Limits
	bind    []Local
	current []Local
	pivot   r2.Vec // current start of the root
	state   State

	// derived from current, see compute
	dirty       bool
	worldAngles []float64
	starts      []r2.Vec
	frames      []svgscene.Matrix2D
	deforms     []svgscene.Matrix2D
}

// New builds the bind pose of the schema from the given joints.
// Bones with missing joints or without parent are dropped.
func New(schema Schema, bind BindJoints, limits Limits) (*Skeleton, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	sk := &Skeleton{limits: limits}
	index := make(map[string]int, len(schema))
	for i, def := range schema {
		parent := -1
		if i > 0 {
			p, ok := index[def.Parent]
			if !ok { // dropped
				continue
			}
			parent = p
		}
		start, okS := bind.resolve(def.Start)
		end, okE := bind.resolve(def.End)
		v := r2.Sub(end, start)
		if !okS || !okE || r2.Norm(v) < minBindLength {
			if i == 0 {
				return nil, fmt.Errorf("bone %q: %w", def.Name, ErrRootUnresolved)
			}
			continue
		}
		b := Bone{
			ID:         len(sk.Bones),
			Name:       def.Name,
			Parent:     parent,
			BindStart:  start,
			BindEnd:    end,
			BindAngle:  math.Atan2(v.Y, v.X),
			BindLength: r2.Norm(v),
			start:      def.Start,
			end:        def.End,
		}
		b.bindFrame = boneFrame(start, b.BindAngle, 1).Invert()
		index[def.Name] = b.ID
		sk.Bones = append(sk.Bones, b)
	}

	sk.bind = make([]Local, len(sk.Bones))
	for i, b := range sk.Bones {
		angle := b.BindAngle
		if b.Parent >= 0 {
			angle = normalizeAngle(angle - sk.Bones[b.Parent].BindAngle)
		}
		sk.bind[i] = Local{Angle: angle, Scale: 1}
	}
	sk.current = make([]Local, len(sk.Bones))
	sk.worldAngles = make([]float64, len(sk.Bones))
	sk.starts = make([]r2.Vec, len(sk.Bones))
	sk.frames = make([]svgscene.Matrix2D, len(sk.Bones))
	sk.deforms = make([]svgscene.Matrix2D, len(sk.Bones))
	sk.Reset()
	return sk, nil
}

// boneFrame returns T(start).R(angle).S(scale, 1)
func boneFrame(start r2.Vec, angle, scale float64) svgscene.Matrix2D {
	return svgscene.Identity.Translate(start.X, start.Y).Rotate(angle).Scale(scale, 1)
}

// normalizeAngle maps a to (-pi, pi]
func normalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Root returns the root bone.
func (sk *Skeleton) Root() *Bone { return &sk.Bones[0] }

// Bone returns the bone with the given name.
func (sk *Skeleton) Bone(name string) (*Bone, bool) {
	for i := range sk.Bones {
		if sk.Bones[i].Name == name {
			return &sk.Bones[i], true
		}
	}
	return nil, false
}

// Limits returns the settings used by UpdatePose.
func (sk *Skeleton) Limits() Limits { return sk.limits }

// State returns Posed if a pose has been applied since the last Reset.
func (sk *Skeleton) State() State { return sk.state }

// Reset restores the bind pose.
func (sk *Skeleton) Reset() {
	copy(sk.current, sk.bind)
	sk.pivot = sk.Bones[0].BindStart
	sk.state = Bound
	sk.dirty = true
}

// Local returns the current pose of the bone i.
func (sk *Skeleton) Local(i int) Local { return sk.current[i] }

// SetLocal directly poses the bone i. The scale is clamped.
func (sk *Skeleton) SetLocal(i int, l Local) {
	l.Angle = normalizeAngle(l.Angle)
	l.Scale = sk.limits.clampScale(l.Scale)
	sk.current[i] = l
	sk.state = Posed
	sk.dirty = true
}

// SetPivot moves the start of the root bone.
func (sk *Skeleton) SetPivot(p r2.Vec) {
	sk.pivot = p
	sk.state = Posed
	sk.dirty = true
}

// Report sums up a pose update.
type Report struct {
	Updated []int // bones following the frame
	Frozen  []int // bones keeping their previous pose
	Clamped []int // updated bones whose scale was clamped
}

// Degraded returns true if some bones were frozen.
func (r Report) Degraded() bool { return len(r.Frozen) != 0 }

func (r Report) String() string {
	return fmt.Sprintf("%d updated, %d frozen, %d clamped", len(r.Updated), len(r.Frozen), len(r.Clamped))
}

// UpdatePose applies the frame, from parents to children.
// A bone is updated only when both its joints are observed with
// enough confidence: otherwise it keeps its previous pose.
// Missing joints are never an error.
func (sk *Skeleton) UpdatePose(frame pose.Frame) Report {
	var rep Report
	lim := sk.limits
	// world angles of the bones, as updated by this frame
	world := make([]float64, len(sk.Bones))
	for i, b := range sk.Bones {
		parentAngle := 0.
		if b.Parent >= 0 {
			parentAngle = world[b.Parent]
		}

		start, confS, okS := b.start.resolve(&frame)
		end, confE, okE := b.end.resolve(&frame)
		v := r2.Sub(end, start)
		if !okS || !okE || confS < lim.MinConfidence || confE < lim.MinConfidence || r2.Norm(v) < minBindLength {
			world[i] = parentAngle + sk.current[i].Angle
			rep.Frozen = append(rep.Frozen, i)
			continue
		}

		angle := math.Atan2(v.Y, v.X)
		scale := r2.Norm(v) / b.BindLength
		clamped := lim.clampScale(scale)
		if clamped != scale {
			rep.Clamped = append(rep.Clamped, i)
		}
		sk.current[i] = Local{Angle: normalizeAngle(angle - parentAngle), Scale: clamped}
		world[i] = parentAngle + sk.current[i].Angle
		rep.Updated = append(rep.Updated, i)

		if i == 0 && lim.TrackRoot {
			sk.pivot = start
		}
	}
	sk.state = Posed
	sk.dirty = true
	return rep
}

// compute updates the world transforms, root first.
func (sk *Skeleton) compute() {
	if !sk.dirty {
		return
	}
	for i, b := range sk.Bones {
		l := sk.current[i]
		if b.Parent < 0 {
			sk.worldAngles[i] = l.Angle
			sk.starts[i] = sk.pivot
		} else {
			sk.worldAngles[i] = sk.worldAngles[b.Parent] + l.Angle
			x, y := sk.deforms[b.Parent].Transform(b.BindStart.X, b.BindStart.Y)
			sk.starts[i] = r2.Vec{X: x, Y: y}
		}
		sk.frames[i] = boneFrame(sk.starts[i], sk.worldAngles[i], l.Scale)
		sk.deforms[i] = sk.frames[i].Mult(b.bindFrame)
	}
	sk.dirty = false
}

// WorldAngle returns the current angle of the bone i in document space,
// in (-pi, pi].
func (sk *Skeleton) WorldAngle(i int) float64 {
	sk.compute()
	return normalizeAngle(sk.worldAngles[i])
}

// WorldStart returns the current start of the bone i.
func (sk *Skeleton) WorldStart(i int) r2.Vec {
	sk.compute()
	return sk.starts[i]
}

// WorldEnd returns the current end of the bone i.
func (sk *Skeleton) WorldEnd(i int) r2.Vec {
	sk.compute()
	x, y := sk.frames[i].Transform(sk.Bones[i].BindLength, 0)
	return r2.Vec{X: x, Y: y}
}

// World returns the current transform of the bone i,
// from the bone space (origin at its start, x along the bone,
// one unit per bind unit) to the document space.
func (sk *Skeleton) World(i int) svgscene.Matrix2D {
	sk.compute()
	return sk.frames[i]
}

// BindOffset returns the inverse of the bind transform of the bone i.
func (sk *Skeleton) BindOffset(i int) svgscene.Matrix2D { return sk.Bones[i].bindFrame }

// Deformation returns the transform moving the bind geometry
// of the bone i to its current pose, in document space.
func (sk *Skeleton) Deformation(i int) svgscene.Matrix2D {
	sk.compute()
	return sk.deforms[i]
}

// Deformations returns the deformation of every bone.
// The returned slice must not be modified.
func (sk *Skeleton) Deformations() []svgscene.Matrix2D {
	sk.compute()
	return sk.deforms
}
