package skeleton

import (
	"errors"
	"fmt"

	"github.com/benoitkugler/svgpuppet/pose"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrSchema is returned for an ill-formed bone hierarchy.
var ErrSchema = errors.New("invalid skeleton schema")

// JointRef designates a point of the body: the mean of one
// or more joints (such as the middle of the hips).
type JointRef []pose.JointLabel

func (j JointRef) String() string {
	switch len(j) {
	case 0:
		return "<empty>"
	case 1:
		return j[0].String()
	}
	out := "mid("
	for i, l := range j {
		if i > 0 {
			out += ","
		}
		out += l.String()
	}
	return out + ")"
}

// resolve returns the mean position and the smallest confidence
// of the referenced joints. It returns false if one is missing
// or has an invalid confidence.
func (j JointRef) resolve(frame *pose.Frame) (pos r2.Vec, conf float64, ok bool) {
	if len(j) == 0 {
		return r2.Vec{}, 0, false
	}
	conf = 1
	for _, label := range j {
		kp, ok := frame.Get(label)
		if !ok {
			return r2.Vec{}, 0, false
		}
		pos = r2.Add(pos, kp.Position)
		if !(kp.Confidence >= 0) { // NaN or negative
			return r2.Vec{}, 0, false
		}
		if kp.Confidence < conf {
			conf = kp.Confidence
		}
	}
	return r2.Scale(1/float64(len(j)), pos), conf, true
}

// BindJoints are the joint positions of the bind pose,
// in document space.
type BindJoints map[pose.JointLabel]r2.Vec

func (b BindJoints) resolve(j JointRef) (r2.Vec, bool) {
	if len(j) == 0 {
		return r2.Vec{}, false
	}
	var pos r2.Vec
	for _, label := range j {
		p, ok := b[label]
		if !ok {
			return r2.Vec{}, false
		}
		pos = r2.Add(pos, p)
	}
	return r2.Scale(1/float64(len(j)), pos), true
}

// Frame returns a frame holding the bind joints, with full confidence.
func (b BindJoints) Frame() pose.Frame {
	var f pose.Frame
	for label, pos := range b {
		f.Set(pose.Keypoint{Label: label, Position: pos, Confidence: 1})
	}
	return f
}

// BoneDef declares a bone going from Start to End.
// Parent is empty for the root.
type BoneDef struct {
	Name   string
	Parent string
	Start  JointRef
	End    JointRef
}

// Schema is a bone hierarchy, parents first.
type Schema []BoneDef

var (
	midHips      = JointRef{pose.LeftHip, pose.RightHip}
	midShoulders = JointRef{pose.LeftShoulder, pose.RightShoulder}
)

// HumanSchema is the default hierarchy, rooted at the torso.
var HumanSchema = Schema{
	{Name: "torso", Start: midHips, End: midShoulders},
	{Name: "head", Parent: "torso", Start: midShoulders, End: JointRef{pose.Nose}},
	{Name: "leftUpperArm", Parent: "torso", Start: JointRef{pose.LeftShoulder}, End: JointRef{pose.LeftElbow}},
	{Name: "leftForearm", Parent: "leftUpperArm", Start: JointRef{pose.LeftElbow}, End: JointRef{pose.LeftWrist}},
	{Name: "rightUpperArm", Parent: "torso", Start: JointRef{pose.RightShoulder}, End: JointRef{pose.RightElbow}},
	{Name: "rightForearm", Parent: "rightUpperArm", Start: JointRef{pose.RightElbow}, End: JointRef{pose.RightWrist}},
	{Name: "leftThigh", Parent: "torso", Start: JointRef{pose.LeftHip}, End: JointRef{pose.LeftKnee}},
	{Name: "leftShin", Parent: "leftThigh", Start: JointRef{pose.LeftKnee}, End: JointRef{pose.LeftAnkle}},
	{Name: "rightThigh", Parent: "torso", Start: JointRef{pose.RightHip}, End: JointRef{pose.RightKnee}},
	{Name: "rightShin", Parent: "rightThigh", Start: JointRef{pose.RightKnee}, End: JointRef{pose.RightAnkle}},
}

// Validate checks that names are unique, that each parent is declared
// before its children and that the first bone is the only root.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no bones", ErrSchema)
	}
	seen := make(map[string]bool, len(s))
	for i, def := range s {
		if def.Name == "" {
			return fmt.Errorf("%w: bone %d has no name", ErrSchema, i)
		}
		if seen[def.Name] {
			return fmt.Errorf("%w: duplicate bone %q", ErrSchema, def.Name)
		}
		if len(def.Start) == 0 || len(def.End) == 0 {
			return fmt.Errorf("%w: bone %q has no joints", ErrSchema, def.Name)
		}
		switch {
		case i == 0 && def.Parent != "":
			return fmt.Errorf("%w: root %q has a parent", ErrSchema, def.Name)
		case i > 0 && def.Parent == "":
			return fmt.Errorf("%w: second root %q", ErrSchema, def.Name)
		case i > 0 && !seen[def.Parent]:
			return fmt.Errorf("%w: parent %q of %q is not declared before it", ErrSchema, def.Parent, def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}

// Joints returns the joints used by the schema, without duplicates.
func (s Schema) Joints() []pose.JointLabel {
	var (
		out  []pose.JointLabel
		seen [pose.NumJoints]bool
	)
	for _, def := range s {
		for _, ref := range [2]JointRef{def.Start, def.End} {
			for _, label := range ref {
				if !seen[label] {
					seen[label] = true
					out = append(out, label)
				}
			}
		}
	}
	return out
}
