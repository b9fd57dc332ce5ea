package binder

import (
	"strings"
	"unicode"

	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/skeleton"
)

// normalize folds case and drops separators, so that
// "left-upper_arm" and "LeftUpperArm" match.
func normalize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '-' || r == '_' || r == '.' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// DefaultAliases maps usual part names to the bones of skeleton.HumanSchema.
// Keys are compared after normalization.
var DefaultAliases = map[string]string{
	"body":          "torso",
	"chest":         "torso",
	"trunk":         "torso",
	"face":          "head",
	"leftarm":       "leftUpperArm",
	"rightarm":      "rightUpperArm",
	"leftlowerarm":  "leftForearm",
	"rightlowerarm": "rightForearm",
	"leftupperleg":  "leftThigh",
	"rightupperleg": "rightThigh",
	"leftlowerleg":  "leftShin",
	"rightlowerleg": "rightShin",
	"leftcalf":      "leftShin",
	"rightcalf":     "rightShin",
}

// boneIndex resolves part names to bones.
type boneIndex map[string]int

func newBoneIndex(sk *skeleton.Skeleton, aliases map[string]string) boneIndex {
	index := make(boneIndex, len(sk.Bones)+len(aliases))
	for alias, bone := range aliases {
		if b, ok := sk.Bone(bone); ok {
			index[normalize(alias)] = b.ID
		}
	}
	// bone names win over aliases
	for _, b := range sk.Bones {
		index[normalize(b.Name)] = b.ID
	}
	return index
}

// resolve tries the id, then the label of the group.
func (idx boneIndex) resolve(id, label string) (int, bool) {
	for _, name := range [2]string{id, label} {
		if name == "" {
			continue
		}
		if b, ok := idx[normalize(name)]; ok {
			return b, true
		}
	}
	return 0, false
}

var jointIndex map[string]pose.JointLabel

func init() {
	jointIndex = make(map[string]pose.JointLabel, pose.NumJoints)
	for _, j := range pose.Joints() {
		jointIndex[normalize(j.String())] = j
	}
}

func resolveJoint(id, label string) (pose.JointLabel, bool) {
	for _, name := range [2]string{id, label} {
		if name == "" {
			continue
		}
		if j, ok := jointIndex[normalize(name)]; ok {
			return j, true
		}
	}
	return 0, false
}
