package binder

import (
	"errors"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gonum.org/v1/gonum/spatial/r2"
)

func loadPuppet(t *testing.T, replacements ...string) *svgscene.Scene {
	t.Helper()
	b, err := os.ReadFile("../testdata/puppet.svg")
	if err != nil {
		t.Fatal(err)
	}
	src := strings.NewReplacer(replacements...).Replace(string(b))
	scene, err := svgscene.Parse(strings.NewReader(src), svgscene.StrictErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	return scene
}

func TestNormalize(t *testing.T) {
	for _, test := range []struct{ in, out string }{
		{"LeftUpperArm", "leftupperarm"},
		{"left-upper_arm", "leftupperarm"},
		{"Left Upper.Arm", "leftupperarm"},
		{"", ""},
	} {
		if got := normalize(test.in); got != test.out {
			t.Errorf("%q: expected %q, got %q", test.in, test.out, got)
		}
	}
	if j, ok := resolveJoint("g5", "Left_Knee"); !ok || j.String() != "leftKnee" {
		t.Errorf("unexpected joint %s", j)
	}
}

func TestBindComplete(t *testing.T) {
	scene := loadPuppet(t)
	rig, err := Bind(scene, skeleton.HumanSchema, Options{})
	if err != nil {
		t.Fatal(err)
	}
	sk, table := rig.Skeleton, rig.Table

	if len(sk.Bones) != len(skeleton.HumanSchema) {
		t.Fatalf("expected %d bones, got %d", len(skeleton.HumanSchema), len(sk.Bones))
	}
	if !rig.SkeletonGroup.Hidden {
		t.Error("the skeleton should be hidden")
	}
	if len(table.Parts) != 11 {
		t.Errorf("expected 11 parts, got %d: %v", len(table.Parts), table.Parts)
	}
	if !table.Complete() || len(table.Unbound()) != 0 {
		t.Errorf("unexpected unbound parts %v", table.Unbound())
	}
	for _, test := range []struct{ part, bone string }{
		{"torso", "torso"},
		{"left-upper-arm", "leftUpperArm"},
		{"left_forearm", "leftForearm"},
		{"left-hand", "leftForearm"},       // inherited
		{"RightUpperArm", "rightUpperArm"}, // by label
		{"rightShin", "rightShin"},
	} {
		part, ok := table.Part(test.part)
		if !ok {
			t.Fatalf("missing part %s", test.part)
		}
		bone := table.PartBone[part]
		if bone == Unbound || sk.Bones[bone].Name != test.bone {
			t.Errorf("part %s: expected bone %s, got %d", test.part, test.bone, bone)
		}
		found := false
		for _, p := range table.BoneParts[bone] {
			found = found || p == part
		}
		if !found {
			t.Errorf("part %s is missing from its bone list", test.part)
		}
		if !table.Offsets[part].Equal(sk.BindOffset(bone), 1e-12) {
			t.Errorf("part %s: unexpected offset", test.part)
		}
	}

	// joints are read from the markers
	torso := sk.Root()
	if r2.Norm(r2.Sub(torso.BindStart, r2.Vec{X: 100, Y: 120})) > 0.05 {
		t.Errorf("unexpected torso start %v", torso.BindStart)
	}
	shin, _ := sk.Bone("leftShin")
	if r2.Norm(r2.Sub(shin.BindStart, r2.Vec{X: 110, Y: 160})) > 0.05 || math.Abs(shin.BindLength-40) > 0.05 {
		t.Errorf("unexpected shin %v", shin)
	}
}

func TestBindPartial(t *testing.T) {
	scene := loadPuppet(t, `id="rightShin"`, `id="rightBoot"`, `<title>`, `<g id="hat"><rect width="1" height="1"/></g><title>`)
	rig, err := Bind(scene, skeleton.HumanSchema, Options{})
	if err != nil {
		t.Fatal(err)
	}
	table := rig.Table
	if table.Complete() {
		t.Fatal("expected unbound parts")
	}
	var names []string
	for _, g := range table.Unbound() {
		names = append(names, g.Name())
	}
	if strings.Join(names, " ") != "hat rightBoot" {
		t.Errorf("unexpected unbound parts %v", names)
	}
	// bones come from the joints, not from the parts
	if len(rig.Skeleton.Bones) != len(skeleton.HumanSchema) {
		t.Errorf("unexpected bones %d", len(rig.Skeleton.Bones))
	}
	shin, _ := rig.Skeleton.Bone("rightShin")
	if len(table.BoneParts[shin.ID]) != 0 {
		t.Error("expected no part for the right shin")
	}
}

func TestBindAliases(t *testing.T) {
	scene := loadPuppet(t, `id="torso"`, `id="Body"`, `id="leftShin"`, `id="calf"`)
	rig, err := Bind(scene, skeleton.HumanSchema, Options{Aliases: map[string]string{"calf": "leftShin"}})
	if err != nil {
		t.Fatal(err)
	}
	// custom aliases replace the default ones
	if unbound := rig.Table.Unbound(); len(unbound) != 1 || unbound[0].ID != "Body" {
		t.Errorf("unexpected unbound parts %v", unbound)
	}
	calf, _ := rig.Table.Part("calf")
	if b := rig.Table.PartBone[calf]; rig.Skeleton.Bones[b].Name != "leftShin" {
		t.Errorf("unexpected bone %d", b)
	}
}

func TestBindErrors(t *testing.T) {
	scene := loadPuppet(t, `id="skeleton"`, `id="bones"`)
	_, err := Bind(scene, skeleton.HumanSchema, Options{})
	var (
		berr *BindingError
		perr *svgscene.ParseError
	)
	if !errors.As(err, &berr) || !errors.As(err, &perr) || !errors.Is(err, svgscene.ErrGroupNotFound) {
		t.Errorf("unexpected error %v", err)
	}

	// custom group name
	if _, err = Bind(scene, skeleton.HumanSchema, Options{SkeletonGroup: "bones"}); err != nil {
		t.Error(err)
	}

	scene = loadPuppet(t, `id="leftHip"`, `id="leftHop"`)
	_, err = Bind(scene, skeleton.HumanSchema, Options{})
	if !errors.As(err, &berr) || !errors.Is(err, skeleton.ErrRootUnresolved) {
		t.Errorf("unexpected error %v", err)
	}

	_, err = Bind(scene, skeleton.Schema{}, Options{})
	if !errors.Is(err, skeleton.ErrSchema) {
		t.Errorf("unexpected error %v", err)
	}
}
