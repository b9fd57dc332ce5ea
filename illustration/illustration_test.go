package illustration

import (
	"os"
	"strings"
	"testing"

	"github.com/benoitkugler/svgpuppet/binder"
	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
	"gonum.org/v1/gonum/spatial/r2"
)

func loadIllustration(t *testing.T, order ZOrder, replacements ...string) *Illustration {
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
	rig, err := binder.Bind(scene, skeleton.HumanSchema, binder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return New(rig.Scene, rig.Skeleton, rig.Table, order)
}

func part(t *testing.T, il *Illustration, name string) int {
	t.Helper()
	p, ok := il.Table.Part(name)
	if !ok {
		t.Fatalf("missing part %s", name)
	}
	return p
}

func position(t *testing.T, il *Illustration, name string) r2.Vec {
	t.Helper()
	pos, ok := il.PartPosition(part(t, il, name))
	if !ok {
		t.Fatalf("empty part %s", name)
	}
	return pos
}

func near(a, b r2.Vec) bool { return r2.Norm(r2.Sub(a, b)) < 0.05 }

// bindFrame returns the bind joints, with some overrides
func bindFrame(overrides ...pose.Keypoint) pose.Frame {
	var f pose.Frame
	for _, kp := range bindKeypoints {
		f.Set(kp)
	}
	for _, kp := range overrides {
		f.Set(kp)
	}
	return f
}

// positions of the markers of testdata/puppet.svg
var bindKeypoints = []pose.Keypoint{
	{Label: pose.Nose, Position: r2.Vec{X: 100, Y: 20}, Confidence: 1},
	{Label: pose.LeftShoulder, Position: r2.Vec{X: 120, Y: 50}, Confidence: 1},
	{Label: pose.RightShoulder, Position: r2.Vec{X: 80, Y: 50}, Confidence: 1},
	{Label: pose.LeftElbow, Position: r2.Vec{X: 150, Y: 50}, Confidence: 1},
	{Label: pose.RightElbow, Position: r2.Vec{X: 50, Y: 50}, Confidence: 1},
	{Label: pose.LeftWrist, Position: r2.Vec{X: 180, Y: 50}, Confidence: 1},
	{Label: pose.RightWrist, Position: r2.Vec{X: 20, Y: 50}, Confidence: 1},
	{Label: pose.LeftHip, Position: r2.Vec{X: 110, Y: 120}, Confidence: 1},
	{Label: pose.RightHip, Position: r2.Vec{X: 90, Y: 120}, Confidence: 1},
	{Label: pose.LeftKnee, Position: r2.Vec{X: 110, Y: 160}, Confidence: 1},
	{Label: pose.RightKnee, Position: r2.Vec{X: 90, Y: 160}, Confidence: 1},
	{Label: pose.LeftAnkle, Position: r2.Vec{X: 110, Y: 200}, Confidence: 1},
	{Label: pose.RightAnkle, Position: r2.Vec{X: 90, Y: 200}, Confidence: 1},
}

func TestOrder(t *testing.T) {
	il := loadIllustration(t, nil)
	var names []string
	for _, g := range il.Order() {
		names = append(names, g.Name())
	}
	expected := "rightThigh rightShin g12 rightForearm torso head leftThigh leftShin left-upper-arm left_forearm"
	if got := strings.Join(names, " "); got != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, got)
	}

	il = loadIllustration(t, ZOrder{"head", "unknown", "left-hand", "torso", "head"})
	names = names[:0]
	for _, g := range il.Order() {
		names = append(names, g.Name())
	}
	if got := strings.Join(names, " "); got != "head left-hand torso" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestBindPoseIsIdentity(t *testing.T) {
	il := loadIllustration(t, nil)
	il.Skeleton.UpdatePose(bindFrame())
	il.Update()
	for i, g := range il.Table.Parts {
		m, posed := g.Pose()
		if !posed || !m.Equal(svgscene.Identity, 1e-6) {
			t.Errorf("part %s (%d): expected the identity, got %v", g, i, m)
		}
	}
}

func TestRootRotation(t *testing.T) {
	il := loadIllustration(t, nil)
	sk := il.Skeleton
	root := sk.Root()
	pivot := root.BindStart
	theta := 0.4

	torsoBefore := position(t, il, "torso")
	sk.SetLocal(0, skeleton.Local{Angle: root.BindAngle + theta, Scale: 1})
	il.Update()

	rotation := svgscene.Identity.Translate(pivot.X, pivot.Y).Rotate(theta).Translate(-pivot.X, -pivot.Y)
	for i, g := range il.Table.Parts {
		if il.Table.PartBone[i] == binder.Unbound {
			continue
		}
		m, _ := g.Pose()
		if !m.Equal(rotation, 1e-6) {
			t.Errorf("part %s: expected a rotation about the pivot, got %v", g, m)
		}
	}
	if got, expected := position(t, il, "torso"), r2.Rotate(torsoBefore, theta, pivot); !near(got, expected) {
		t.Errorf("expected torso at %v, got %v", expected, got)
	}
}

func TestArmFollowsFrame(t *testing.T) {
	il := loadIllustration(t, nil)
	il.Skeleton.UpdatePose(bindFrame(
		pose.Keypoint{Label: pose.LeftElbow, Position: r2.Vec{X: 120, Y: 80}, Confidence: 0.9},
		pose.Keypoint{Label: pose.LeftWrist, Position: r2.Vec{X: 120, Y: 110}, Confidence: 0.9},
	))
	il.Update()
	if got := position(t, il, "left-hand"); !near(got, r2.Vec{X: 120, Y: 112}) {
		t.Errorf("unexpected hand position %v", got)
	}
	if got := position(t, il, "leftShin"); !near(got, r2.Vec{X: 110, Y: 180}) {
		t.Errorf("the leg should not move, got %v", got)
	}
}

func TestUnboundPartsStay(t *testing.T) {
	il := loadIllustration(t, nil, `id="rightShin"`, `id="rightBoot"`)
	boot := part(t, il, "rightBoot")
	before, _ := il.PartPosition(boot)

	frames := []pose.Frame{
		bindFrame(pose.Keypoint{Label: pose.RightAnkle, Position: r2.Vec{X: 60, Y: 190}, Confidence: 1}),
		bindFrame(
			pose.Keypoint{Label: pose.LeftHip, Position: r2.Vec{X: 130, Y: 120}, Confidence: 1},
			pose.Keypoint{Label: pose.RightKnee, Position: r2.Vec{X: 40, Y: 150}, Confidence: 1},
		),
	}
	for i, f := range frames {
		il.Skeleton.UpdatePose(f)
		il.Update()
		if _, posed := il.Table.Parts[boot].Pose(); posed {
			t.Errorf("frame %d: unbound part should not be posed", i)
		}
		if got, _ := il.PartPosition(boot); got != before {
			t.Errorf("frame %d: unbound part moved from %v to %v", i, before, got)
		}
	}
}

// counter counts the filled paths
type counter struct{ n int }

func (c *counter) SetupDrawers(willFill, willStroke bool) (svgscene.Filler, svgscene.Stroker) {
	if willFill {
		c.n++
	}
	return nil, nil
}

func TestDrawSkipsSkeleton(t *testing.T) {
	il := loadIllustration(t, nil)
	var c counter
	il.Draw(&c)
	// background, torso, 8 limbs, head, hand
	if c.n != 12 {
		t.Errorf("expected 12 filled paths, got %d", c.n)
	}
}
