package puppet

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/benoitkugler/svgpuppet/binder"
	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/svgscene"
)

const puppetFile = "../testdata/puppet.svg"

func testConfig(buf *bytes.Buffer) Config {
	cfg := DefaultConfig()
	cfg.ErrorMode = "strict"
	cfg.Logger = log.New(buf, "", 0)
	return cfg
}

func loadFrames(t *testing.T) [][]pose.Pose {
	t.Helper()
	f, err := os.Open("../testdata/poses.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	frames, err := pose.DecodeFrames(f)
	if err != nil {
		t.Fatal(err)
	}
	return frames
}

func TestParseSource(t *testing.T) {
	if _, ok := ParseSource("  <svg/>").(InlineSource); !ok {
		t.Error("expected an inline source")
	}
	if s, ok := ParseSource("https://example.com/a.svg").(URLSource); !ok || s.URL != "https://example.com/a.svg" {
		t.Error("expected an URL source")
	}
	if s, ok := ParseSource("dir/a.svg").(FileSource); !ok || s.String() != "dir/a.svg" {
		t.Error("expected a file source")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), os.ModePerm); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cfg, err := LoadConfig(write("empty.yaml", ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 513 || cfg.Limits.MinConfidence != 0.1 || cfg.SkeletonGroup != binder.DefaultSkeletonGroup {
		t.Errorf("expected the defaults, got %+v", cfg)
	}

	cfg, err = LoadConfig(write("full.yaml", `
error_mode: strict
skeleton_group: bones
smoothing: 0.5
z_order: [torso, head]
aliases:
  calf: leftShin
limits:
  min_confidence: 0.3
  max_scale: 2
  track_root: true
canvas:
  width: 300
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ErrorMode != "strict" || cfg.SkeletonGroup != "bones" || cfg.Smoothing != 0.5 ||
		len(cfg.ZOrder) != 2 || cfg.Aliases["calf"] != "leftShin" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if l := cfg.Limits; l.MinConfidence != 0.3 || l.MaxScale != 2 || !l.TrackRoot || l.MinScale != 0.2 {
		t.Errorf("unexpected limits %+v", l)
	}
	if cfg.Canvas.Width != 300 || cfg.Canvas.Height != 513 {
		t.Errorf("unexpected canvas %+v", cfg.Canvas)
	}

	for _, content := range []string{"smoothing: 1", "error_mode: loud", "limits: {min_scale: 2, max_scale: 1}", "canvas: ["} {
		if _, err = LoadConfig(write("bad.yaml", content)); err == nil {
			t.Errorf("%q: expected an error", content)
		}
	}
	if _, err = LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error")
	}
}

func TestLoad(t *testing.T) {
	var logs bytes.Buffer
	p, err := Load(context.Background(), FileSource(puppetFile), testConfig(&logs))
	if err != nil {
		t.Fatal(err)
	}
	if p.Source != puppetFile || len(p.Skeleton().Bones) != 10 {
		t.Errorf("unexpected puppet %v", p)
	}
	// fitted into the 513x513 canvas
	if m := p.Scene().Transform; math.Abs(m.A-513./200) > 1e-9 || math.Abs(m.D-513./220) > 1e-9 {
		t.Errorf("unexpected output transform %v", m)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected logs %s", logs.String())
	}

	// partial illustrations load, with a warning
	b, _ := os.ReadFile(puppetFile)
	src := strings.Replace(string(b), `id="rightShin"`, `id="rightBoot"`, 1)
	if _, err = Load(context.Background(), InlineSource(src), testConfig(&logs)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "rightBoot") {
		t.Errorf("expected a warning, got %q", logs.String())
	}

	_, err = Load(context.Background(), InlineSource(`<svg><g id="a"/></svg>`), testConfig(&logs))
	var berr *binder.BindingError
	if !errors.As(err, &berr) {
		t.Errorf("expected a binding error, got %v", err)
	}
	_, err = Load(context.Background(), InlineSource(`<svg><g></svg>`), testConfig(&logs))
	var perr *svgscene.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("expected a parse error, got %v", err)
	}
	if _, err = Load(context.Background(), FileSource("missing.svg"), testConfig(&logs)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unexpected error %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err = Load(ctx, FileSource(puppetFile), testConfig(&logs)); !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestURLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/puppet.svg" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, puppetFile)
	}))
	defer server.Close()

	var logs bytes.Buffer
	src := ParseSource(server.URL + "/puppet.svg")
	if _, err := Load(context.Background(), src, testConfig(&logs)); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(context.Background(), URLSource{URL: server.URL + "/nope.svg", Client: server.Client()}, testConfig(&logs)); err == nil {
		t.Error("expected an error")
	}
}

func TestApply(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(&logs)
	cfg.Debug = true
	p, err := Load(context.Background(), FileSource(puppetFile), cfg)
	if err != nil {
		t.Fatal(err)
	}
	frames := loadFrames(t)
	arm, _ := p.Skeleton().Bone("leftUpperArm")

	if _, ok := p.Apply(frames[1]); !ok {
		t.Fatal("expected a frame")
	}
	if got := p.Skeleton().WorldAngle(arm.ID); math.Abs(got-math.Pi/2) > 1e-6 {
		t.Errorf("expected the arm down, got %f", got)
	}
	// no pose: hold the last one
	if _, ok := p.Apply(frames[3]); ok {
		t.Error("empty frame should be skipped")
	}
	if got := p.Skeleton().WorldAngle(arm.ID); math.Abs(got-math.Pi/2) > 1e-6 {
		t.Errorf("expected the last pose to be held, got %f", got)
	}

	// an elbow below the threshold freezes the arm
	low := []pose.Pose{{Score: 1, Keypoints: []pose.Keypoint{
		{Label: pose.LeftShoulder, Position: arm.BindStart, Confidence: 0.99},
		{Label: pose.LeftElbow, Position: arm.BindEnd, Confidence: 0.01},
	}}}
	rep, _ := p.Apply(low)
	if !rep.Degraded() || !strings.Contains(logs.String(), "degraded") {
		t.Errorf("expected a degraded frame, got %s (%q)", rep, logs.String())
	}
	if got := p.Skeleton().WorldAngle(arm.ID); math.Abs(got-math.Pi/2) > 1e-6 {
		t.Errorf("expected a frozen arm, got %f", got)
	}

	p.Reset()
	if math.Abs(p.Skeleton().WorldAngle(arm.ID)) > 1e-9 {
		t.Error("Reset should restore the bind pose")
	}
}

func TestResetEachFrame(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(&logs)
	cfg.ResetEachFrame = true
	p, err := Load(context.Background(), FileSource(puppetFile), cfg)
	if err != nil {
		t.Fatal(err)
	}
	frames := loadFrames(t)
	arm, _ := p.Skeleton().Bone("leftUpperArm")

	p.Apply(frames[1])
	// only the torso is seen: the arm goes back to rest
	p.Apply([]pose.Pose{{Score: 1, Keypoints: []pose.Keypoint{
		{Label: pose.LeftShoulder, Position: arm.BindStart, Confidence: 1},
	}}})
	if got := p.Skeleton().WorldAngle(arm.ID); math.Abs(got) > 1e-6 {
		t.Errorf("expected the bind pose, got %f", got)
	}
}

func TestStage(t *testing.T) {
	var logs bytes.Buffer
	stage := NewStage(testConfig(&logs))
	frames := loadFrames(t)

	if out, _ := stage.Frame(frames[0]); out != Empty {
		t.Errorf("expected %s, got %s", Empty, out)
	}
	if stage.Draw(nil) {
		t.Error("nothing to draw")
	}

	if err := stage.Load(context.Background(), FileSource(puppetFile)); err != nil {
		t.Fatal(err)
	}
	first := stage.Puppet()
	if out, _ := stage.Frame(frames[1]); out != Applied {
		t.Errorf("expected %s, got %s", Applied, out)
	}
	if out, _ := stage.Frame(frames[3]); out != Skipped {
		t.Errorf("expected %s, got %s", Skipped, out)
	}

	// a failed load keeps the active puppet
	if err := stage.Load(context.Background(), InlineSource("<svg></svg>")); err == nil {
		t.Fatal("expected an error")
	}
	if stage.Puppet() != first {
		t.Error("the previous puppet should stay active")
	}
	if !strings.Contains(logs.String(), "keeping the previous puppet") {
		t.Errorf("expected a log, got %q", logs.String())
	}

	stage.loading.Store(true)
	if out, _ := stage.Frame(frames[1]); out != Dropped {
		t.Errorf("expected %s, got %s", Dropped, out)
	}
	stage.loading.Store(false)

	if err := stage.Load(context.Background(), FileSource(puppetFile)); err != nil {
		t.Fatal(err)
	}
	if stage.Puppet() == first {
		t.Error("expected a new puppet")
	}
}

func TestStageConcurrency(t *testing.T) {
	var logs bytes.Buffer
	stage := NewStage(testConfig(&logs))
	if err := stage.Load(context.Background(), FileSource(puppetFile)); err != nil {
		t.Fatal(err)
	}
	frames := loadFrames(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				out, _ := stage.Frame(frames[(i+j)%len(frames)])
				if out == Empty {
					t.Error("a puppet is always active")
				}
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 3; j++ {
			if err := stage.Load(context.Background(), FileSource(puppetFile)); err != nil {
				t.Error(err)
			}
		}
	}()
	wg.Wait()
}
