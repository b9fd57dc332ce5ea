// Package puppet assembles an illustration, its skeleton and the
// pose mapper into a unit animated frame by frame, and provides a
// Stage swapping puppets safely while frames keep coming.
package puppet

import (
	"context"
	"fmt"

	"github.com/benoitkugler/svgpuppet/binder"
	"github.com/benoitkugler/svgpuppet/illustration"
	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
)

// Puppet is a scene together with the skeleton bound to it.
// It is not safe for concurrent use: see Stage.
type Puppet struct {
	Source       string
	Illustration *illustration.Illustration
	Mapper       *pose.Mapper

	cfg Config
}

// Load reads, binds and prepares the puppet.
// Nothing is returned on failure.
func Load(ctx context.Context, src Source, cfg Config) (*Puppet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := svgscene.ParseErrorMode(cfg.ErrorMode)

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer rc.Close()
	scene, err := svgscene.Parse(rc, mode)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src, err)
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	rig, err := bind(scene, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src, err)
	}
	if cfg.Canvas.Width > 0 && cfg.Canvas.Height > 0 && scene.ViewBox.W > 0 && scene.ViewBox.H > 0 {
		scene.SetTarget(0, 0, cfg.Canvas.Width, cfg.Canvas.Height)
	}

	p := &Puppet{
		Source:       src.String(),
		Illustration: illustration.New(rig.Scene, rig.Skeleton, rig.Table, cfg.zOrder()),
		Mapper:       &pose.Mapper{Smoothing: cfg.Smoothing},
		cfg:          cfg,
	}
	p.Illustration.Update()
	if unbound := rig.Table.Unbound(); len(unbound) != 0 {
		cfg.logger().Printf("%s: %d unbound part(s), drawn at rest: %v", src, len(unbound), unbound)
	}
	return p, nil
}

func bind(scene *svgscene.Scene, cfg Config) (*binder.Rig, error) {
	return binder.Bind(scene, skeleton.HumanSchema, cfg.bindOptions())
}

// Scene returns the scene of the puppet.
func (p *Puppet) Scene() *svgscene.Scene { return p.Illustration.Scene }

// Skeleton returns the skeleton of the puppet.
func (p *Puppet) Skeleton() *skeleton.Skeleton { return p.Illustration.Skeleton }

// Apply maps the poses and moves the puppet accordingly.
// It returns false, leaving the puppet as is, if there is no pose.
func (p *Puppet) Apply(poses []pose.Pose) (skeleton.Report, bool) {
	frame, ok := p.Mapper.Map(poses)
	if !ok {
		return skeleton.Report{}, false
	}
	sk := p.Skeleton()
	if p.cfg.ResetEachFrame {
		sk.Reset()
	}
	rep := sk.UpdatePose(frame)
	p.Illustration.Update()
	if p.cfg.Debug && rep.Degraded() {
		p.cfg.logger().Printf("%s: degraded frame: %s", p.Source, rep)
	}
	return rep, true
}

// Reset restores the bind pose.
func (p *Puppet) Reset() {
	p.Skeleton().Reset()
	p.Mapper.Reset()
	p.Illustration.Update()
}

// Draw renders the current pose.
func (p *Puppet) Draw(d svgscene.Driver) { p.Illustration.Draw(d) }
