package puppet

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/skeleton"
	"github.com/benoitkugler/svgpuppet/svgscene"
)

// Outcome tells what happened to a frame.
type Outcome uint8

const (
	// Applied frames moved the puppet.
	Applied Outcome = iota
	// Skipped frames had no pose: the last pose is held.
	Skipped
	// Dropped frames arrived while a puppet was loading.
	Dropped
	// Empty means that no puppet is loaded.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Dropped:
		return "dropped"
	case Empty:
		return "empty"
	default:
		return "<unknown Outcome>"
	}
}

// Stage holds the active puppet. Loads replace it atomically,
// and frames are processed one at a time.
// The zero value is not usable: see NewStage.
type Stage struct {
	cfg Config

	active  atomic.Pointer[Puppet]
	loading atomic.Bool
	loadMu  sync.Mutex // one load at a time
	frameMu sync.Mutex // one frame in flight
}

// NewStage returns an empty stage, loading puppets with cfg.
func NewStage(cfg Config) *Stage {
	return &Stage{cfg: cfg}
}

// Puppet returns the active puppet, or nil.
func (s *Stage) Puppet() *Puppet { return s.active.Load() }

// Load replaces the active puppet. On failure,
// the previous puppet stays active.
// Frames received while loading are dropped.
func (s *Stage) Load(ctx context.Context, src Source) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.loading.Store(true)
	defer s.loading.Store(false)

	p, err := Load(ctx, src, s.cfg)
	if err != nil {
		s.cfg.logger().Printf("keeping the previous puppet: %s", err)
		return err
	}
	// wait for the frame in flight, if any
	s.frameMu.Lock()
	s.active.Store(p)
	s.frameMu.Unlock()
	return nil
}

// Frame applies the poses to the active puppet.
func (s *Stage) Frame(poses []pose.Pose) (Outcome, skeleton.Report) {
	if s.loading.Load() {
		return Dropped, skeleton.Report{}
	}
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	p := s.active.Load()
	if p == nil {
		return Empty, skeleton.Report{}
	}
	rep, ok := p.Apply(poses)
	if !ok {
		return Skipped, rep
	}
	return Applied, rep
}

// Draw renders the active puppet, if any.
func (s *Stage) Draw(d svgscene.Driver) bool {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	p := s.active.Load()
	if p == nil {
		return false
	}
	p.Draw(d)
	return true
}
