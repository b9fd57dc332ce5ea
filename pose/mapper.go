package pose

import "gonum.org/v1/gonum/spatial/r2"

// Mapper turns the hypotheses of the pose model into frames.
// The zero value selects the best hypothesis without smoothing.
type Mapper struct {
	// Smoothing in [0, 1) blends each joint with its previous position:
	// pos = prev + w*(new-prev), with w = (1-Smoothing) + Smoothing*confidence.
	// 0 disables smoothing.
	Smoothing float64

	last Frame
	seen bool
}

// Map selects the highest scoring pose (the first one on ties)
// and returns its frame. It returns false when there is nothing to map,
// in which case the caller should hold the last pose.
func (m *Mapper) Map(poses []Pose) (Frame, bool) {
	best := -1
	for i, p := range poses {
		if len(p.Keypoints) == 0 {
			continue
		}
		if best < 0 || p.Score > poses[best].Score {
			best = i
		}
	}
	if best < 0 {
		return Frame{}, false
	}

	frame := NewFrame(poses[best].Keypoints)
	if m.Smoothing > 0 && m.seen {
		frame = m.smooth(frame)
	}
	m.remember(frame)
	return frame, true
}

// remember updates the history, keeping the last known
// position of the joints absent from frame.
func (m *Mapper) remember(frame Frame) {
	if !m.seen {
		m.last, m.seen = frame, true
		return
	}
	for i, ok := range frame.present {
		if ok {
			m.last.points[i], m.last.present[i] = frame.points[i], true
		}
	}
}

func (m *Mapper) smooth(frame Frame) Frame {
	s := m.Smoothing
	if s >= 1 {
		s = 0.99
	}
	for i, ok := range frame.present {
		if !ok || !m.last.present[i] {
			continue
		}
		kp := &frame.points[i]
		prev := m.last.points[i].Position
		w := (1 - s) + s*clamp01(kp.Confidence)
		kp.Position = r2.Add(prev, r2.Scale(w, r2.Sub(kp.Position, prev)))
	}
	return frame
}

// Reset forgets the smoothing history.
func (m *Mapper) Reset() {
	m.last, m.seen = Frame{}, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
