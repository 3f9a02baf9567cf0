package glitch

import "math"

// DefaultPeriod is the tick period after which the glitch origin is re-rolled.
const DefaultPeriod = 200

// originRows is the exclusive upper bound of Origin.Y.
const originRows = 5

// Origin controls the channel-offset magnitude (X) and the vertical spacing
// of glitch bars (Y). X is in [0, 1) and Y in [0, 5).
type Origin struct {
	X float64
	Y int
}

// RollOrigin draws a new Origin from src. X is drawn before Y.
func RollOrigin(src Source) Origin {
	return Origin{
		X: src.Float64(),
		Y: intn(src, originRows),
	}
}

// ShouldReroll reports whether tick lies past a period boundary relative to
// last, i.e. round(tick) mod period < last mod period.
func ShouldReroll(tick, last, period float64) bool {
	return math.Mod(math.Round(tick), period) < math.Mod(last, period)
}

// State is the mutable animation state private to a renderer: the current
// origin and the timestamp of the last rendered frame.
type State struct {
	origin   Origin
	lastTick float64
	period   float64
	rerolls  int
}

// NewState returns a state with a freshly rolled origin and a zero clock.
func NewState(period float64, src Source) *State {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &State{
		origin: RollOrigin(src),
		period: period,
	}
}

// Advance re-rolls the origin if tick crossed a period boundary since the last
// committed frame. It reports whether a re-roll happened.
func (s *State) Advance(tick float64, src Source) bool {
	if !ShouldReroll(tick, s.lastTick, s.period) {
		return false
	}
	s.origin = RollOrigin(src)
	s.rerolls++
	return true
}

// Commit records tick as the last frame timestamp.
func (s *State) Commit(tick float64) { s.lastTick = tick }

// Origin returns the current glitch origin.
func (s *State) Origin() Origin { return s.origin }

// LastTick returns the timestamp of the last committed frame.
func (s *State) LastTick() float64 { return s.lastTick }

// Rerolls returns how many times the origin was re-rolled after construction.
func (s *State) Rerolls() int { return s.rerolls }

// ImageOffsets returns the channel offsets for the full-image pass. The
// origin's X is scaled and truncated to whole pixels; with scale 1 the result
// is always {5, 0, 0} because X < 1.
func (s *State) ImageOffsets(scale float64) Offsets {
	x := int(s.origin.X * scale)
	return Offsets{R: x + 5, G: -x, B: x}
}
