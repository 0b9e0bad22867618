// Package move tracks the single in-flight motion command for one bot.
// At most one move is active at a time; a second move is rejected until the
// first completes or a stop clears it.
package move

import "strings"

// #region config
// Config holds motion tuning. Rate is an empirical blocks-per-tick constant,
// not derived per direction.
type Config struct {
	Rate float64 // blocks advanced per scheduler tick
}

// DefaultConfig matches the observed walking speed of the fake player.
func DefaultConfig() Config {
	return Config{Rate: 0.4}
}

// #endregion config

// #region state
// State is the movement state machine: Idle → Moving → Idle.
type State struct {
	config Config

	active       bool
	direction    string
	distance     float64 // target blocks
	elapsedTicks int
}

// NewState returns an idle state machine with the given tuning.
func NewState(config Config) *State {
	if config.Rate <= 0 {
		config = DefaultConfig()
	}
	return &State{config: config}
}

// Active reports whether a move is in flight.
func (s *State) Active() bool { return s.active }

// Direction returns the normalized direction of the in-flight move, or "".
func (s *State) Direction() string { return s.direction }

// Remaining returns target blocks minus blocks covered so far (0 when idle).
func (s *State) Remaining() float64 {
	if !s.active {
		return 0
	}
	rem := s.distance - float64(s.elapsedTicks)*s.config.Rate
	if rem < 0 {
		return 0
	}
	return rem
}

// #endregion state

// #region transitions
// Start begins a move. Returns false when a move is already active; the
// caller turns that into an "already moving" result with no state change.
func (s *State) Start(direction string, distance float64) bool {
	if s.active {
		return false
	}
	s.active = true
	s.direction = NormalizeDirection(direction)
	s.distance = distance
	s.elapsedTicks = 0
	return true
}

// Tick advances the machine by one scheduler activation and reports whether
// the move just completed. Completion: elapsed_ticks × rate ≥ distance.
func (s *State) Tick() (done bool) {
	if !s.active {
		return false
	}
	s.elapsedTicks++
	if float64(s.elapsedTicks)*s.config.Rate >= s.distance {
		s.clear()
		return true
	}
	return false
}

// Stop clears the machine unconditionally. Idempotent.
func (s *State) Stop() {
	s.clear()
}

func (s *State) clear() {
	s.active = false
	s.direction = ""
	s.distance = 0
	s.elapsedTicks = 0
}

// #endregion transitions

// #region directions
var directionAliases = map[string]string{
	"back":      "backward",
	"backwards": "backward",
	"fwd":       "forward",
	"forwards":  "forward",
}

var knownDirections = map[string]struct{}{
	"forward": {}, "backward": {}, "left": {}, "right": {}, "up": {}, "down": {},
}

// NormalizeDirection folds aliases ("back" → "backward") before the direction
// reaches the motion primitive.
func NormalizeDirection(dir string) string {
	d := strings.ToLower(strings.TrimSpace(dir))
	if canon, ok := directionAliases[d]; ok {
		return canon
	}
	return d
}

// IsKnownDirection reports whether the (normalized) direction is one the
// motion primitive accepts.
func IsKnownDirection(dir string) bool {
	_, ok := knownDirections[NormalizeDirection(dir)]
	return ok
}

// #endregion directions
