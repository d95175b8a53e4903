package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/HexSleeves/parasol/internal/llm"
)

// Mode selects which backend serves new turns.
type Mode string

const (
	// ModeAuto tries the primary backend first and falls back to the
	// secondary when the primary is unavailable.
	ModeAuto Mode = "auto"
	// ModePrimary pins the primary backend; no fallback.
	ModePrimary Mode = "primary"
	// ModeSecondary pins the secondary backend; no fallback.
	ModeSecondary Mode = "secondary"
)

// Selector owns the process-wide backend mode. Turns snapshot their
// candidates once up front, so a concurrent SetMode never affects a turn
// already in flight.
type Selector struct {
	mu        sync.RWMutex
	mode      Mode
	primary   llm.Client
	secondary llm.Client
}

// NewSelector creates a selector over the two backends, starting in auto
// mode.
func NewSelector(primary, secondary llm.Client) *Selector {
	return &Selector{
		mode:      ModeAuto,
		primary:   primary,
		secondary: secondary,
	}
}

// Mode returns the current selection mode.
func (s *Selector) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode changes the backend used by subsequent turns.
func (s *Selector) SetMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// ParseMode maps a user-facing name onto a Mode. It accepts the mode
// names plus the names of the configured backends, so "deepseek" works
// as well as "primary".
func (s *Selector) ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(ModeAuto):
		return ModeAuto, nil
	case string(ModePrimary), strings.ToLower(s.primary.Name()):
		return ModePrimary, nil
	case string(ModeSecondary), strings.ToLower(s.secondary.Name()):
		return ModeSecondary, nil
	}
	return "", fmt.Errorf("unknown backend %q (choices: auto, %s, %s)",
		name, s.primary.Name(), s.secondary.Name())
}

// Switch parses name and sets the mode for subsequent turns.
func (s *Selector) Switch(name string) (Mode, error) {
	mode, err := s.ParseMode(name)
	if err != nil {
		return "", err
	}
	s.SetMode(mode)
	return mode, nil
}

// Describe returns a human-readable account of the current mode.
func (s *Selector) Describe() string {
	switch s.Mode() {
	case ModePrimary:
		return s.primary.Name()
	case ModeSecondary:
		return s.secondary.Name()
	default:
		return fmt.Sprintf("auto (%s, fallback %s)", s.primary.Name(), s.secondary.Name())
	}
}

// Candidates returns the backends eligible for a new turn, in the order
// they should be tried. Pinned modes return exactly one backend.
func (s *Selector) Candidates() []llm.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.mode {
	case ModePrimary:
		return []llm.Client{s.primary}
	case ModeSecondary:
		return []llm.Client{s.secondary}
	default:
		return []llm.Client{s.primary, s.secondary}
	}
}
