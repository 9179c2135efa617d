package controller

import (
	"time"

	"github.com/coreman2200/pixelnode/internal/pixel"
)

// State is everything the loop owns. Only the goroutine running the Scheduler
// touches it.
type State struct {
	Pixels     *pixel.Buffer
	Brightness uint8

	LastRender  time.Time
	LastAttempt time.Time
	LastControl time.Time

	// restartReason is set once a restart has been triggered.
	restartReason string
}

func NewState(count int, brightness uint8) *State {
	return &State{
		Pixels:     pixel.NewBuffer(count),
		Brightness: brightness,
	}
}

// Restarting reports whether a restart was triggered, and why.
func (s *State) Restarting() (string, bool) {
	return s.restartReason, s.restartReason != ""
}
