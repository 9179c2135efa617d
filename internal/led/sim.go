package led

import (
	"sync"

	"github.com/rs/zerolog"
)

// Sim keeps the last frame instead of driving hardware, and logs a compact
// summary of each one at debug level.
type Sim struct {
	mu         sync.Mutex
	frames     int
	last       []byte
	brightness uint8
	log        zerolog.Logger
}

func NewSim(logger zerolog.Logger) *Sim {
	return &Sim{log: logger}
}

func (s *Sim) Render(pixels []byte, brightness uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = append(s.last[:0], pixels...)
	s.brightness = brightness

	if e := s.log.Debug(); e.Enabled() {
		var r, g, b int
		for i := 0; i+2 < len(pixels); i += 3 {
			r += int(pixels[i])
			g += int(pixels[i+1])
			b += int(pixels[i+2])
		}
		n := len(pixels) / 3
		if n == 0 {
			n = 1
		}
		e.Int("frame", s.frames).
			Uint8("brightness", brightness).
			Ints("avg", []int{r / n, g / n, b / n}).
			Msg("sim render")
	}
	return nil
}

// Last returns a copy of the most recent frame and the brightness it was rendered with.
func (s *Sim) Last() ([]byte, uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...), s.brightness
}

func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Sim) Close() error { return nil }
