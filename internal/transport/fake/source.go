package fake

import (
	"sort"
	"time"

	"github.com/coreman2200/pixelnode/internal/clock"
)

// Source replays scripted datagrams, each becoming visible once the clock
// reaches its arrival time. Useful for driving the scheduler in tests.
type Source struct {
	clk     clock.Clock
	pending []arrival
	Polls   int
}

type arrival struct {
	at  time.Time
	pkt []byte
}

func NewSource(clk clock.Clock) *Source {
	return &Source{clk: clk}
}

// Push queues datagrams that are available immediately.
func (s *Source) Push(pkts ...[]byte) {
	for _, p := range pkts {
		s.After(0, p)
	}
}

// After queues pkt to arrive d from now.
func (s *Source) After(d time.Duration, pkt []byte) {
	a := arrival{at: s.clk.Now().Add(d), pkt: pkt}
	i := sort.Search(len(s.pending), func(i int) bool { return s.pending[i].at.After(a.at) })
	s.pending = append(s.pending, arrival{})
	copy(s.pending[i+1:], s.pending[i:])
	s.pending[i] = a
}

func (s *Source) Poll() ([]byte, bool) {
	s.Polls++
	if len(s.pending) == 0 || s.pending[0].at.After(s.clk.Now()) {
		return nil, false
	}
	pkt := s.pending[0].pkt
	s.pending = s.pending[1:]
	return pkt, true
}

// Pending reports how many datagrams have not been polled yet.
func (s *Source) Pending() int { return len(s.pending) }
