package controller

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/pixelnode/internal/clock"
	diag "github.com/coreman2200/pixelnode/internal/diagnostics"
	"github.com/coreman2200/pixelnode/internal/pixel"
	"github.com/coreman2200/pixelnode/internal/protocol"
	"github.com/coreman2200/pixelnode/internal/transport"
)

// Result is the outcome of one frame reception attempt.
type Result int

const (
	NoData Result = iota
	Committed
	Dropped
)

func (r Result) String() string {
	switch r {
	case NoData:
		return "no_data"
	case Committed:
		return "committed"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Receiver reassembles one frame from consecutive datagrams. Bytes are staged
// in a scratch buffer and swapped into the pixel buffer only once the frame is
// complete, so an abandoned frame never reaches the strip.
type Receiver struct {
	src      transport.Source
	clk      clock.Clock
	variant  protocol.Variant
	deadline time.Duration
	pause    time.Duration
	minFirst int

	// dispatch receives non-frame commands on multiplexed variants.
	dispatch func(code byte, args []byte)

	stage []byte
	stats *Stats
	pub   diag.Publisher
	log   zerolog.Logger
}

// TryReceive polls the frame channel once. If a frame starts, it keeps
// collecting datagrams until dst is full or the deadline passes.
func (r *Receiver) TryReceive(dst *pixel.Buffer) Result {
	pkt, ok := r.src.Poll()
	if !ok || len(pkt) == 0 {
		return NoData
	}

	if r.variant.Multiplexed {
		if pkt[0] != r.variant.Frame {
			if r.dispatch != nil {
				r.dispatch(pkt[0], pkt[1:])
			}
			return NoData
		}
		pkt = pkt[1:]
	}

	if len(pkt) < r.minFirst {
		r.stats.Malformed.Inc(1)
		r.log.Debug().Int("len", len(pkt)).Int("min", r.minFirst).Msg("short first fragment dropped")
		r.pub.Publish(diag.Diagnostic{
			Time:     r.clk.Now(),
			Severity: diag.Warn,
			Code:     diag.CodeFrameMalformed,
			Summary:  "First fragment below minimum size",
			Evidence: map[string]any{"len": len(pkt), "min": r.minFirst},
		})
		return Dropped
	}

	if len(r.stage) != dst.Size() {
		r.stage = make([]byte, dst.Size())
	}

	start := r.clk.Now()
	n := copy(r.stage, pkt)
	fragments := 1
	for n < len(r.stage) {
		next, ok := r.src.Poll()
		if !ok {
			if waited := r.clk.Now().Sub(start); waited > r.deadline {
				r.stats.Dropped.Inc(1)
				r.log.Debug().
					Int("received", n).
					Int("want", len(r.stage)).
					Int("fragments", fragments).
					Dur("waited", waited).
					Msg("frame deadline exceeded; dropped")
				r.pub.Publish(diag.Diagnostic{
					Time:     r.clk.Now(),
					Severity: diag.Info,
					Code:     diag.CodeFrameDropped,
					Summary:  "Incomplete frame dropped",
					Evidence: map[string]any{"received": n, "want": len(r.stage), "fragments": fragments},
				})
				return Dropped
			}
			r.clk.Sleep(r.pause)
			continue
		}
		n += copy(r.stage[n:], next)
		fragments++
	}

	prev, err := dst.Swap(r.stage)
	if err != nil {
		r.log.Error().Err(err).Msg("commit frame")
		return Dropped
	}
	r.stage = prev
	r.stats.Committed.Mark(1)
	r.stats.Reassembly.Update(r.clk.Now().Sub(start))
	return Committed
}
