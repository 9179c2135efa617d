package controller

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelnode/internal/clock"
	"github.com/coreman2200/pixelnode/internal/protocol"
	"github.com/coreman2200/pixelnode/internal/transport/fake"
)

// 5 strips x 20 pixels x 3 bytes.
const testBufSize = 300

type rendered struct {
	at         time.Time
	pixels     []byte
	brightness uint8
}

type recordingSink struct {
	clk    clock.Clock
	frames []rendered
	err    error
}

func (r *recordingSink) Render(p []byte, b uint8) error {
	r.frames = append(r.frames, rendered{at: r.clk.Now(), pixels: append([]byte(nil), p...), brightness: b})
	return r.err
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) last() rendered { return r.frames[len(r.frames)-1] }

type fakeRestarter struct {
	clk     clock.Clock
	reasons []string
	at      []time.Time
}

func (f *fakeRestarter) Restart(reason string) error {
	f.reasons = append(f.reasons, reason)
	f.at = append(f.at, f.clk.Now())
	return nil
}

type harness struct {
	clk       *clock.Fake
	frames    *fake.Source
	control   *fake.Source
	sink      *recordingSink
	restarter *fakeRestarter
	state     *State
	sched     *Scheduler
}

func newHarness(t *testing.T, mutate func(*Config, *Deps)) *harness {
	t.Helper()
	clk := clock.NewFake(time.Unix(1700000000, 0))
	h := &harness{
		clk:       clk,
		frames:    fake.NewSource(clk),
		control:   fake.NewSource(clk),
		sink:      &recordingSink{clk: clk},
		restarter: &fakeRestarter{clk: clk},
		state:     NewState(testBufSize/3, 90),
	}
	cfg := DefaultConfig(30)
	deps := Deps{
		Frames:    h.frames,
		Control:   h.control,
		Sink:      h.sink,
		Clock:     clk,
		Restarter: h.restarter,
		Log:       zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	s, err := New(cfg, h.state, deps)
	require.NoError(t, err)
	h.sched = s
	return h
}

func frameOf(seed byte) []byte {
	f := make([]byte, testBufSize)
	for i := range f {
		f[i] = seed + byte(i)
	}
	return f
}

func legacy(cfg *Config, _ *Deps) { cfg.Variant = protocol.Legacy }
