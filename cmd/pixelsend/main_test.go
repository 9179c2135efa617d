package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelnode/internal/layout"
	"github.com/coreman2200/pixelnode/internal/pattern"
)

// ticks returns a channel that is always ready.
func ticks() <-chan time.Time {
	c := make(chan time.Time)
	close(c)
	return c
}

type recorder struct{ frames [][]byte }

func (r *recorder) send(rgb []byte) (int, error) {
	r.frames = append(r.frames, append([]byte(nil), rgb...))
	return 1, nil
}

func TestPlaySweepStopsWithoutTrailingFrame(t *testing.T) {
	l := layout.Layout{Strips: 1, PerStrip: 3}
	var rec recorder
	runner := pattern.NewRunner(pattern.Plan{Kind: pattern.IndexSweep})

	sent := play(context.Background(), runner, l, rec.send, 0, ticks())

	assert.Equal(t, 3, sent)
	require.Len(t, rec.frames, 3)
	for i, f := range rec.frames {
		lit := 0
		for _, b := range f {
			if b != 0 {
				lit++
			}
		}
		assert.Equal(t, 3, lit, "frame %d lights exactly one pixel", i)
	}
}

func TestPlayHonorsLimit(t *testing.T) {
	l := layout.Layout{Strips: 2, PerStrip: 4}
	var rec recorder
	runner := pattern.NewRunner(pattern.Plan{Kind: pattern.IndexSweep, Loop: true})

	assert.Equal(t, 5, play(context.Background(), runner, l, rec.send, 5, ticks()))
	assert.Len(t, rec.frames, 5)
}

func TestPlayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var rec recorder
	runner := pattern.NewRunner(pattern.Plan{Kind: pattern.RGBTest})

	assert.Equal(t, 1, play(ctx, runner, layout.Layout{Strips: 1, PerStrip: 2}, rec.send, 0, make(chan time.Time)))
}
