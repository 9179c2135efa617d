package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelnode/internal/layout"
	"github.com/coreman2200/pixelnode/internal/pattern"
	"github.com/coreman2200/pixelnode/internal/protocol"
	"github.com/coreman2200/pixelnode/internal/sender"
)

// pixelsend plays a test pattern to a node and issues control commands.
func main() {
	var (
		node        = flag.String("node", "127.0.0.1", "node host")
		framePort   = flag.Int("frame-port", protocol.DefaultFramePort, "frame UDP port")
		controlPort = flag.Int("control-port", protocol.DefaultControlPort, "control UDP port")
		proto       = flag.String("protocol", "split", "protocol variant: split | legacy")
		strips      = flag.Int("strips", 5, "strip count")
		perStrip    = flag.Int("per-strip", 20, "pixels per strip")
		serpentine  = flag.Bool("serpentine", false, "odd strips run backwards")
		fps         = flag.Int("fps", 30, "frames per second")
		pat         = flag.String("pattern", string(pattern.IndexSweep), "pattern: strips | index_sweep | rgb_channels | off")
		loop        = flag.Bool("loop", true, "repeat animated patterns")
		mtu         = flag.Int("mtu", 1400, "max datagram payload")
		count       = flag.Int("frames", 0, "stop after N frames (0 = until interrupted)")
		brightness  = flag.Int("brightness", -1, "send a brightness command (0..255) first")
		reboot      = flag.Bool("reboot", false, "send a reboot command and exit")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	v, err := protocol.Lookup(*proto)
	if err != nil {
		log.Fatal().Err(err).Msg("protocol")
	}
	kind, err := pattern.Parse(*pat)
	if err != nil {
		log.Fatal().Err(err).Msg("pattern")
	}
	if *fps <= 0 {
		log.Fatal().Int("fps", *fps).Msg("fps must be positive")
	}

	s, err := sender.Dial(*node, *framePort, *controlPort, v, *mtu)
	if err != nil {
		log.Fatal().Err(err).Msg("dial node")
	}
	defer s.Close()

	if *reboot {
		if err := s.Reboot(); err != nil {
			log.Fatal().Err(err).Msg("reboot")
		}
		log.Info().Str("node", *node).Msg("reboot sent")
		return
	}
	if *brightness >= 0 {
		if *brightness > 255 {
			log.Fatal().Int("brightness", *brightness).Msg("brightness out of range")
		}
		if err := s.Brightness(uint8(*brightness)); err != nil {
			log.Fatal().Err(err).Msg("brightness")
		}
		log.Info().Int("brightness", *brightness).Msg("brightness sent")
	}

	l := layout.Layout{Strips: *strips, PerStrip: *perStrip, Serpentine: *serpentine}
	runner := pattern.NewRunner(pattern.Plan{Kind: kind, Loop: *loop})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()
	sent := play(ctx, runner, l, s.Frame, *count, ticker.C)
	log.Info().Int("frames", sent).Msg("done")
}

// play sends frames from runner on every tick until the pattern ends, limit
// frames have gone out (0 = no limit) or ctx is done. It returns the number
// of frames sent.
func play(ctx context.Context, runner *pattern.Runner, l layout.Layout, send func([]byte) (int, error), limit int, tick <-chan time.Time) int {
	rgb := make([]byte, l.BufSize())
	start := time.Now()
	sent := 0
	for {
		if !runner.Step(l, rgb) {
			return sent
		}
		n, err := send(rgb)
		if err != nil {
			log.Warn().Err(err).Msg("send frame")
		}
		sent++
		if sent%100 == 0 {
			log.Info().
				Int("frames", sent).
				Int("datagrams", n).
				Float64("fps", float64(sent)/time.Since(start).Seconds()).
				Msg("sending")
		}
		if limit > 0 && sent >= limit {
			return sent
		}
		select {
		case <-ctx.Done():
			return sent
		case <-tick:
		}
	}
}
