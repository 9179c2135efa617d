package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelnode/internal/config"
	"github.com/coreman2200/pixelnode/internal/controller"
	diag "github.com/coreman2200/pixelnode/internal/diagnostics"
	"github.com/coreman2200/pixelnode/internal/layout"
	"github.com/coreman2200/pixelnode/internal/led"
	"github.com/coreman2200/pixelnode/internal/logging"
	"github.com/coreman2200/pixelnode/internal/netjoin"
	"github.com/coreman2200/pixelnode/internal/pattern"
	"github.com/coreman2200/pixelnode/internal/restart"
	"github.com/coreman2200/pixelnode/internal/status"
	"github.com/coreman2200/pixelnode/internal/transport"
	"github.com/coreman2200/pixelnode/internal/update"
)

// Set with -ldflags "-X main.version=...". Sent to the update server.
var version = "dev"

func main() {
	// ---- Flags (explicitly set flags override config.yaml) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: spi | serial | console | sim")
		fps        = flag.Int("fps", 0, "target frames per second")
		brightness = flag.Int("brightness", -1, "initial brightness 0..255")
		proto      = flag.String("protocol", "", "protocol variant: split | legacy")
		statusAddr = flag.String("status", "", "status HTTP listen address, e.g. :8080")
		logLevel   = flag.String("log-level", "", "log level")
		debugPat   = flag.String("pattern", "", "test pattern shown until the first frame: strips | index_sweep | rgb_channels | off")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	flag.Parse()

	// ---- Bootstrap logging until the configured logger exists ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
		cfg = config.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "fps":
			cfg.FrameRate = *fps
		case "brightness":
			cfg.Brightness = *brightness
		case "protocol":
			cfg.Net.Protocol = *proto
		case "status":
			cfg.Status.Addr = *statusAddr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "pattern":
			cfg.DebugPattern = *debugPat
		}
	})
	if *simOnly {
		cfg.Driver = "sim"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("invalid configuration")
	}

	// ---- Logging ----
	logger, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, Syslog: cfg.Log.Syslog, App: cfg.Log.App})
	if err != nil {
		log.Warn().Err(err).Msg("remote logging unavailable; console only")
		logger, logCloser, _ = logging.New(logging.Options{Level: cfg.Log.Level, App: cfg.Log.App})
	}
	closeLog := closeOnce(func() { _ = logCloser.Close() })
	defer closeLog()
	bootID := uuid.NewString()
	logger = logger.With().Str("boot", bootID[:8]).Logger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Network join ----
	health := netjoin.Interface(cfg.Health.Interface)
	if to := cfg.JoinTimeout(); to > 0 {
		jctx, cancel := context.WithTimeout(ctx, to)
		err := netjoin.Wait(jctx, health, netjoin.PollInterval, logger)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("interface", cfg.Health.Interface).Msg("network join failed")
		}
	}

	// ---- Update check ----
	log.Info().Str("version", version).Msg("Controller was (re)booted - check for updates")
	if url := cfg.UpdateURL(); url != "" {
		checkUpdate(ctx, cfg, url, logger)
	}
	log.Info().Msg("No updates to handle. init...")

	// ---- Driver selection ----
	l := cfg.Layout()
	sink, selected := openSink(cfg, l, logger)

	// ---- State ----
	state := controller.NewState(l.Count(), uint8(cfg.Brightness))
	if cfg.DebugPattern != "" {
		kind, _ := pattern.Parse(cfg.DebugPattern)
		if err := pattern.Fill(kind, l, state.Pixels.Bytes()); err != nil {
			log.Warn().Err(err).Msg("debug pattern")
		}
	}

	// ---- Transport ----
	cc := cfg.Controller()
	frames, err := transport.ListenUDP(hostPort(cfg.Net.Listen, cfg.Net.FramePort), cfg.Net.QueueDepth, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("frame listener")
	}
	var control *transport.UDP
	if !cc.Variant.Multiplexed {
		control, err = transport.ListenUDP(hostPort(cfg.Net.Listen, cfg.Net.ControlPort), cfg.Net.QueueDepth, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("control listener")
		}
	}
	// ---- Status server ----
	stats := controller.NewStats(nil)
	var pub diag.Publisher = diag.Discard{}
	var srv *http.Server
	if cfg.Status.Addr != "" {
		st := status.New(status.Info{
			BootID:   bootID,
			Version:  version,
			Driver:   selected,
			Protocol: cc.Variant.Name,
			Layout:   l,
		}, stats.Snapshot, logger)
		pub = st
		srv = &http.Server{
			Addr:         cfg.Status.Addr,
			Handler:      st.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go st.Run(ctx)
		go func() {
			log.Info().Str("addr", cfg.Status.Addr).Msg("status server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server stopped")
			}
		}()
	}
	release := closeOnce(func() {
		if srv != nil {
			_ = srv.Close()
		}
		_ = frames.Close()
		if control != nil {
			_ = control.Close()
		}
		_ = sink.Close()
	})

	pub.Publish(diag.Diagnostic{
		Time:     time.Now(),
		Severity: diag.Info,
		Code:     diag.CodeBoot,
		Summary:  "Controller booted",
		Evidence: map[string]any{"version": version, "driver": selected, "protocol": cc.Variant.Name},
	})
	go watchOverflow(ctx, pub, frames, control)

	// ---- Restart by re-exec ----
	restarter, err := restart.Self(logger, func() {
		release()
		closeLog()
	})
	if err != nil {
		log.Fatal().Err(err).Msg("resolve executable")
	}

	deps := controller.Deps{
		Frames:    frames,
		Sink:      sink,
		Restarter: restarter,
		Publisher: pub,
		Stats:     stats,
		Log:       logger,
	}
	if control != nil {
		deps.Control = control
	}
	if cfg.Health.Interface != "" {
		deps.Health = health
	}
	sched, err := controller.New(cc, state, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("controller init")
	}

	err = sched.Run(ctx)
	release()
	if err != nil {
		// Reaching here means the re-exec itself failed; let the supervisor restart us.
		log.Error().Err(err).Msg("restart failed; exiting")
		os.Exit(1)
	}
	log.Info().Msg("shutting down")
}

// checkUpdate returns only if boot should continue on the running image.
func checkUpdate(ctx context.Context, cfg *config.Config, url string, logger zerolog.Logger) {
	target := cfg.Update.Target
	if target == "" {
		exe, err := os.Executable()
		if err != nil {
			log.Warn().Err(err).Msg("update target unknown; skipping update")
			return
		}
		target = exe
	}
	c := &update.Checker{URL: url, Version: version, Target: target, Log: logger}
	res, err := c.Check(ctx)
	switch res {
	case update.Updated:
		r, rerr := restart.Self(logger, nil)
		if rerr == nil {
			rerr = r.Restart("update installed")
		}
		log.Error().Err(rerr).Msg("update installed but restart failed")
		os.Exit(1)
	case update.Failed:
		log.Warn().Err(err).Str("url", url).Msg("update check failed")
	}
}

func openSink(cfg *config.Config, l layout.Layout, logger zerolog.Logger) (led.Sink, string) {
	sim := func() led.Sink { return led.NewSim(logger.With().Str("component", "sim").Logger()) }
	switch cfg.Driver {
	case "spi":
		s, err := led.OpenSPI(cfg.SPI.Dev, l.Count())
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", cfg.SPI.Dev).
				Msg("SPI init failed; falling back to SIM")
			return sim(), "sim"
		}
		log.Info().Str("dev", s.String()).Msg("SPI strip ready")
		return s, "spi"

	case "serial":
		s, err := led.OpenSerial(cfg.Serial.Device, cfg.Serial.Baud, l.Count())
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "serial").
				Str("device", cfg.Serial.Device).
				Msg("serial init failed; falling back to SIM")
			return sim(), "sim"
		}
		return s, "serial"

	case "console":
		return led.NewConsole(l.Count()), "console"

	case "sim":
		return sim(), "sim"

	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using SIM")
		return sim(), "sim"
	}
}

func watchOverflow(ctx context.Context, pub diag.Publisher, srcs ...*transport.UDP) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	seen := make([]uint64, len(srcs))
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		for i, s := range srcs {
			if s == nil {
				continue
			}
			n := s.Overflow()
			if n == seen[i] {
				continue
			}
			log.Warn().Uint64("dropped", n-seen[i]).Str("addr", s.LocalAddr().String()).Msg("datagram queue overflow")
			pub.Publish(diag.Diagnostic{
				Time:           time.Now(),
				Severity:       diag.Warn,
				Code:           diag.CodeTransportOverflow,
				Summary:        "Datagrams dropped before the loop could poll them",
				Evidence:       map[string]any{"dropped": n - seen[i], "addr": s.LocalAddr().String()},
				SuggestedFixes: []string{"raise net.queue_depth", "lower the sender frame rate"},
			})
			seen[i] = n
		}
	}
}

// closeOnce runs fn on the first call only; the restart hook and the normal
// shutdown path both release the same sockets and strip.
func closeOnce(fn func()) func() {
	var once sync.Once
	return func() { once.Do(fn) }
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags]\n\nReceives pixel frames over UDP and renders them to an LED strip.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}
