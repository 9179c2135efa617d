package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/pixelnode/internal/clock"
	diag "github.com/coreman2200/pixelnode/internal/diagnostics"
	"github.com/coreman2200/pixelnode/internal/led"
	"github.com/coreman2200/pixelnode/internal/protocol"
	"github.com/coreman2200/pixelnode/internal/transport"
)

var (
	// ErrRestart is returned by Tick and Run after a reboot command.
	ErrRestart = errors.New("controller restart requested")
	// ErrConnectivityLost is returned when the health check fails.
	ErrConnectivityLost = errors.New("connectivity lost")
)

type Config struct {
	// Period is the frame period (1/fps).
	Period time.Duration
	// ControlInterval is how often the control channel and health check run.
	ControlInterval time.Duration
	// Grace is the pause between logging a reboot and performing it.
	Grace time.Duration
	// PollPause separates polls while a frame is being reassembled.
	PollPause time.Duration
	// TickPause separates scheduler ticks.
	TickPause time.Duration
	// MinFirstFragment rejects shorter first datagrams; 0 disables the check.
	MinFirstFragment int
	// ReportEvery logs the frame rate every N committed frames; 0 disables it.
	ReportEvery uint64
	Variant     protocol.Variant
}

// DefaultConfig returns the reference cadence for fps.
func DefaultConfig(fps int) Config {
	if fps <= 0 {
		fps = 30
	}
	return Config{
		Period:          time.Second / time.Duration(fps),
		ControlInterval: 50 * time.Millisecond,
		Grace:           50 * time.Millisecond,
		PollPause:       time.Millisecond,
		TickPause:       time.Millisecond,
		ReportEvery:     1000,
		Variant:         protocol.Split,
	}
}

// FrameDeadline bounds how long one frame may take to arrive.
func (c Config) FrameDeadline() time.Duration { return c.Period / 3 }

// Deps are the collaborators the scheduler drives.
type Deps struct {
	Frames transport.Source
	// Control is ignored on multiplexed variants.
	Control   transport.Source
	Sink      led.Sink
	Clock     clock.Clock
	Restarter Restarter
	// Health, when set, is checked every control interval; an error is fatal.
	Health    func() error
	Publisher diag.Publisher
	Stats     *Stats
	Log       zerolog.Logger
}

// Scheduler is the cooperative loop: it rate-limits control polls and frame
// receptions and renders each committed frame.
type Scheduler struct {
	cfg    Config
	state  *State
	recv   *Receiver
	ctrl   *Control
	sink   led.Sink
	clk    clock.Clock
	health func() error
	stats  *Stats
	pub    diag.Publisher
	log    zerolog.Logger

	frames     uint64
	lastReport time.Time
}

func New(cfg Config, state *State, d Deps) (*Scheduler, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("invalid frame period %s", cfg.Period)
	}
	if state == nil || state.Pixels == nil || state.Pixels.Size() == 0 {
		return nil, errors.New("empty pixel buffer")
	}
	if d.Frames == nil {
		return nil, errors.New("frame source is required")
	}
	if d.Sink == nil {
		return nil, errors.New("render sink is required")
	}
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Publisher == nil {
		d.Publisher = diag.Discard{}
	}
	if d.Stats == nil {
		d.Stats = NewStats(nil)
	}
	d.Stats.Brightness.Update(int64(state.Brightness))

	ctrlSrc := d.Control
	if cfg.Variant.Multiplexed {
		ctrlSrc = nil
	}
	ctrl := &Control{
		src:       ctrlSrc,
		variant:   cfg.Variant,
		state:     state,
		clk:       d.Clock,
		grace:     cfg.Grace,
		restarter: d.Restarter,
		stats:     d.Stats,
		pub:       d.Publisher,
		log:       d.Log.With().Str("component", "control").Logger(),
	}
	recv := &Receiver{
		src:      d.Frames,
		clk:      d.Clock,
		variant:  cfg.Variant,
		deadline: cfg.FrameDeadline(),
		pause:    cfg.PollPause,
		minFirst: cfg.MinFirstFragment,
		stage:    make([]byte, state.Pixels.Size()),
		stats:    d.Stats,
		pub:      d.Publisher,
		log:      d.Log.With().Str("component", "receiver").Logger(),
	}
	if cfg.Variant.Multiplexed {
		recv.dispatch = ctrl.Apply
	}
	return &Scheduler{
		cfg:    cfg,
		state:  state,
		recv:   recv,
		ctrl:   ctrl,
		sink:   d.Sink,
		clk:    d.Clock,
		health: d.Health,
		stats:  d.Stats,
		pub:    d.Publisher,
		log:    d.Log,
	}, nil
}

func (s *Scheduler) State() *State { return s.state }

// Tick runs one pass of the loop. It only returns an error when the process
// must restart.
func (s *Scheduler) Tick() error {
	st := s.state

	now := s.clk.Now()
	if now.Sub(st.LastControl) >= s.cfg.ControlInterval {
		st.LastControl = now
		if s.health != nil {
			if err := s.health(); err != nil {
				s.log.Error().Err(err).Msg("connectivity lost; restarting")
				s.pub.Publish(diag.Diagnostic{
					Time:     now,
					Severity: diag.Err,
					Code:     diag.CodeConnectivityLost,
					Summary:  "Connectivity lost",
					Detail:   err.Error(),
				})
				s.ctrl.restartNow("connectivity lost")
				return ErrConnectivityLost
			}
		}
		s.ctrl.PollOnce()
		if _, ok := st.Restarting(); ok {
			return ErrRestart
		}
	}

	now = s.clk.Now()
	if now.Sub(st.LastRender) < s.cfg.Period/2 || now.Sub(st.LastAttempt) < s.cfg.Period/10 {
		return nil
	}

	if s.recv.TryReceive(st.Pixels) == Committed {
		s.render()
		st.LastRender = s.clk.Now()
		s.frames++
		s.report(st.LastRender)
	}
	st.LastAttempt = s.clk.Now()

	// Multiplexed variants deliver reboot through the frame channel.
	if _, ok := st.Restarting(); ok {
		return ErrRestart
	}
	return nil
}

// Run renders the current buffer once, then ticks until ctx is done (nil) or
// a restart is required (ErrRestart, ErrConnectivityLost).
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Dur("period", s.cfg.Period).
		Dur("frame_deadline", s.cfg.FrameDeadline()).
		Int("bufsize", s.state.Pixels.Size()).
		Str("protocol", s.cfg.Variant.Name).
		Msg("Starting normal operation")
	s.lastReport = s.clk.Now()
	s.render()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
		s.clk.Sleep(s.cfg.TickPause)
	}
}

func (s *Scheduler) render() {
	px := s.state.Pixels.Bytes()
	b := s.state.Brightness
	if err := s.sink.Render(px, b); err != nil {
		s.stats.RenderErrors.Inc(1)
		s.log.Warn().Err(err).Msg("render failed")
		s.pub.Publish(diag.Diagnostic{
			Time:     s.clk.Now(),
			Severity: diag.Warn,
			Code:     diag.CodeRenderFailed,
			Summary:  "Render sink returned an error",
			Detail:   err.Error(),
		})
		return
	}
	s.pub.Frame(px, b)
}

func (s *Scheduler) report(now time.Time) {
	if s.cfg.ReportEvery == 0 || s.frames%s.cfg.ReportEvery != 0 {
		return
	}
	fps := 0.0
	if el := now.Sub(s.lastReport); el > 0 && !s.lastReport.IsZero() {
		fps = float64(s.cfg.ReportEvery) / el.Seconds()
	}
	s.lastReport = now
	s.log.Info().
		Uint64("frames", s.frames).
		Float64("fps", fps).
		Int64("dropped", s.stats.Dropped.Count()).
		Msg("frame report")
}
