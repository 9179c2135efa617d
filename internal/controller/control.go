package controller

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/pixelnode/internal/clock"
	diag "github.com/coreman2200/pixelnode/internal/diagnostics"
	"github.com/coreman2200/pixelnode/internal/protocol"
	"github.com/coreman2200/pixelnode/internal/transport"
)

// Restarter replaces the running process. Production implementations do not
// return on success.
type Restarter interface {
	Restart(reason string) error
}

// Control applies commands from the control channel to the shared state.
type Control struct {
	src       transport.Source
	variant   protocol.Variant
	state     *State
	clk       clock.Clock
	grace     time.Duration
	restarter Restarter
	stats     *Stats
	pub       diag.Publisher
	log       zerolog.Logger
}

// PollOnce handles at most one pending command. It is a no-op when commands
// share the frame channel.
func (c *Control) PollOnce() {
	if c.src == nil {
		return
	}
	pkt, ok := c.src.Poll()
	if !ok || len(pkt) == 0 {
		return
	}
	c.Apply(pkt[0], pkt[1:])
}

// Apply executes one command. Unknown codes and commands missing their
// argument are ignored.
func (c *Control) Apply(code byte, args []byte) {
	c.stats.Commands.Inc(1)
	switch code {
	case c.variant.Reboot:
		c.reboot("reboot command")
	case c.variant.Brightness:
		if len(args) < 1 {
			c.log.Debug().Msg("brightness command without argument ignored")
			return
		}
		c.state.Brightness = args[0]
		c.stats.Brightness.Update(int64(args[0]))
		c.log.Info().Uint8("brightness", args[0]).Msg("brightness")
		c.pub.Publish(diag.Diagnostic{
			Time:     c.clk.Now(),
			Severity: diag.Info,
			Code:     diag.CodeBrightness,
			Summary:  "Brightness changed",
			Evidence: map[string]any{"brightness": args[0]},
		})
	default:
		c.stats.Unknown.Inc(1)
		c.log.Debug().Uint8("code", code).Msg("unknown command ignored")
		c.pub.Publish(diag.Diagnostic{
			Time:     c.clk.Now(),
			Severity: diag.Warn,
			Code:     diag.CodeUnknownCommand,
			Summary:  "Unknown control command ignored",
			Evidence: map[string]any{"code": code, "len": len(args)},
			LikelyCauses: []string{
				"sender speaks a different protocol variant",
				"stray traffic on the control port",
			},
		})
	}
}

// reboot flushes the log for the grace period before restarting.
func (c *Control) reboot(reason string) {
	c.log.WithLevel(zerolog.FatalLevel).Str("reason", reason).Msg("Reboot controller")
	c.pub.Publish(diag.Diagnostic{
		Time:     c.clk.Now(),
		Severity: diag.Err,
		Code:     diag.CodeReboot,
		Summary:  "Reboot requested",
		Detail:   reason,
	})
	c.clk.Sleep(c.grace)
	c.restartNow(reason)
}

func (c *Control) restartNow(reason string) {
	c.state.restartReason = reason
	if c.restarter == nil {
		return
	}
	if err := c.restarter.Restart(reason); err != nil {
		c.log.Error().Err(err).Msg("restart failed")
	}
}
