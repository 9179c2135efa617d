package netjoin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// PollInterval is how often Wait rechecks the link.
const PollInterval = 500 * time.Millisecond

var ErrNoAddress = errors.New("interface has no unicast address")

// Check reports nil once the node can reach the network.
type Check func() error

// Interface returns a Check that passes when the named interface is up and
// carries a global unicast or loopback address. An empty name always
// passes.
func Interface(name string) Check {
	if name == "" {
		return func() error { return nil }
	}
	return func() error {
		ifi, err := net.InterfaceByName(name)
		if err != nil {
			return err
		}
		if ifi.Flags&net.FlagUp == 0 {
			return fmt.Errorf("%s is down", name)
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			return err
		}
		for _, a := range addrs {
			ipn, ok := a.(*net.IPNet)
			if ok && (ipn.IP.IsGlobalUnicast() || ipn.IP.IsLoopback()) {
				return nil
			}
		}
		return fmt.Errorf("%s: %w", name, ErrNoAddress)
	}
}

// Wait polls check every interval until it passes or ctx ends.
func Wait(ctx context.Context, check Check, every time.Duration, log zerolog.Logger) error {
	if every <= 0 {
		every = PollInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()
	attempts := 0
	for {
		err := check()
		if err == nil {
			log.Info().Int("attempts", attempts+1).Msg("network joined")
			return nil
		}
		attempts++
		if attempts == 1 {
			log.Info().Err(err).Msg("waiting for network")
		} else {
			log.Debug().Err(err).Int("attempts", attempts).Msg("still waiting for network")
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("network join: %w (last: %v)", ctx.Err(), err)
		case <-t.C:
		}
	}
}
