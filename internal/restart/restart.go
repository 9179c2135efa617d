package restart

import (
	"os"

	"github.com/rs/zerolog"
)

// Exec restarts the node by replacing the process image with Path, which
// also picks up a freshly installed update.
type Exec struct {
	Path string
	Args []string
	Env  []string
	Log  zerolog.Logger
	// Before runs ahead of the exec, e.g. to release sockets and the strip.
	Before func()
}

// Self re-executes the current binary with the current arguments.
func Self(log zerolog.Logger, before func()) (*Exec, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &Exec{Path: path, Args: os.Args, Env: os.Environ(), Log: log, Before: before}, nil
}

// Restart does not return on success.
func (e *Exec) Restart(reason string) error {
	e.Log.Warn().Str("reason", reason).Str("path", e.Path).Msg("restarting")
	if e.Before != nil {
		e.Before()
	}
	return execve(e.Path, e.Args, e.Env)
}
