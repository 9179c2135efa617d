package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level string
	// Syslog is a host:port UDP collector; empty logs to the console only.
	Syslog string
	App    string
	// Out defaults to stdout.
	Out io.Writer
	// NoColor disables ANSI colors on the console writer.
	NoColor bool
}

// New builds the process logger: a human console writer and, when
// configured, a remote syslog sink. The returned closer releases the sink.
func New(o Options) (zerolog.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if o.Level != "" {
		l, err := zerolog.ParseLevel(o.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
		}
		lvl = l
	}
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: o.NoColor}

	var w io.Writer = console
	var closer io.Closer = nopCloser{}
	if o.Syslog != "" {
		sw, c, err := dialSyslog(o.Syslog, o.App)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("syslog %s: %w", o.Syslog, err)
		}
		w = zerolog.MultiLevelWriter(console, sw)
		closer = c
	}

	ctx := zerolog.New(w).Level(lvl).With().Timestamp()
	if o.App != "" {
		ctx = ctx.Str("app", o.App)
	}
	return ctx.Logger(), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
