//go:build !windows && !plan9

package logging

import (
	"io"
	"log/syslog"

	"github.com/rs/zerolog"
)

func dialSyslog(addr, app string) (zerolog.LevelWriter, io.Closer, error) {
	w, err := syslog.Dial("udp", addr, syslog.LOG_KERN|syslog.LOG_INFO, app)
	if err != nil {
		return nil, nil, err
	}
	return zerolog.SyslogLevelWriter(w), w, nil
}
