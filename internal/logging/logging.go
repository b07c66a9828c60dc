// Package logging builds the go-kit loggers used across spm.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Output formats accepted by New.
const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// New returns a leveled logger writing to w. levelName is one of debug,
// info, warn, error or none; format is logfmt or json.
func New(w io.Writer, levelName, format string) (log.Logger, error) {
	var logger log.Logger
	switch strings.ToLower(format) {
	case "", FormatLogfmt:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case FormatJSON:
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q (want logfmt or json)", format)
	}

	opt, err := levelOption(levelName)
	if err != nil {
		return nil, err
	}
	logger = level.NewFilter(logger, opt)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}

func levelOption(name string) (level.Option, error) {
	switch strings.ToLower(name) {
	case "none":
		return level.AllowNone(), nil
	case "":
		return level.AllowInfo(), nil
	}
	v, err := level.Parse(strings.ToLower(name))
	if err != nil {
		return nil, fmt.Errorf("unknown log level %q (want debug, info, warn, error or none)", name)
	}
	return level.Allow(v), nil
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return logger
}
