package cli

import (
	"io"
	"log/slog"
)

// Options holds the persistent flags shared by every command.
type Options struct {
	LogLevel  string
	LogFormat string
	Journal   string
	JSON      bool
}

func (o *Options) logger(w io.Writer) (*slog.Logger, error) {
	return NewLogger(w, o.LogLevel, o.LogFormat)
}

func (o *Options) output(w, errW io.Writer) *Output {
	return NewOutput(o.JSON, w, errW)
}
