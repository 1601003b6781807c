package instrument

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/beacon"
)

// NewLogger builds the logger trace lines are written to. A nil out
// defaults to stderr.
func NewLogger(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(lineLevel(cfg)).
		With().Timestamp().Str("component", "beacon").
		Logger()
}

// Trace returns a trace func that writes one line per record to logger.
// The record's operation becomes the message; object, event, target,
// method, and the fire correlation ID become fields. Records for events
// outside cfg.Events are dropped when the allowlist is set.
func Trace(logger zerolog.Logger, cfg Config) beacon.TraceFunc {
	level := lineLevel(cfg)
	var only map[string]struct{}
	if len(cfg.Events) > 0 {
		only = make(map[string]struct{}, len(cfg.Events))
		for _, e := range cfg.Events {
			only[e] = struct{}{}
		}
	}

	return func(r beacon.TraceRecord) {
		if only != nil {
			if _, ok := only[r.Event]; !ok {
				return
			}
		}
		var ev *zerolog.Event
		if r.Err != nil {
			ev = logger.Error().Err(r.Err)
		} else {
			ev = logger.WithLevel(level)
		}
		ev = ev.Str("object", string(r.Object)).Str("event", r.Event)
		if r.FireID != uuid.Nil {
			ev = ev.Str("fire_id", r.FireID.String())
		}
		if r.Target != "" {
			ev = ev.Str("target", string(r.Target))
		}
		if r.Method != "" {
			ev = ev.Str("method", r.Method)
		}
		ev.Int("args", r.Args).Msg(r.Op.String())
	}
}

// FromConfig builds the whole chain: a logger per cfg writing to out,
// wrapped by Trace. It returns nil when tracing is disabled, which a
// dispatcher treats as no tracer at all.
func FromConfig(cfg Config, out io.Writer) beacon.TraceFunc {
	if !cfg.Enabled {
		return nil
	}
	return Trace(NewLogger(cfg, out), cfg)
}

func lineLevel(cfg Config) zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return level
}
