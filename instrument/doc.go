// Package instrument turns dispatch traces into structured logs.
//
// A dispatcher built with beacon.WithTrace emits one TraceRecord per
// operation; instrument renders each record as one zerolog line, with
// the fire's correlation ID carried on every line that belongs to it.
// Configuration loads from BEACON_TRACE_* environment variables:
//
//	BEACON_TRACE         enable tracing (boolean)
//	BEACON_TRACE_LEVEL   level trace lines are written at
//	BEACON_TRACE_FORMAT  json or console
//	BEACON_TRACE_EVENTS  comma-separated event allowlist
//
// The usual wiring is one call:
//
//	cfg, err := instrument.FromEnv()
//	if err != nil {
//		return err
//	}
//	d := beacon.NewDispatcher(beacon.WithTrace(instrument.FromConfig(cfg, nil)))
package instrument
