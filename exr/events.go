package exr

import "github.com/rs/zerolog"

// Phase identifies which stage of the pipeline raised an Event.
type Phase string

const (
	PhaseParse  Phase = "parse"
	PhaseDecode Phase = "decode"
)

// Level is an Event's severity, matching zerolog's levels one-to-one.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is a single structured notification raised during parse or
// decode. The driver emits events in decode order on the goroutine that
// produced them; a consumer must not assume synchronous delivery across
// threads when the producer is a prefetch worker.
type Event struct {
	Phase   Phase
	Level   Level
	Code    string
	Message string
	Metrics map[string]any
}

// EventSink receives events as they are produced. Implementations must
// not block the caller for long; the driver calls Notify synchronously.
type EventSink interface {
	Notify(Event)
}

// zerologSink adapts EventSink to the package's structured logger, used
// whenever the caller does not install its own sink.
type zerologSink struct {
	log zerolog.Logger
}

func (s zerologSink) Notify(e Event) {
	var evt *zerolog.Event
	switch e.Level {
	case LevelWarn:
		evt = s.log.Warn()
	case LevelError:
		evt = s.log.Error()
	default:
		evt = s.log.Info()
	}
	evt = evt.Str("phase", string(e.Phase)).Str("code", e.Code)
	for k, v := range e.Metrics {
		evt = evt.Interface(k, v)
	}
	evt.Msg(e.Message)
}

// defaultLogger is the package-wide zerolog logger used by
// NewZerologSink when the caller has not configured one of their own.
var defaultLogger = zerolog.Nop()

// SetLogger installs the logger used by NewZerologSink's default
// instance. Embedders that already configure zerolog process-wide
// should call this once at startup.
func SetLogger(l zerolog.Logger) {
	defaultLogger = l
}

// NewZerologSink returns an EventSink that logs every event through the
// package's configured zerolog.Logger (see SetLogger).
func NewZerologSink() EventSink {
	return zerologSink{log: defaultLogger}
}

// multiSink fans one event out to several sinks, in order.
type multiSink []EventSink

func (m multiSink) Notify(e Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(e)
		}
	}
}

// emit delivers e to sink if non-nil; a nil sink means "no one is
// listening", which is the common case outside of debugging/telemetry.
func emit(sink EventSink, e Event) {
	if sink != nil {
		sink.Notify(e)
	}
}
