package manager

import "github.com/rs/zerolog"

// LogPublisher writes lifecycle events to a zerolog logger at debug level,
// errors at warn.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher returns a publisher logging through l.
func NewLogPublisher(l zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: l.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(e Event) {
	ev := p.log.Debug()
	if _, failed := e.Fields["error"]; failed {
		ev = p.log.Warn()
	}
	if e.ModelID != "" {
		ev = ev.Str("algorithm", e.ModelID)
	}
	ev.Fields(e.Fields).Msg(e.Name)
}
