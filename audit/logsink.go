package audit

import "go.uber.org/zap"

type logSink struct {
	l *zap.Logger
}

// NewLogSink writes audit events to the service log. It is the default
// sink when no transport is configured.
func NewLogSink() Sink {
	return &logSink{l: log}
}

func (s *logSink) Publish(e *Event) error {
	s.l.Info("decision",
		zap.String("action", e.Action),
		zap.String("clientID", e.ClientID),
		zap.String("username", e.Username),
		zap.String("topic", e.Topic),
		zap.Bool("allowed", e.Allowed),
		zap.String("reason", e.Reason))
	return nil
}

func (s *logSink) Close() error {
	return nil
}
