package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Sink is the delivery boundary for patient notifications. Implementations
// report success or failure back to the caller; the caller owns retries and
// ledger bookkeeping.
type Sink interface {
	Send(ctx context.Context, patientID uuid.UUID, title, body string, metadata map[string]string) error
}

// LogSink is the shipping implementation, standing in for a push-notification
// provider. It records the dispatch and always succeeds.
type LogSink struct {
	log *logrus.Logger
}

func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(ctx context.Context, patientID uuid.UUID, title, body string, metadata map[string]string) error {
	s.log.WithFields(logrus.Fields{
		"patient_id": patientID,
		"title":      title,
		"metadata":   metadata,
	}).Info("Notification dispatched")
	return nil
}
