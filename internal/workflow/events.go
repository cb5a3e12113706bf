package workflow

import (
	"context"
	"errors"
	"time"
)

type EventKind string

const (
	EventStart   EventKind = "start"
	EventStep    EventKind = "step"
	EventMessage EventKind = "message"
	EventStall   EventKind = "stall"
	EventResult  EventKind = "result"
)

// Event is one observable fact of a session.
type Event struct {
	SessionID string
	Round     int
	Kind      EventKind
	Step      string
	Speaker   string
	Content   string
	Time      time.Time
}

// Recorder observes session events. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

type RecorderFunc func(ctx context.Context, event Event) error

func (f RecorderFunc) Record(ctx context.Context, event Event) error { return f(ctx, event) }

// Recorders fans an event out to several recorders.
type Recorders []Recorder

func (r Recorders) Record(ctx context.Context, event Event) error {
	var recordErrs []error
	for _, recorder := range r {
		if recorder == nil {
			continue
		}
		if err := recorder.Record(ctx, event); err != nil {
			recordErrs = append(recordErrs, err)
		}
	}
	return errors.Join(recordErrs...)
}
