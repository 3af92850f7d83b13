package hxstore

import (
	"log/slog"
	"time"
)

// Transition describes one dispatch as seen by observers.
//
// For a failed dispatch Err is set and Next equals Prev.
type Transition struct {
	ID       string
	At       time.Time
	Duration time.Duration
	Prev     State
	Action   Action
	Next     State
	Err      error
}

// Observer is notified after every dispatch, in dispatch order.
//
// Observers run while the store holds its dispatch lock: they must return
// quickly and must not call Dispatch (reading State is fine).
type Observer interface {
	Observe(t Transition)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(t Transition)

// Observe calls f(t).
func (f ObserverFunc) Observe(t Transition) {
	f(t)
}

type observers []Observer

func (os observers) Observe(t Transition) {
	for _, o := range os {
		o.Observe(t)
	}
}

// LogObserver writes the dispatch trace to logger: one record announcing
// the action and its time, then the previous state, the action, and the
// next state. A failed dispatch is logged as a single error record.
func LogObserver(logger *slog.Logger) Observer {
	return ObserverFunc(func(t Transition) {
		typ := t.Action.Type()
		if t.Err != nil {
			logger.Error("dispatch failed",
				"id", t.ID,
				"type", typ,
				"payload", t.Action.Payload,
				"error", t.Err,
			)
			return
		}

		logger.Info("action "+typ, "id", t.ID, "at", t.At)
		logger.Info("prev state", "id", t.ID, "state", map[string]any(t.Prev))
		logger.Info("action",
			"id", t.ID,
			slog.Group("type", "model", t.Action.Domain, "action", t.Action.Name),
			"payload", t.Action.Payload,
		)
		logger.Info("next state", "id", t.ID, "state", map[string]any(t.Next))
	})
}
