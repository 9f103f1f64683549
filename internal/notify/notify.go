// Package notify carries user-facing notifications and navigation requests
// from the engine to whatever front-end hosts it.
package notify

import (
	"context"
	"log/slog"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Sink receives notifications. Delivery is fire-and-forget.
type Sink interface {
	Notify(kind Kind, message string)
}

// Navigator receives navigation requests.
type Navigator interface {
	NavigateHome()
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(kind Kind, message string)

func (f SinkFunc) Notify(kind Kind, message string) { f(kind, message) }

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateHome() { f() }

// LogSink writes notifications and navigation to a logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(kind Kind, message string) {
	level := slog.LevelInfo
	if kind == KindError {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "notification", "kind", string(kind), "message", message)
}

func (s *LogSink) NavigateHome() {
	s.logger.Info("navigate home")
}

// Tee fans notifications out to several sinks in order.
type Tee []Sink

func (t Tee) Notify(kind Kind, message string) {
	for _, s := range t {
		s.Notify(kind, message)
	}
}

// TeeNavigator fans navigation out to several navigators in order.
type TeeNavigator []Navigator

func (t TeeNavigator) NavigateHome() {
	for _, n := range t {
		n.NavigateHome()
	}
}
