// Package output defines display updates and the sinks that receive them.
package output

import (
	"context"
	stderrors "errors"
	"log/slog"
)

// DisplayUpdate is one line of text to show.
type DisplayUpdate struct {
	Text       string `json:"text"`
	Language   string `json:"language"`
	Normalized bool   `json:"normalized"`
	Final      bool   `json:"final"`
}

// Output is a fire-and-forget display sink.
type Output interface {
	SetTyping(ctx context.Context, typing bool) error
	Display(ctx context.Context, u DisplayUpdate) error
}

// Fanout sends every update to each output in order. A failing output does
// not stop the others.
type Fanout []Output

func (f Fanout) SetTyping(ctx context.Context, typing bool) error {
	var errs []error
	for _, o := range f {
		if err := o.SetTyping(ctx, typing); err != nil {
			slog.Debug("typing indicator failed", "output", name(o), "error", err)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (f Fanout) Display(ctx context.Context, u DisplayUpdate) error {
	var errs []error
	for _, o := range f {
		if err := o.Display(ctx, u); err != nil {
			slog.Warn("display failed", "output", name(o), "error", err)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Named outputs report a label for logs.
type Named interface {
	Name() string
}

func name(o Output) string {
	if n, ok := o.(Named); ok {
		return n.Name()
	}
	return "output"
}
