package app

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/observability"
)

// UseCaseEvent captures lightweight execution telemetry for one service call.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver logs every use case; client rejections at warn,
// internal failures at error.
func NewLogUseCaseObserver(logger *slog.Logger) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{logger: logger}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"use_case", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		kind := core.ErrorKind(event.Err)
		attrs = append(attrs, "error", event.Err.Error(), "kind", kind)
		if kind == "internal" {
			o.logger.ErrorContext(ctx, "service_use_case", attrs...)
		} else {
			o.logger.WarnContext(ctx, "service_use_case", attrs...)
		}
		return
	}
	o.logger.InfoContext(ctx, "service_use_case", attrs...)
}

// observe reports a finished call to the observer and the latency histogram.
// Booking rejections are also counted by error kind.
func (s *appService) observe(ctx context.Context, name string, start time.Time, err error, fields map[string]any) {
	d := time.Since(start)
	observability.UseCaseDuration.WithLabelValues(name, strconv.FormatBool(err == nil)).Observe(d.Seconds())
	if err != nil && isBooking(name) {
		observability.BookingsRejected.WithLabelValues(name, core.ErrorKind(err)).Inc()
	}
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  d,
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}

func isBooking(name string) bool {
	switch name {
	case ucBookTime, ucBookMachine, ucConsumeMaterial, ucRecordManualCost:
		return true
	}
	return false
}

const (
	ucBookTime         = "book_time"
	ucBookMachine      = "book_machine"
	ucConsumeMaterial  = "consume_material"
	ucRecordManualCost = "record_manual_cost"
	ucControlling      = "project_controlling"
	ucReconcile        = "reconcile_project"
	ucInterpret        = "interpret_booking"
)
