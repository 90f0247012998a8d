package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UseCaseEvent captures lightweight execution telemetry for a service use case.
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

type zapUseCaseObserver struct {
	log *zap.Logger
}

// NewZapUseCaseObserver logs service use-case events through log.
func NewZapUseCaseObserver(log *zap.Logger) UseCaseObserver {
	if log == nil {
		return NoopUseCaseObserver{}
	}
	return &zapUseCaseObserver{log: log.Named("usecase")}
}

func (o *zapUseCaseObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	fields := make([]zap.Field, 0, 4+len(event.Fields))
	fields = append(fields,
		zap.String("use_case", event.Name),
		zap.Duration("duration", event.Duration),
		zap.Bool("success", event.Success),
	)
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	if event.Err != nil {
		o.log.Warn("service_use_case", append(fields, zap.Error(event.Err))...)
		return
	}
	o.log.Info("service_use_case", fields...)
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopUseCaseObserver{}
}

// observe reports one use case that started at start.
func observe(ctx context.Context, obs UseCaseObserver, name string, start time.Time, err error, fields map[string]any) {
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}
