package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// TracerName is the instrumentation scope of combination spans.
const TracerName = "github.com/ahrav/go-gambit/driver"

var _ ports.CombinationObserver = (*OTelCombinationObserver)(nil)

// OTelCombinationObserver wraps every combination in an OpenTelemetry span.
// The span lives in the context returned by PreRun, so one observer can
// serve concurrent workers.
type OTelCombinationObserver struct {
	tracer trace.Tracer
}

// NewOTelCombinationObserver creates an observer using tp, or the global
// tracer provider when tp is nil.
func NewOTelCombinationObserver(tp trace.TracerProvider) *OTelCombinationObserver {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &OTelCombinationObserver{tracer: tp.Tracer(TracerName)}
}

// PreRun starts the combination span and records the lineup.
func (o *OTelCombinationObserver) PreRun(
	ctx context.Context,
	seq int,
	combo domain.Combination,
	cfg domain.TournamentConfig,
) context.Context {
	ctx, _ = o.tracer.Start(ctx, "Driver.PlayCombination",
		trace.WithAttributes(
			attribute.Int("combination.seq", seq),
			attribute.StringSlice("combination.members", combo),
			attribute.Int("combination.size", combo.Size()),
			attribute.String("tournament.game", cfg.Game.String()),
			attribute.Int("tournament.iterations", cfg.Iterations),
			attribute.String("tournament.rounds", cfg.Rounds.String()),
		))
	return ctx
}

// PostRun ends the span started by PreRun, marking it failed if err is set.
func (o *OTelCombinationObserver) PostRun(
	ctx context.Context,
	_ int,
	_ domain.Combination,
	elapsed time.Duration,
	err error,
) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.Float64("combination.elapsed_seconds", elapsed.Seconds()))

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	var serr *domain.StrategyError
	if errors.As(err, &serr) {
		span.AddEvent("strategy.failed", trace.WithAttributes(
			attribute.String("strategy", serr.Name),
			attribute.Int("round", serr.Round),
		))
	}
	span.SetStatus(codes.Error, err.Error())
}
