package completions

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-chat/core/llms/completions"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	firstTokenLatency, _ = meter.Float64Histogram("completions.first_token_latency",
		metric.WithDescription("Time from sending a prompt to receiving the first content chunk"),
		metric.WithUnit("s"),
	)
)
