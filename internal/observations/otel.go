package observations

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/skywatch-bcn/planeview/internal/observations"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
