package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TraceGorm registers otelgorm on db, so each export-history statement
// becomes a child span of the export that issued it. Bound variables are
// kept out of the recorded SQL. A nil tp means the global provider.
func TraceGorm(db *gorm.DB, tp trace.TracerProvider, dbName string, logger *zap.Logger) error {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	plugin := otelgorm.NewPlugin(
		otelgorm.WithTracerProvider(tp),
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}
	if logger != nil {
		logger.Debug("database tracing enabled", zap.String("db", dbName))
	}
	return nil
}
