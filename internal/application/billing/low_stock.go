package billing

import (
	"context"

	"go.uber.org/zap"
)

// LowStockNotifier is the boundary to the notification collaborator.
// It is invoked after a bill has committed; failures are logged by the
// caller and never affect the committed bill.
type LowStockNotifier interface {
	// NotifyLowStock reports products at or below the threshold
	NotifyLowStock(ctx context.Context, report LowStockReport) error
}

// LoggingLowStockNotifier logs low-stock reports instead of delivering them.
// Useful for development and as the default when no channel is configured.
type LoggingLowStockNotifier struct {
	logger *zap.Logger
}

// NewLoggingLowStockNotifier creates a logging notifier
func NewLoggingLowStockNotifier(logger *zap.Logger) *LoggingLowStockNotifier {
	return &LoggingLowStockNotifier{logger: logger}
}

// NotifyLowStock logs the report
func (n *LoggingLowStockNotifier) NotifyLowStock(_ context.Context, report LowStockReport) error {
	for _, product := range report.Products {
		n.logger.Warn("LOW STOCK",
			zap.String("product_id", product.ProductID.String()),
			zap.String("name", product.Name),
			zap.Int("stock", product.Stock),
			zap.Int("threshold", report.Threshold),
		)
	}
	return nil
}

// Ensure LoggingLowStockNotifier implements LowStockNotifier
var _ LowStockNotifier = (*LoggingLowStockNotifier)(nil)
