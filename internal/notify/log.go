package notify

import (
	"context"

	"procurement-be/internal/logger"

	"go.uber.org/zap"
)

// LogDispatcher writes each event to the structured log.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, events ...Event) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "notify"))

	for _, e := range events {
		switch ev := e.(type) {
		case LowStockDetected:
			log.Warn("low stock detected",
				zap.String("product_id", ev.ProductID.String()),
				zap.String("product_name", ev.ProductName),
				zap.Int("available", ev.Available),
				zap.Int("threshold", ev.Threshold),
			)
		case StockAssigned:
			log.Info("stock assigned",
				zap.String("product_id", ev.ProductID.String()),
				zap.Int("quantity", ev.Quantity),
				zap.String("recipient_id", ev.RecipientID.String()),
			)
		case OrderUnderRevision:
			log.Info("order under revision",
				zap.String("order_id", ev.OrderID.String()),
				zap.String("owner_id", ev.OwnerID.String()),
				zap.String("comment", ev.Comment),
			)
		default:
			log.Info("event", zap.String("type", string(e.Type())))
		}
	}
}
