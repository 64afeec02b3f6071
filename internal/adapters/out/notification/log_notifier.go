package notification

import (
	"context"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the application log. It is used when
// mail delivery is disabled.
type LogNotifier struct {
	log *zap.SugaredLogger
}

func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log.With("component", "log_notifier")}
}

func (n *LogNotifier) NotifyAssignment(_ context.Context, orderID, distributorID kernel.UUID) error {
	n.log.Infow("distributor_notified", "order_id", orderID.String(), "distributor_id", distributorID.String())
	return nil
}

func (n *LogNotifier) NotifyStatus(_ context.Context, orderID kernel.UUID, status order.Status) error {
	n.log.Infow("customer_notified", "order_id", orderID.String(), "status", status.String())
	return nil
}
