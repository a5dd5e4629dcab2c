package notify

import (
	"context"
	"fmt"

	"github.com/archify/backend/core"
)

// DeliveryLog persists delivery outcomes.
type DeliveryLog interface {
	RecordDelivery(ctx context.Context, outcome Outcome) error
}

// LogHook records every outcome into `dl`. Recording errors are logged and dropped.
func LogHook(dl DeliveryLog, logger core.Logger) Hook {
	return func(ctx context.Context, outcome Outcome) {
		if err := dl.RecordDelivery(ctx, outcome); err != nil {
			logger.Error(fmt.Sprintf("recording email delivery: %v", err), err)
		}
	}
}
