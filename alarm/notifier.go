package alarm

import (
	"context"

	"firealarm/model"
)

// Notifier observes committed alarm changes. Implementations must not block.
type Notifier interface {
	AlarmRaised(ctx context.Context, rec model.AlarmRecord)
	AlarmAcknowledged(ctx context.Context, rec model.AlarmRecord)
}

type Notifiers []Notifier

func (ns Notifiers) AlarmRaised(ctx context.Context, rec model.AlarmRecord) {
	for _, n := range ns {
		n.AlarmRaised(ctx, rec)
	}
}

func (ns Notifiers) AlarmAcknowledged(ctx context.Context, rec model.AlarmRecord) {
	for _, n := range ns {
		n.AlarmAcknowledged(ctx, rec)
	}
}
