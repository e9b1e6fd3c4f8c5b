package realtime

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
)

// EventFor maps a store change to the event that invalidates the affected
// views. ok is false for collections no view depends on.
func EventFor(ch docstore.Change) (Event, bool) {
	switch ch.Collection {
	case docstore.CollectionAssignments:
		return Event{Kind: KindAssignment, Month: MonthOf(ch.Date), Date: ch.Date}, true
	case docstore.CollectionShiftTypes, docstore.CollectionVehicles:
		return Event{Kind: KindCatalog}, true
	case docstore.CollectionUsers:
		return Event{Kind: KindPersonnel}, true
	case docstore.CollectionDuty:
		return Event{Kind: KindDuty, Month: DutyTopic}, true
	default:
		return Event{}, false
	}
}

// Relay forwards changes observed on the store, including writes made by
// other clients, to the broker until ctx is done. Events for writes this
// process already published arrive twice; subscribers coalesce them.
func Relay(ctx context.Context, w docstore.Watcher, b Broker, log *logrus.Logger) error {
	return w.Watch(ctx, func(ch docstore.Change) {
		ev, ok := EventFor(ch)
		if !ok {
			return
		}
		if err := b.Publish(ctx, ev); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("collection", ch.Collection).Warn("relay publish failed")
		}
	})
}
