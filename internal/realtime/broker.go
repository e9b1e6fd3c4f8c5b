package realtime

import (
	"context"
	"time"
)

// Event kinds.
const (
	KindAssignment = "assignment"
	KindCatalog    = "catalog"
	KindPersonnel  = "personnel"
	KindDuty       = "duty"
)

// DutyTopic is the subscription key of the duty and vacation list.
const DutyTopic = "duty"

// Event announces a change that invalidates rendered month views. Month is
// "YYYY-MM" for assignment events, DutyTopic for duty entries and empty for
// changes affecting every month.
type Event struct {
	Kind  string    `json:"kind"`
	Month string    `json:"month,omitempty"`
	UID   string    `json:"uid,omitempty"`
	Date  string    `json:"date,omitempty"`
	Actor string    `json:"actor,omitempty"`
	At    time.Time `json:"at"`
}

// Broker fans change events out to live month subscriptions.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events for month plus every month-less event. The
	// channel closes when ctx is done or the returned cancel func is called.
	Subscribe(ctx context.Context, month string) (<-chan Event, func(), error)
}

// MonthOf returns the "YYYY-MM" prefix of an ISO date.
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

const subscriberBuffer = 16

// offer hands ev to a subscriber without blocking. A full buffer already
// guarantees a pending rebuild, so the event can be dropped.
func offer(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}
