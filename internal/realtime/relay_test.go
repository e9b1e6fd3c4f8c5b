package realtime

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/docstore/memstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

func TestEventFor(t *testing.T) {
	ev, ok := EventFor(docstore.Change{Collection: docstore.CollectionAssignments, Date: "2025-03-04"})
	require.True(t, ok)
	assert.Equal(t, Event{Kind: KindAssignment, Month: "2025-03", Date: "2025-03-04"}, ev)

	ev, ok = EventFor(docstore.Change{Collection: docstore.CollectionVehicles})
	require.True(t, ok)
	assert.Equal(t, KindCatalog, ev.Kind)

	ev, ok = EventFor(docstore.Change{Collection: docstore.CollectionUsers})
	require.True(t, ok)
	assert.Equal(t, KindPersonnel, ev.Kind)

	ev, ok = EventFor(docstore.Change{Collection: docstore.CollectionDuty})
	require.True(t, ok)
	assert.Equal(t, Event{Kind: KindDuty, Month: DutyTopic}, ev)

	_, ok = EventFor(docstore.Change{Collection: "other"})
	assert.False(t, ok)
}

func TestRelay_ForwardsStoreWrites(t *testing.T) {
	store := memstore.New()
	broker := NewLocalBroker()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	march, stop, err := broker.Subscribe(ctx, "2025-03")
	require.NoError(t, err)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- Relay(ctx, store, broker, log) }()

	// the watcher registers asynchronously; write until an event shows up
	require.Eventually(t, func() bool {
		if _, _, err := store.UpsertAssignment(ctx, docstore.AssignmentWrite{UID: "u1", Date: "2025-03-04", ShiftTypeID: "early", Source: domain.SourceManual}); err != nil {
			return false
		}
		select {
		case ev := <-march:
			return ev.Kind == KindAssignment && ev.Date == "2025-03-04"
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
