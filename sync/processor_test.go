package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() ProcessorConfig {
	return ProcessorConfig{
		BatchSize:      10,
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
	}
}

type processorFixture struct {
	queue     *memQueue
	remote    *fakeRemote
	net       *fakeConnectivity
	processor *Processor
	clock     time.Time
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		queue:  newMemQueue(),
		remote: newFakeRemote(),
		net:    &fakeConnectivity{online: true},
		clock:  time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	f.processor = NewProcessor(f.queue, f.remote, f.net, events.NewBus(), testConfig())
	f.processor.now = func() time.Time { return f.clock }
	return f
}

func (f *processorFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *processorFixture) enqueuePayment(t *testing.T, id string) *models.SyncQueueItem {
	t.Helper()
	item, err := f.processor.Enqueue(context.Background(), models.CreatePaymentPayload{
		Payment: models.Payment{ID: id},
	})
	require.NoError(t, err)
	return item
}

func TestDrainFIFO(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()

	// Batch size 1 forces strictly sequential dispatch so the upload
	// order is observable.
	f.processor.cfg.BatchSize = 1
	for i := 1; i <= 3; i++ {
		f.enqueuePayment(t, fmt.Sprintf("p%d", i))
		f.advance(time.Millisecond)
	}

	synced, failed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, synced)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"payment:p1", "payment:p2", "payment:p3"}, f.remote.callLog())

	counts, err := f.processor.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.SyncStatusSynced])
	assert.Equal(t, 0, counts[models.SyncStatusPending])
}

func TestDrainOffline(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()
	f.net.online = false
	f.enqueuePayment(t, "p1")

	synced, failed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Zero(t, failed)
	assert.Empty(t, f.remote.callLog())
}

func TestDrainRetriesWithBackoff(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()
	f.remote.errs["payment"] = errors.New("server unavailable")
	item := f.enqueuePayment(t, "p1")

	_, failed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, failed)

	stored, err := f.queue.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "server unavailable")

	// Too soon: the 2s backoff for one failed attempt has not elapsed
	f.advance(time.Second)
	_, _, err = f.processor.Drain(ctx)
	require.NoError(t, err)
	stored, _ = f.queue.Get(ctx, item.ID)
	assert.Equal(t, 1, stored.RetryCount)

	// Past the backoff the item is retried again
	f.advance(2 * time.Second)
	_, _, err = f.processor.Drain(ctx)
	require.NoError(t, err)
	stored, _ = f.queue.Get(ctx, item.ID)
	assert.Equal(t, 2, stored.RetryCount)
}

func TestDrainMarksFailedAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()
	f.remote.errs["payment"] = errors.New("bad request")
	item := f.enqueuePayment(t, "p1")

	for i := 0; i < testConfig().MaxRetries; i++ {
		_, _, err := f.processor.ForceSync(ctx)
		require.NoError(t, err)
	}

	stored, err := f.queue.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, stored.Status)
	assert.Equal(t, testConfig().MaxRetries, stored.RetryCount)

	// FAILED items are out of the drain loop until reset
	_, _, err = f.processor.ForceSync(ctx)
	require.NoError(t, err)
	stored, _ = f.queue.Get(ctx, item.ID)
	assert.Equal(t, testConfig().MaxRetries, stored.RetryCount)

	failedItems, err := f.processor.FailedItems(ctx)
	require.NoError(t, err)
	require.Len(t, failedItems, 1)

	// RetryFailed hands them a fresh budget
	f.remote.errs = map[string]error{}
	n, err := f.processor.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	synced, _, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}

func TestForceSyncIgnoresBackoff(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()
	f.remote.errs["payment"] = errors.New("flaky")
	item := f.enqueuePayment(t, "p1")

	_, _, err := f.processor.Drain(ctx)
	require.NoError(t, err)

	// A regular drain right away does nothing
	_, _, err = f.processor.Drain(ctx)
	require.NoError(t, err)
	stored, _ := f.queue.Get(ctx, item.ID)
	assert.Equal(t, 1, stored.RetryCount)

	// ForceSync does not wait
	delete(f.remote.errs, "payment")
	synced, _, err := f.processor.ForceSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}

func TestDrainSingleFlight(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()
	f.enqueuePayment(t, "p1")

	f.processor.draining.Store(true)
	synced, failed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Zero(t, failed)
	assert.Empty(t, f.remote.callLog())

	f.processor.draining.Store(false)
	synced, _, err = f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}

func TestBackoffSchedule(t *testing.T) {
	f := newProcessorFixture()

	assert.Equal(t, 2*time.Second, f.processor.backoffFor(1))
	assert.Equal(t, 4*time.Second, f.processor.backoffFor(2))
	assert.Equal(t, 32*time.Second, f.processor.backoffFor(5))

	// Capped at the maximum, never beyond
	prev := time.Duration(0)
	for n := 1; n <= 20; n++ {
		delay := f.processor.backoffFor(n)
		assert.LessOrEqual(t, delay, 60*time.Second)
		assert.GreaterOrEqual(t, delay, prev)
		prev = delay
	}
	assert.Equal(t, 60*time.Second, f.processor.backoffFor(20))
}

func TestCompoundCreditDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("credit then each installment", func(t *testing.T) {
		f := newProcessorFixture()
		_, err := f.processor.Enqueue(ctx, models.CreateCreditPayload{
			Credit: models.Credit{ID: "cr1"},
			Installments: []models.Installment{
				{ID: "i1", Number: 1},
				{ID: "i2", Number: 2},
			},
		})
		require.NoError(t, err)

		synced, _, err := f.processor.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, synced)
		assert.Equal(t, []string{"credit:cr1", "installment:i1", "installment:i2"}, f.remote.callLog())
	})

	t.Run("installment failure retries the whole item", func(t *testing.T) {
		f := newProcessorFixture()
		f.remote.errs["installment"] = errors.New("timeout")
		item, err := f.processor.Enqueue(ctx, models.CreateCreditPayload{
			Credit:       models.Credit{ID: "cr1"},
			Installments: []models.Installment{{ID: "i1", Number: 1}},
		})
		require.NoError(t, err)

		_, _, err = f.processor.Drain(ctx)
		require.NoError(t, err)

		stored, _ := f.queue.Get(ctx, item.ID)
		assert.Equal(t, models.SyncStatusPending, stored.Status)
		assert.Equal(t, 1, stored.RetryCount)
		assert.Contains(t, stored.LastError, "installment 1 failed")
	})
}

func TestCleanupSynced(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture()

	f.enqueuePayment(t, "old")
	_, _, err := f.processor.Drain(ctx)
	require.NoError(t, err)

	f.advance(8 * 24 * time.Hour)
	f.enqueuePayment(t, "fresh")
	_, _, err = f.processor.Drain(ctx)
	require.NoError(t, err)

	removed, err := f.processor.CleanupSynced(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	counts, err := f.processor.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.SyncStatusSynced])
}
