package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testClient(id, tenantID string) *models.Client {
	return &models.Client{
		ID:           id,
		TenantID:     tenantID,
		RouteID:      "r1",
		Name:         "Ana Torres",
		Document:     "900123",
		TotalBalance: decimal.Zero,
		Status:       models.ClientStatusNoCredits,
		RiskScore:    models.RiskScoreRegular,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    "collector-1",
	}
}

func TestClientRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewClientRepository(db)

	t.Run("get returns nil for unknown id", func(t *testing.T) {
		client, err := repo.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("create and read back", func(t *testing.T) {
		lat := 4.60971
		client := testClient("cl1", "t1")
		client.Latitude = &lat

		require.NoError(t, repo.Create(ctx, client))

		got, err := repo.Get(ctx, "cl1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ana Torres", got.Name)
		require.NotNil(t, got.Latitude)
		assert.InDelta(t, lat, *got.Latitude, 1e-9)
		assert.Nil(t, got.Longitude)
		assert.Equal(t, models.ClientStatusNoCredits, got.Status)
	})

	t.Run("upsert overwrites by primary key", func(t *testing.T) {
		client := testClient("cl1", "t1")
		client.Name = "Ana Torres de Ruiz"
		require.NoError(t, repo.Upsert(ctx, client))

		got, err := repo.Get(ctx, "cl1")
		require.NoError(t, err)
		assert.Equal(t, "Ana Torres de Ruiz", got.Name)
	})

	t.Run("update derived fields", func(t *testing.T) {
		at := time.Now().UTC()
		derived := models.DerivedClient{
			ActiveCredits:  2,
			TotalBalance:   d(350000),
			MaxOverdueDays: 4,
			Status:         models.ClientStatusOverdue,
			RiskScore:      models.RiskScoreRisky,
		}
		require.NoError(t, repo.UpdateDerived(ctx, "cl1", derived, at))

		got, err := repo.Get(ctx, "cl1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.ActiveCredits)
		assert.True(t, got.TotalBalance.Equal(d(350000)))
		assert.Equal(t, models.ClientStatusOverdue, got.Status)
		assert.Equal(t, models.RiskScoreRisky, got.RiskScore)
	})

	t.Run("update derived on unknown id errors", func(t *testing.T) {
		err := repo.UpdateDerived(ctx, "missing", models.DerivedClient{TotalBalance: decimal.Zero}, time.Now())
		require.Error(t, err)
	})

	t.Run("list by tenant, empty tenant lists all", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testClient("cl2", "t2")))

		onlyT1, err := repo.ListByTenant(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, onlyT1, 1)

		all, err := repo.ListByTenant(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func testInstallment(id, tenantID string, number int, scheduled time.Time) *models.Installment {
	return &models.Installment{
		ID:                 id,
		TenantID:           tenantID,
		CreditID:           "cr1",
		ClientID:           "cl1",
		Number:             number,
		ScheduledDate:      scheduled,
		ScheduledAmount:    d(5000),
		AmountPaid:         decimal.Zero,
		OutstandingBalance: d(5000),
		State:              models.InstallmentStatePending,
		CreatedAt:          time.Now().UTC(),
	}
}

func TestInstallmentRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewInstallmentRepository(db)

	installments := []*models.Installment{
		testInstallment("i1", "t1", 1, day("2025-03-01")),
		testInstallment("i2", "t1", 2, day("2025-03-02")),
		testInstallment("i3", "t1", 3, day("2025-03-03")),
	}
	require.NoError(t, repo.BulkCreate(ctx, installments))

	t.Run("list by credit ordered by number", func(t *testing.T) {
		got, err := repo.ListByCredit(ctx, "cr1")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 1, got[0].Number)
		assert.Equal(t, 3, got[2].Number)
		assert.True(t, got[0].ScheduledAmount.Equal(d(5000)))
		assert.Equal(t, day("2025-03-01"), got[0].ScheduledDate)
	})

	t.Run("due on or before cuts at the date", func(t *testing.T) {
		got, err := repo.ListDueOnOrBefore(ctx, "t1", day("2025-03-02"))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("scheduled on matches exactly", func(t *testing.T) {
		got, err := repo.ListScheduledOn(ctx, "t1", day("2025-03-02"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "i2", got[0].ID)
	})

	t.Run("update derived round trip", func(t *testing.T) {
		derived := models.DerivedInstallment{
			AmountPaid:         d(2000),
			OutstandingBalance: d(3000),
			State:              models.InstallmentStatePartial,
			OverdueDays:        3,
		}
		require.NoError(t, repo.UpdateDerived(ctx, "i1", derived, time.Now().UTC()))

		got, err := repo.Get(ctx, "i1")
		require.NoError(t, err)
		assert.True(t, got.AmountPaid.Equal(d(2000)))
		assert.Equal(t, models.InstallmentStatePartial, got.State)
		assert.Equal(t, 3, got.OverdueDays)
		assert.False(t, got.LastRecalculated.IsZero())
	})
}

func TestPaymentRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPaymentRepository(db)

	payment := &models.Payment{
		ID:            "p1",
		TenantID:      "t1",
		CreditID:      "cr1",
		InstallmentID: "i1",
		ClientID:      "cl1",
		CollectorID:   "collector-1",
		Amount:        d(5000),
		Date:          day("2025-03-01"),
		Notes:         "abono completo",
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "collector-1",
	}
	require.NoError(t, repo.Create(ctx, payment))

	t.Run("list by collector and day", func(t *testing.T) {
		got, err := repo.ListByCollectorOn(ctx, "t1", "collector-1", day("2025-03-01"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Amount.Equal(d(5000)))
		assert.Equal(t, "abono completo", got[0].Notes)

		none, err := repo.ListByCollectorOn(ctx, "t1", "collector-1", day("2025-03-02"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("upsert does not duplicate", func(t *testing.T) {
		payment.Amount = d(6000)
		require.NoError(t, repo.Upsert(ctx, payment))

		got, err := repo.ListByInstallment(ctx, "i1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Amount.Equal(d(6000)))
	})
}

func TestCashClosingRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCashClosingRepository(db)

	closing := &models.CashClosing{
		ID:          "close1",
		TenantID:    "t1",
		CollectorID: "collector-1",
		Date:        day("2025-03-01"),

		BaseAmount:     d(100000),
		CollectedTotal: d(150000),
		DisbursedTotal: d(50000),
		CashInTotal:    d(50000),
		CashOutTotal:   d(20000),
		ClosingTotal:   d(230000),

		InstallmentsSettled: 12,
		InstallmentsDue:     15,
		ClientsVisited:      10,
		CreatedAt:           time.Now().UTC(),
	}

	t.Run("day is open before any closing exists", func(t *testing.T) {
		got, err := repo.GetByDay(ctx, "t1", "collector-1", day("2025-03-01"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("create then read back by day", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, closing))

		got, err := repo.GetByDay(ctx, "t1", "collector-1", day("2025-03-01"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.ClosingTotal.Equal(d(230000)))
		assert.Equal(t, 12, got.InstallmentsSettled)
	})

	t.Run("second closing for the same day is rejected", func(t *testing.T) {
		duplicate := *closing
		duplicate.ID = "close2"
		require.Error(t, repo.Create(ctx, &duplicate))
	})

	t.Run("delete reopens the day", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "close1"))

		got, err := repo.GetByDay(ctx, "t1", "collector-1", day("2025-03-01"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSyncQueueRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSyncQueueRepository(db)

	enqueue := func(t *testing.T, paymentID string, at time.Time) *models.SyncQueueItem {
		t.Helper()
		item := &models.SyncQueueItem{
			Operation:  models.OpCreatePayment,
			Payload:    models.CreatePaymentPayload{Payment: models.Payment{ID: paymentID, Amount: d(5000), TenantID: "t1"}},
			EnqueuedAt: at,
			Status:     models.SyncStatusPending,
		}
		require.NoError(t, repo.Append(ctx, item))
		require.NotZero(t, item.ID)
		return item
	}

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	first := enqueue(t, "p1", base)
	second := enqueue(t, "p2", base.Add(time.Second))
	third := enqueue(t, "p3", base.Add(2*time.Second))

	t.Run("pending list is FIFO and payloads decode", func(t *testing.T) {
		pending, err := repo.ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		assert.Equal(t, first.ID, pending[0].ID)
		assert.Equal(t, third.ID, pending[2].ID)

		payload, ok := pending[0].Payload.(models.CreatePaymentPayload)
		require.True(t, ok)
		assert.Equal(t, "p1", payload.Payment.ID)
		assert.True(t, payload.Payment.Amount.Equal(d(5000)))
	})

	t.Run("retry bookkeeping", func(t *testing.T) {
		attemptAt := base.Add(time.Minute)
		require.NoError(t, repo.MarkRetry(ctx, first.ID, 1, "connection refused", attemptAt))

		got, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, got.Status)
		assert.Equal(t, 1, got.RetryCount)
		assert.Equal(t, "connection refused", got.LastError)
		require.NotNil(t, got.LastAttemptAt)
		assert.True(t, got.LastAttemptAt.Equal(attemptAt))
	})

	t.Run("synced items leave the pending list", func(t *testing.T) {
		require.NoError(t, repo.MarkSynced(ctx, second.ID, base.Add(2*time.Minute)))

		pending, err := repo.ListPending(ctx)
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[models.SyncStatusPending])
		assert.Equal(t, 1, counts[models.SyncStatusSynced])
	})

	t.Run("failed items and reset", func(t *testing.T) {
		require.NoError(t, repo.MarkFailed(ctx, third.ID, 5, "server rejected payload", base.Add(3*time.Minute)))

		failed, err := repo.ListFailed(ctx)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, third.ID, failed[0].ID)

		n, err := repo.ResetFailed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := repo.Get(ctx, third.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, got.Status)
		assert.Zero(t, got.RetryCount)
		assert.Empty(t, got.LastError)
	})

	t.Run("cleanup removes old synced items only", func(t *testing.T) {
		removed, err := repo.DeleteSyncedBefore(ctx, base.Add(10*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, counts[models.SyncStatusSynced])
		assert.Equal(t, 3, counts[models.SyncStatusPending])
	})
}
