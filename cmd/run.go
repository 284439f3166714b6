package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/config"
	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/remote"
	"github.com/fbetancur/CrediSync360/repository"
	"github.com/fbetancur/CrediSync360/service"
	"github.com/fbetancur/CrediSync360/sync"
	log "github.com/sirupsen/logrus"
)

// Synced queue items older than this are deleted at startup
const queueRetention = 7 * 24 * time.Hour

// Run initializes the local store, reconciles remote state when the
// network allows, and keeps the sync scheduler running until the context
// is cancelled.
func Run(ctx context.Context) error {
	cfg := config.Get()

	log.WithFields(log.Fields{
		"tenantId":    cfg.TenantID,
		"collectorId": cfg.CollectorID,
		"environment": cfg.Environment,
	}).Info("Starting CrediSync360")

	db, err := database.NewConnection(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}

	bus := events.NewBus()

	clients := repository.NewClientRepository(db)
	credits := repository.NewCreditRepository(db)
	installments := repository.NewInstallmentRepository(db)
	payments := repository.NewPaymentRepository(db)
	products := repository.NewCreditProductRepository(db)
	routes := repository.NewRouteRepository(db)
	queue := repository.NewSyncQueueRepository(db)

	remoteClient := remote.NewClient(cfg.RemoteBaseURL)
	recalc := service.NewRecalcService(clients, credits, installments, payments, bus)

	processor := sync.NewProcessor(queue, remoteClient, remoteClient, bus, sync.ProcessorConfig{
		BatchSize:      cfg.SyncBatchSize,
		MaxRetries:     cfg.SyncMaxRetries,
		InitialBackoff: cfg.SyncInitialBackoff,
		MaxBackoff:     cfg.SyncMaxBackoff,
	})
	downloader := sync.NewDownloader(remoteClient, routes, products, clients, credits, installments, payments, recalc)

	if removed, err := processor.CleanupSynced(ctx, queueRetention); err != nil {
		log.WithError(err).Warn("Failed to clean up synced queue items")
	} else if removed > 0 {
		log.WithField("removed", removed).Info("Old synced queue items removed")
	}

	// Initial reconciliation blocks startup when the remote is reachable;
	// offline startup proceeds on whatever the local store already has.
	filter := service.RemoteFilter{TenantID: cfg.TenantID, RouteID: cfg.RouteID}
	if remoteClient.Online() {
		if _, err := sync.FullSync(ctx, processor, downloader, filter); err != nil {
			log.WithError(err).Warn("Initial sync failed, continuing with local state")
		}
	} else {
		log.Info("Remote unreachable at startup, running from local state")
	}

	scheduler := sync.NewScheduler(processor, cfg.SyncInterval)
	stopScheduler := scheduler.Start(ctx)
	defer stopScheduler()

	<-ctx.Done()
	log.Info("Shutting down")
	return nil
}
