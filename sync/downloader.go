package sync

import (
	"context"
	"fmt"

	"github.com/fbetancur/CrediSync360/service"
	log "github.com/sirupsen/logrus"
)

// Downloader pulls the remote dataset into the local store. Inbound
// reconciliation is upsert-by-primary-key with the remote copy winning;
// local-only records (still queued for upload) are never touched.
type Downloader struct {
	remote       service.RemoteStore
	routes       service.RouteRepository
	products     service.CreditProductRepository
	clients      service.ClientRepository
	credits      service.CreditRepository
	installments service.InstallmentRepository
	payments     service.PaymentRepository
	recalc       service.RecalcService
}

// NewDownloader creates a new downloader
func NewDownloader(
	remote service.RemoteStore,
	routes service.RouteRepository,
	products service.CreditProductRepository,
	clients service.ClientRepository,
	credits service.CreditRepository,
	installments service.InstallmentRepository,
	payments service.PaymentRepository,
	recalc service.RecalcService,
) *Downloader {
	return &Downloader{
		remote:       remote,
		routes:       routes,
		products:     products,
		clients:      clients,
		credits:      credits,
		installments: installments,
		payments:     payments,
		recalc:       recalc,
	}
}

// DownloadCounts reports how many records of each type were reconciled.
// On error the counts cover what completed before the failure.
type DownloadCounts struct {
	Routes       int
	Products     int
	Clients      int
	Credits      int
	Installments int
	Payments     int
}

// Download reconciles every entity type from the remote store, parents
// before children, then recomputes all cached state from the merged
// ledger. Any failure aborts the whole pass; counts show partial progress.
func (d *Downloader) Download(ctx context.Context, filter service.RemoteFilter) (*DownloadCounts, error) {
	counts := &DownloadCounts{}

	routes, err := d.remote.ListRoutes(ctx, filter)
	if err != nil {
		return counts, fmt.Errorf("download aborted listing routes: %w", err)
	}
	for _, route := range routes {
		if err := d.routes.Upsert(ctx, route); err != nil {
			return counts, fmt.Errorf("download aborted at route %s: %w", route.ID, err)
		}
		counts.Routes++
	}

	products, err := d.remote.ListProducts(ctx, filter)
	if err != nil {
		return counts, fmt.Errorf("download aborted listing products: %w", err)
	}
	for _, product := range products {
		if err := d.products.Upsert(ctx, product); err != nil {
			return counts, fmt.Errorf("download aborted at product %s: %w", product.ID, err)
		}
		counts.Products++
	}

	clients, err := d.remote.ListClients(ctx, filter)
	if err != nil {
		return counts, fmt.Errorf("download aborted listing clients: %w", err)
	}
	for _, client := range clients {
		if err := d.clients.Upsert(ctx, client); err != nil {
			return counts, fmt.Errorf("download aborted at client %s: %w", client.ID, err)
		}
		counts.Clients++
	}

	credits, err := d.remote.ListCredits(ctx, filter)
	if err != nil {
		return counts, fmt.Errorf("download aborted listing credits: %w", err)
	}
	for _, credit := range credits {
		if err := d.credits.Upsert(ctx, credit); err != nil {
			return counts, fmt.Errorf("download aborted at credit %s: %w", credit.ID, err)
		}
		counts.Credits++
	}

	installments, err := d.remote.ListInstallments(ctx, filter)
	if err != nil {
		return counts, fmt.Errorf("download aborted listing installments: %w", err)
	}
	for _, installment := range installments {
		if err := d.installments.Upsert(ctx, installment); err != nil {
			return counts, fmt.Errorf("download aborted at installment %s: %w", installment.ID, err)
		}
		counts.Installments++
	}

	payments, err := d.remote.ListPayments(ctx, filter)
	if err != nil {
		return counts, fmt.Errorf("download aborted listing payments: %w", err)
	}
	for _, payment := range payments {
		if err := d.payments.Upsert(ctx, payment); err != nil {
			return counts, fmt.Errorf("download aborted at payment %s: %w", payment.ID, err)
		}
		counts.Payments++
	}

	// Remote rows carry whatever caches the server had; recompute from the
	// merged ledger so local derived state is trustworthy again.
	if err := d.recalc.RecalcAll(ctx, filter.TenantID); err != nil {
		return counts, fmt.Errorf("download completed but recalculation failed: %w", err)
	}

	log.WithFields(log.Fields{
		"routes":       counts.Routes,
		"products":     counts.Products,
		"clients":      counts.Clients,
		"credits":      counts.Credits,
		"installments": counts.Installments,
		"payments":     counts.Payments,
	}).Info("Download completed")
	return counts, nil
}

// FullSync pushes the outbound queue first, then pulls the remote
// dataset. Upload-first ordering keeps local writes from being shadowed
// by a stale download.
func FullSync(ctx context.Context, processor *Processor, downloader *Downloader, filter service.RemoteFilter) (*DownloadCounts, error) {
	if _, _, err := processor.ForceSync(ctx); err != nil {
		return nil, fmt.Errorf("full sync aborted during upload: %w", err)
	}
	return downloader.Download(ctx, filter)
}
