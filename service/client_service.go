package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"
)

type clientService struct {
	clients  ClientRepository
	enqueuer SyncEnqueuer
	bus      *events.Bus
}

// NewClientService creates a new client service
func NewClientService(clients ClientRepository, enqueuer SyncEnqueuer, bus *events.Bus) ClientService {
	return &clientService{
		clients:  clients,
		enqueuer: enqueuer,
		bus:      bus,
	}
}

// RegisterClient stores a new client locally and enqueues the record for upload
func (s *clientService) RegisterClient(ctx context.Context, input RegisterClientInput) (*models.Client, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("client name is required")
	}

	now := time.Now().UTC()
	client := &models.Client{
		ID:           uuid.New().String(),
		TenantID:     input.TenantID,
		RouteID:      input.RouteID,
		Name:         strings.TrimSpace(input.Name),
		Document:     input.Document,
		Phone:        input.Phone,
		Address:      input.Address,
		Neighborhood: input.Neighborhood,
		Reference:    input.Reference,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,

		ActiveCredits:    0,
		TotalBalance:     decimal.Zero,
		MaxOverdueDays:   0,
		Status:           models.ClientStatusNoCredits,
		RiskScore:        models.RiskScoreRegular,
		LastRecalculated: now,

		CreatedAt: now,
		CreatedBy: input.CollectorID,
	}

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}
	if _, err := s.enqueuer.Enqueue(ctx, models.CreateClientPayload{Client: *client}); err != nil {
		return nil, fmt.Errorf("client %s stored but not enqueued for sync: %w", client.ID, err)
	}

	log.WithFields(log.Fields{
		"clientId": client.ID,
		"tenantId": client.TenantID,
	}).Info("Client registered")

	s.bus.Emit(ctx, events.ClientRegisteredEvent{
		ClientID: client.ID,
		TenantID: client.TenantID,
	})
	return client, nil
}

// ListClients returns a tenant's client roster
func (s *clientService) ListClients(ctx context.Context, tenantID string) ([]*models.Client, error) {
	return s.clients.ListByTenant(ctx, tenantID)
}
