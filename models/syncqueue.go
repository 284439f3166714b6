package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncStatus is the lifecycle status of an outbound queue item
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// SyncOperationType identifies the remote operation a queue item carries
type SyncOperationType string

const (
	OpCreateRoute    SyncOperationType = "CREATE_ROUTE"
	OpCreateClient   SyncOperationType = "CREATE_CLIENT"
	OpCreateCredit   SyncOperationType = "CREATE_CREDIT"
	OpCreatePayment  SyncOperationType = "CREATE_PAYMENT"
	OpCreateClosing  SyncOperationType = "CREATE_CLOSING"
	OpCreateMovement SyncOperationType = "CREATE_MOVEMENT"
)

// SyncPayload is the tagged union of queue item payloads. Each variant
// carries a denormalized snapshot captured at enqueue time, not a live
// reference to local records.
type SyncPayload interface {
	Operation() SyncOperationType
}

type CreateRoutePayload struct {
	Route Route `json:"route"`
}

func (CreateRoutePayload) Operation() SyncOperationType { return OpCreateRoute }

type CreateClientPayload struct {
	Client Client `json:"client"`
}

func (CreateClientPayload) Operation() SyncOperationType { return OpCreateClient }

// CreateCreditPayload is compound: the credit plus its full schedule.
// Remote dispatch is one credit create followed by N installment creates
// and is not atomic.
type CreateCreditPayload struct {
	Credit       Credit        `json:"credit"`
	Installments []Installment `json:"installments"`
}

func (CreateCreditPayload) Operation() SyncOperationType { return OpCreateCredit }

type CreatePaymentPayload struct {
	Payment Payment `json:"payment"`
}

func (CreatePaymentPayload) Operation() SyncOperationType { return OpCreatePayment }

type CreateClosingPayload struct {
	Closing CashClosing `json:"closing"`
}

func (CreateClosingPayload) Operation() SyncOperationType { return OpCreateClosing }

type CreateMovementPayload struct {
	Movement CashMovement `json:"movement"`
}

func (CreateMovementPayload) Operation() SyncOperationType { return OpCreateMovement }

// DecodeSyncPayload unmarshals a persisted payload into its typed variant
func DecodeSyncPayload(op SyncOperationType, raw []byte) (SyncPayload, error) {
	var (
		payload SyncPayload
		err     error
	)
	switch op {
	case OpCreateRoute:
		var p CreateRoutePayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case OpCreateClient:
		var p CreateClientPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case OpCreateCredit:
		var p CreateCreditPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case OpCreatePayment:
		var p CreatePaymentPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case OpCreateClosing:
		var p CreateClosingPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case OpCreateMovement:
		var p CreateMovementPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		return nil, fmt.Errorf("unknown sync operation type: %s", op)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", op, err)
	}
	return payload, nil
}

// SyncQueueItem is one outbound operation waiting to reach the remote
// store. Append-only except for status/retry mutation by the sync
// processor.
type SyncQueueItem struct {
	ID            int64             `json:"id"`
	Operation     SyncOperationType `json:"operation"`
	Payload       SyncPayload       `json:"payload"`
	EnqueuedAt    time.Time         `json:"enqueuedAt"`
	RetryCount    int               `json:"retryCount"`
	Status        SyncStatus        `json:"status"`
	LastError     string            `json:"lastError,omitempty"`
	LastAttemptAt *time.Time        `json:"lastAttemptAt,omitempty"`
	SyncedAt      *time.Time        `json:"syncedAt,omitempty"`
}
