package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OutboxStatus defines fact publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// OutboxMessage stores a serialized fact for reliable publishing. The
// row is written inside the same database transaction as the business
// mutation, so a fact exists if and only if the outcome committed.
type OutboxMessage struct {
	ID            int64           `json:"id"`
	FactID        uuid.UUID       `json:"fact_id"`
	Action        Action          `json:"action"`
	Payload       json.RawMessage `json:"payload"`
	Status        OutboxStatus    `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewOutboxMessage serializes a fact into a pending outbox row
func NewOutboxMessage(fact *Fact) (*OutboxMessage, error) {
	payload, err := json.Marshal(fact)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		FactID:    fact.ID,
		Action:    fact.Action,
		Payload:   payload,
		Status:    OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Fact deserializes the stored fact from the payload
func (m *OutboxMessage) Fact() (*Fact, error) {
	var fact Fact
	if err := json.Unmarshal(m.Payload, &fact); err != nil {
		return nil, err
	}
	return &fact, nil
}

// OutboxRepository manages transactional outbox persistence for audit facts
type OutboxRepository interface {
	Create(ctx context.Context, message *OutboxMessage) error
	GetPending(ctx context.Context, limit int) ([]*OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) OutboxRepository
}

// ErrMessageNotFound indicates a missing outbox row
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "audit outbox message not found: " + strconv.FormatInt(e.ID, 10)
}
