// Package audit defines the append-only fact log the engine writes to.
// Facts describe business outcomes that have committed; the engine
// never reads them back to make decisions.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/branchday-backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Action identifies the kind of business outcome a fact records
type Action string

const (
	ActionDayTransition     Action = "DAY_TRANSITION"
	ActionSnapshotLoad      Action = "SNAPSHOT_LOAD"
	ActionTransactionCreate Action = "TRANSACTION_CREATE"
	ActionTransactionVoid   Action = "TRANSACTION_VOID"
	ActionHandoffSubmit     Action = "TELLER_HANDOFF_SUBMIT"
)

// EntityType identifies what kind of entity a fact is about
const (
	EntityDayCycle    = "DAY_CYCLE"
	EntityAccount     = "ACCOUNT"
	EntityTransaction = "TRANSACTION"
)

// Fact is one audit record. Payload is a typed union keyed on Action;
// unknown kinds decode into GenericPayload for forward compatibility.
type Fact struct {
	ID           uuid.UUID
	Action       Action
	EntityType   string
	EntityID     string
	BusinessDate time.Time
	BranchCode   string
	Actor        shared.Actor
	Payload      Payload
	RecordedAt   time.Time
}

// NewFact stamps a fact with an id and recording time
func NewFact(action Action, entityType, entityID string, businessDate time.Time, branchCode string, actor shared.Actor, payload Payload) *Fact {
	return &Fact{
		ID:           uuid.New(),
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		BusinessDate: businessDate,
		BranchCode:   branchCode,
		Actor:        actor,
		Payload:      payload,
		RecordedAt:   time.Now().UTC(),
	}
}

// factEnvelope is the wire form of a Fact; the payload travels with an
// explicit kind discriminator
type factEnvelope struct {
	ID           uuid.UUID       `json:"id"`
	Action       Action          `json:"action"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	BusinessDate time.Time       `json:"business_date"`
	BranchCode   string          `json:"branch_code,omitempty"`
	Actor        shared.Actor    `json:"actor"`
	PayloadKind  string          `json:"payload_kind"`
	Payload      json.RawMessage `json:"payload"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// MarshalJSON encodes the fact with its payload kind discriminator
func (f *Fact) MarshalJSON() ([]byte, error) {
	env := factEnvelope{
		ID:           f.ID,
		Action:       f.Action,
		EntityType:   f.EntityType,
		EntityID:     f.EntityID,
		BusinessDate: f.BusinessDate,
		BranchCode:   f.BranchCode,
		Actor:        f.Actor,
		RecordedAt:   f.RecordedAt,
	}
	if f.Payload != nil {
		env.PayloadKind = f.Payload.Kind()
		data, err := json.Marshal(f.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", env.PayloadKind, err)
		}
		env.Payload = data
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the fact, selecting the payload variant by its
// kind discriminator and falling back to GenericPayload for unknown kinds
func (f *Fact) UnmarshalJSON(data []byte) error {
	var env factEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	f.ID = env.ID
	f.Action = env.Action
	f.EntityType = env.EntityType
	f.EntityID = env.EntityID
	f.BusinessDate = env.BusinessDate
	f.BranchCode = env.BranchCode
	f.Actor = env.Actor
	f.RecordedAt = env.RecordedAt

	if len(env.Payload) == 0 {
		f.Payload = nil
		return nil
	}

	payload, err := decodePayload(env.PayloadKind, env.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", env.PayloadKind, err)
	}
	f.Payload = payload
	return nil
}
