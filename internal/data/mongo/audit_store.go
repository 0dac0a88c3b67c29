// Package mongo provides the MongoDB implementation of the durable
// audit fact store the audit writer persists into.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/branchday-backoffice/internal/domain/audit"
)

const (
	// FactCollectionName is the name of the audit fact collection in MongoDB
	FactCollectionName = "audit_facts"
)

// AuditStore implements the audit.Store interface for MongoDB
type AuditStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditStore creates a new MongoDB audit fact store
func NewAuditStore(logger *slog.Logger, db *mongo.Database) audit.Store {
	return &AuditStore{
		db:     db,
		logger: logger,
	}
}

// Insert persists a fact after checking for duplicates. Kafka delivers
// at least once, so a fact id already present means this delivery is a
// replay and the insert is skipped.
func (s *AuditStore) Insert(ctx context.Context, fact *audit.Fact) error {
	collection := s.db.Collection(FactCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"id": fact.ID.String()})
	if err != nil {
		s.logger.Error("Failed to check for existing audit fact",
			"fact_id", fact.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing audit fact: %w", err)
	}
	if count > 0 {
		return nil
	}

	doc, err := factDocument(fact)
	if err != nil {
		s.logger.Error("Failed to encode audit fact",
			"fact_id", fact.ID.String(),
			"error", err)
		return fmt.Errorf("failed to encode audit fact: %w", err)
	}

	if _, err := collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		s.logger.Error("Failed to insert audit fact",
			"fact_id", fact.ID.String(),
			"error", err)
		return fmt.Errorf("failed to insert audit fact: %w", err)
	}

	return nil
}

// factDocument converts a fact into a BSON document via its JSON wire
// form so the payload union keeps its kind discriminator
func factDocument(fact *audit.Fact) (bson.M, error) {
	data, err := json.Marshal(fact)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, true, &doc); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, errors.New("empty audit fact document")
	}

	return doc, nil
}
