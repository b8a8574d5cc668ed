package storage

import (
	"context"
	"fmt"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/models"
)

// Storage interface defines the contract for data storage
type Storage interface {
	// UpsertInterns applies every element as an upsert keyed on internId in a
	// single bulk request. Element-level write failures are reported in
	// BulkResult.Failures; a returned error means the bulk request failed as a whole.
	UpsertInterns(ctx context.Context, upserts []models.InternUpsert) (*models.BulkResult, error)
	// GetInternByID returns nil, nil when no record has the given internId.
	GetInternByID(ctx context.Context, internID string) (*models.InternshipRecord, error)
	SaveContact(ctx context.Context, msg models.ContactMessage) error
	Ping(ctx context.Context) error
	Close() error
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "mongodb":
		return NewMongoDBStorage(ctx, cfg)
	case "dynamodb":
		return NewDynamoDBStorage(ctx, cfg)
	case "postgresql":
		return NewPostgreSQLStorage(ctx, cfg)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
