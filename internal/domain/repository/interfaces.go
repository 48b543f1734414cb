package repository

import (
	"context"
	"errors"
	"time"

	"FinAdvisor/internal/domain/models"
)

// ErrArtifactNotFound is returned by an ArtifactStore when no artifact
// exists for a (name, version) key.
var ErrArtifactNotFound = errors.New("artifact not found")

// NavStore provides read-only access to NAV history.
type NavStore interface {
	// GetNavHistory returns the series for fund with dates >= from, ascending.
	GetNavHistory(ctx context.Context, fundID string, from time.Time) (models.NavSeries, error)
	Health(ctx context.Context) error
}

// FundStore provides read-only access to the fund catalog and holder counts.
type FundStore interface {
	GetFund(ctx context.Context, fundID string) (models.FundMetadata, error)
	ListFunds(ctx context.Context) ([]models.FundMetadata, error)
	ListFundIDs(ctx context.Context) ([]string, error)
	FundsByCategory(ctx context.Context, category string, limit int) ([]models.FundMetadata, error)
	PopularFunds(ctx context.Context, limit int) ([]models.PopularFund, error)
	Health(ctx context.Context) error
}

// HoldingStore provides a user's current holdings.
type HoldingStore interface {
	GetHoldings(ctx context.Context, userID string) ([]models.Holding, error)
}

// ArtifactStore is a key-value store of serialized models addressed by
// (name, version). Save must replace atomically.
type ArtifactStore interface {
	Load(ctx context.Context, name, version string) ([]byte, error)
	Save(ctx context.Context, name, version string, data []byte) error
}

// EventPublisher emits model lifecycle events.
type EventPublisher interface {
	PublishModelEvent(ctx context.Context, ev models.ModelEvent) error
	Close() error
}

// Metrics records analytics observability signals.
type Metrics interface {
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
	SetModelLoaded(name string, loaded bool)
	RecordRetrain(state string)
}
