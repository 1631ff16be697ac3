// Package store persists studio state and applied compositions.
//
// Two backends are provided:
//   - file: JSON files under ~/.config/orchard/ for the CLI
//   - mongo: MongoDB collections for the HTTP server
//
// Both satisfy [studio.Store] for the configuration and [LayoutStore] for
// the compositions applied to individual reviews.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/orchard/pkg/studio"
)

// Applied is the composition a host saved for one review.
type Applied struct {
	ReviewID  string         `json:"reviewId" bson:"_id"`
	Payload   studio.Payload `json:"payload" bson:"payload"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at"`
}

// LayoutStore persists applied compositions keyed by review id.
type LayoutStore interface {
	// GetLayout returns the composition for reviewID, or nil when none
	// was saved.
	GetLayout(ctx context.Context, reviewID string) (*Applied, error)
	PutLayout(ctx context.Context, reviewID string, p studio.Payload) error
	DeleteLayout(ctx context.Context, reviewID string) error
	ListLayouts(ctx context.Context) ([]string, error)
}

// Backend is a full persistence backend.
type Backend interface {
	studio.Store
	LayoutStore
	Close() error
}
