// Package storage contains the storage-agnostic contract for the pipeline's
// four tables and a pluggable backend factory.
//
// Concrete backends (postgres, sqlite) register a Factory at init time;
// callers open a Store via New(...) using only storage.Config and never import
// backend packages directly. Importing internal/storage/all (typically as a
// blank import in the CLI wiring layer) enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sync"

	"fashionetl/internal/catalog"
)

// Config selects and configures a storage backend.
type Config struct {
	// Kind selects the backend implementation: "postgres" or "sqlite".
	Kind string

	// DSN is the backend connection string. For postgres it is passed to
	// pgxpool; for sqlite it is passed to database/sql (e.g. "file:fashion.db"
	// or ":memory:").
	DSN string
}

// Store is the full storage surface used by the pipeline stages. Every
// DB-touching stage calls EnsureSchema first; the DDL is idempotent.
type Store interface {
	// EnsureSchema applies the four CREATE TABLE IF NOT EXISTS statements
	// (plus supporting indexes). Safe to call on every run.
	EnsureSchema(ctx context.Context) error

	// UpsertImageMetadata writes records keyed by image_id, refreshing
	// created_at on conflict. Returns the number of rows written.
	UpsertImageMetadata(ctx context.Context, recs []catalog.ImageMetadata) (int64, error)

	// ListImageMetadata returns every stored metadata record.
	ListImageMetadata(ctx context.Context) ([]catalog.ImageMetadata, error)

	// ImageMetadataByIDs returns the stored records for the given ids, keyed
	// by image_id. Missing ids are simply absent from the result.
	ImageMetadataByIDs(ctx context.Context, ids []string) (map[string]catalog.ImageMetadata, error)

	// ListImageIDs returns every stored image_id.
	ListImageIDs(ctx context.Context) ([]string, error)

	// CountImages returns the number of image_metadata rows.
	CountImages(ctx context.Context) (int64, error)

	// UpsertNavigationPaths writes paths keyed by source_image_id, refreshing
	// created_at on conflict.
	UpsertNavigationPaths(ctx context.Context, paths []catalog.NavigationPath) (int64, error)

	// ListNavigationPaths returns every stored navigation path.
	ListNavigationPaths(ctx context.Context) ([]catalog.NavigationPath, error)

	// NavigationPath returns the stored path for one source image, or
	// (nil, nil, nil) when none exists.
	NavigationPath(ctx context.Context, sourceImageID string) ([]string, []float64, error)

	// AppendInteractions appends interaction events (no dedup; one row per
	// event) in a single transaction.
	AppendInteractions(ctx context.Context, events []catalog.Interaction) error

	// LastClickedImages returns, per user, the image_id of the most recent
	// clicked interaction. Users with no clicks are absent from the result.
	LastClickedImages(ctx context.Context, userIDs []string) (map[string]string, error)

	// ClickedHistory returns every image_id the user has clicked (duplicates
	// preserved; one entry per click event).
	ClickedHistory(ctx context.Context, userID string) ([]string, error)

	// RandomImageID returns one uniformly random image_id, or "" when the
	// image_metadata table is empty.
	RandomImageID(ctx context.Context) (string, error)

	// AppendRecommendations appends recommendation rows.
	AppendRecommendations(ctx context.Context, recs []catalog.Recommendation) error

	// ListRecommendations returns every stored recommendation row.
	ListRecommendations(ctx context.Context) ([]catalog.Recommendation, error)

	// Close releases the underlying connections.
	Close()
}

// Factory constructs a Store for a backend kind.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a Factory for the given storage kind.
// It is typically called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Store for cfg.Kind. Unregistered kinds return an error naming
// the kind so misconfiguration is obvious.
func New(ctx context.Context, cfg Config) (Store, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns a snapshot of the registered backend kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}
