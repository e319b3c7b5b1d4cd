package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductRepository stores the product catalog.
// List returns products ordered by name.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

// AnalysisRepository stores the analysis history.
// List returns the newest analyses first; limit <= 0 means no limit.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *Analysis) error
	Get(ctx context.Context, id string) (*Analysis, error)
	List(ctx context.Context, limit int) ([]Analysis, error)
}

// TextExtractor turns raw document bytes into plain text
type TextExtractor interface {
	Extract(ctx context.Context, doc *Document) (string, error)
	ExtractFile(ctx context.Context, path string) (*Document, string, error)
}

// DocumentFetcher downloads remote documents
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}
