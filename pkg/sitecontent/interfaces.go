package sitecontent

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// SortMode selects the order of a query result.
type SortMode int

const (
	// SortByOrder sorts by order ascending, then created_at ascending.
	SortByOrder SortMode = iota
	// SortNewest sorts by created_at descending.
	SortNewest
)

// Query selects documents of one collection.
type Query struct {
	Collection Collection
	// Filters match IndexAttrs exactly.
	Filters    map[string]string
	ActiveOnly bool
	Sort       SortMode
	// Limit caps the result; zero means no limit.
	Limit int
}

// Repository defines the interface for content persistence
type Repository interface {
	// Insert stores a new document
	Insert(ctx context.Context, doc *Document) error

	// Get returns a document by id, active or not
	Get(ctx context.Context, collection Collection, id uuid.UUID) (*Document, error)

	// Update replaces a stored document
	Update(ctx context.Context, doc *Document) error

	// Find returns the documents matching q in q.Sort order
	Find(ctx context.Context, q Query) ([]*Document, error)

	// Close releases store resources
	Close() error
}

// Cache is a byte-oriented key/value cache with expiry.
type Cache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeletePrefix removes every key starting with prefix and returns the count
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Stats reports backend statistics
	Stats(ctx context.Context) (CacheStats, error)

	// Close releases cache resources
	Close() error
}

// MediaStore defines the interface for media storage backends
type MediaStore interface {
	// Upload stores the object under key
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download opens the object stored under key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns object metadata
	Stat(ctx context.Context, key string) (*MediaAsset, error)

	// URL returns the public URL of the object
	URL(ctx context.Context, key string) (string, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error
}

// EventSink receives content lifecycle events
type EventSink interface {
	// RecordCreated is fired after a record is stored
	RecordCreated(ctx context.Context, collection Collection, id uuid.UUID) error

	// RecordUpdated is fired after a record is changed
	RecordUpdated(ctx context.Context, collection Collection, id uuid.UUID) error

	// RecordDeactivated is fired after a record is soft-deleted
	RecordDeactivated(ctx context.Context, collection Collection, id uuid.UUID) error

	// CacheInvalidated is fired after a collection's cache entries are dropped
	CacheInvalidated(ctx context.Context, collection Collection, removed int) error
}
