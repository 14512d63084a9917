package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Repository implements sitecontent.Repository using in-memory storage
type Repository struct {
	mu          sync.RWMutex
	collections map[sitecontent.Collection]map[uuid.UUID]*sitecontent.Document
	// unique attributes per collection, e.g. newsletter email
	unique map[sitecontent.Collection]string
}

// New creates a new in-memory repository
func New() sitecontent.Repository {
	return &Repository{
		collections: make(map[sitecontent.Collection]map[uuid.UUID]*sitecontent.Document),
		unique: map[sitecontent.Collection]string{
			sitecontent.CollectionNewsletterSignups: "email",
		},
	}
}

func (r *Repository) Insert(ctx context.Context, doc *sitecontent.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, ok := r.collections[doc.Collection]
	if !ok {
		docs = make(map[uuid.UUID]*sitecontent.Document)
		r.collections[doc.Collection] = docs
	}
	if _, exists := docs[doc.ID]; exists {
		return sitecontent.ErrDuplicate
	}
	if attr, ok := r.unique[doc.Collection]; ok {
		for _, d := range docs {
			if d.Attrs[attr] != "" && d.Attrs[attr] == doc.Attrs[attr] {
				return sitecontent.ErrDuplicate
			}
		}
	}

	// Store a copy to avoid external modifications
	docs[doc.ID] = doc.Clone()
	return nil
}

func (r *Repository) Get(ctx context.Context, collection sitecontent.Collection, id uuid.UUID) (*sitecontent.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.collections[collection][id]
	if !exists {
		return nil, sitecontent.ErrNotFound
	}
	return doc.Clone(), nil
}

func (r *Repository) Update(ctx context.Context, doc *sitecontent.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.collections[doc.Collection]
	existing, exists := docs[doc.ID]
	if !exists {
		return sitecontent.ErrNotFound
	}
	updated := doc.Clone()
	updated.CreatedAt = existing.CreatedAt
	docs[doc.ID] = updated
	return nil
}

func (r *Repository) Find(ctx context.Context, q sitecontent.Query) ([]*sitecontent.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*sitecontent.Document
	for _, doc := range r.collections[q.Collection] {
		if q.ActiveOnly && !doc.IsActive {
			continue
		}
		if !matches(doc, q.Filters) {
			continue
		}
		result = append(result, doc.Clone())
	}

	switch q.Sort {
	case sitecontent.SortNewest:
		sort.Slice(result, func(i, j int) bool {
			if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
				return result[i].CreatedAt.After(result[j].CreatedAt)
			}
			return result[i].ID.String() < result[j].ID.String()
		})
	default:
		sort.Slice(result, func(i, j int) bool {
			if result[i].Order != result[j].Order {
				return result[i].Order < result[j].Order
			}
			if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
				return result[i].CreatedAt.Before(result[j].CreatedAt)
			}
			return result[i].ID.String() < result[j].ID.String()
		})
	}

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (r *Repository) Close() error {
	return nil
}

func matches(doc *sitecontent.Document, filters map[string]string) bool {
	for k, v := range filters {
		if doc.Attrs[k] != v {
			return false
		}
	}
	return true
}
