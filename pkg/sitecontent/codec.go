package sitecontent

import (
	"encoding/json"
	"fmt"
)

// recordPtr constrains a pointer to a record type.
type recordPtr[T any] interface {
	*T
	Record
}

// ToDocument converts a record into its storage form.
func ToDocument(r Record) (*Document, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Collection(), err)
	}
	m := r.Meta()
	attrs := make(map[string]string)
	for k, v := range r.IndexAttrs() {
		if v != "" {
			attrs[k] = v
		}
	}
	return &Document{
		Collection: r.Collection(),
		ID:         m.ID,
		IsActive:   m.IsActive,
		Order:      m.Order,
		Attrs:      attrs,
		Body:       body,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// FromDocument decodes a stored document. The document columns win over
// whatever the body says about the shared fields.
func FromDocument[T any, P recordPtr[T]](d *Document) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(d.Body, v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", d.Collection, d.ID, err)
	}
	m := P(v).Meta()
	m.ID = d.ID
	m.IsActive = d.IsActive
	m.Order = d.Order
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt
	return v, nil
}

func decodeAll[T any, P recordPtr[T]](docs []*Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		v, err := FromDocument[T, P](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
