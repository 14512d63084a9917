package sitecontent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SearchHit is one search result tagged with the singular name of its
// collection, e.g. "feature" or "process_step".
type SearchHit struct {
	ContentType string
	Record      Record
}

// MarshalJSON renders the record's fields plus content_type.
func (h SearchHit) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(h.Record)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(h.ContentType)
	if err != nil {
		return nil, err
	}
	fields["content_type"] = tag
	return json.Marshal(fields)
}

// contentTypeTags are the singular hit tags per searchable collection.
var contentTypeTags = map[Collection]string{
	CollectionFeatures:       "feature",
	CollectionTestimonials:   "testimonial",
	CollectionProcessSteps:   "process_step",
	CollectionSpecifications: "specification",
}

// searchResults is the cached form of a search.
type searchResults struct {
	Features       []*Feature       `json:"features,omitempty"`
	Testimonials   []*Testimonial   `json:"testimonials,omitempty"`
	ProcessSteps   []*ProcessStep   `json:"process_steps,omitempty"`
	Specifications []*Specification `json:"specifications,omitempty"`
}

// hits lists the matches collection by collection, each in display order.
func (r *searchResults) hits() []SearchHit {
	var hits []SearchHit
	for _, f := range r.Features {
		hits = append(hits, SearchHit{ContentType: contentTypeTags[CollectionFeatures], Record: f})
	}
	for _, t := range r.Testimonials {
		hits = append(hits, SearchHit{ContentType: contentTypeTags[CollectionTestimonials], Record: t})
	}
	for _, p := range r.ProcessSteps {
		hits = append(hits, SearchHit{ContentType: contentTypeTags[CollectionProcessSteps], Record: p})
	}
	for _, sp := range r.Specifications {
		hits = append(hits, SearchHit{ContentType: contentTypeTags[CollectionSpecifications], Record: sp})
	}
	return hits
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// searchCollection returns the active records of c whose text fields
// contain needle.
func searchCollection[T any, P recordPtr[T]](ctx context.Context, s *service, c Collection, match func(*T) bool) ([]*T, error) {
	docs, err := s.find(ctx, "search", Query{Collection: c, ActiveOnly: true, Sort: SortByOrder})
	if err != nil {
		return nil, err
	}
	items, err := decodeAll[T, P](docs)
	if err != nil {
		return nil, serverError("search", c, err)
	}
	var out []*T
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *service) Search(ctx context.Context, req SearchRequest) ([]SearchHit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(req.Query))
	only := Collection(req.ContentType)
	want := func(c Collection) bool { return only == "" || only == c }

	key := searchKey(map[string]string{"query": needle, "content_type": req.ContentType})
	res, err := readThrough(ctx, s, Collection(searchCacheTag), key, func(ctx context.Context) (*searchResults, error) {
		var (
			r   searchResults
			err error
		)
		if want(CollectionFeatures) {
			r.Features, err = searchCollection[Feature](ctx, s, CollectionFeatures, func(f *Feature) bool {
				return containsFold(needle, f.Title, f.Description)
			})
			if err != nil {
				return nil, err
			}
		}
		if want(CollectionTestimonials) {
			r.Testimonials, err = searchCollection[Testimonial](ctx, s, CollectionTestimonials, func(t *Testimonial) bool {
				return containsFold(needle, t.Content, t.Author, t.Role)
			})
			if err != nil {
				return nil, err
			}
		}
		if want(CollectionProcessSteps) {
			r.ProcessSteps, err = searchCollection[ProcessStep](ctx, s, CollectionProcessSteps, func(p *ProcessStep) bool {
				return containsFold(needle, p.Title, p.Description)
			})
			if err != nil {
				return nil, err
			}
		}
		if want(CollectionSpecifications) {
			r.Specifications, err = searchCollection[Specification](ctx, s, CollectionSpecifications, func(sp *Specification) bool {
				return containsFold(needle, sp.SectionTitle, sp.Content)
			})
			if err != nil {
				return nil, err
			}
		}
		return &r, nil
	})
	if err != nil {
		return nil, err
	}
	hits := res.hits()
	if hits == nil {
		hits = []SearchHit{}
	}
	return hits, nil
}

// SearchMessage is the summary line of a search response.
func SearchMessage(n int) string {
	return fmt.Sprintf("Search completed. Found %d results", n)
}
