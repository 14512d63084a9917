package site

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendant/simple-site/pkg/query"
	"github.com/tendant/simple-site/pkg/siteclient"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// ContentWriter is the write side of the content API. *siteclient.Client
// implements it.
type ContentWriter interface {
	CreateHero(ctx context.Context, req sitecontent.CreateHeroRequest) (*sitecontent.HeroContent, error)
	CreateFeature(ctx context.Context, req sitecontent.CreateFeatureRequest) (*sitecontent.Feature, error)
	UpdateFeature(ctx context.Context, id uuid.UUID, req sitecontent.UpdateFeatureRequest) (*sitecontent.Feature, error)
	CreateTestimonial(ctx context.Context, req sitecontent.CreateTestimonialRequest) (*sitecontent.Testimonial, error)
	CreateProcessStep(ctx context.Context, req sitecontent.CreateProcessStepRequest) (*sitecontent.ProcessStep, error)
	CreateSpecification(ctx context.Context, req sitecontent.CreateSpecificationRequest) (*sitecontent.Specification, error)
	CreateNavigationItem(ctx context.Context, req sitecontent.CreateNavigationItemRequest) (*sitecontent.NavigationItem, error)
	CreateFooterSection(ctx context.Context, req sitecontent.CreateFooterSectionRequest) (*sitecontent.FooterSection, error)
	CreateSiteSettings(ctx context.Context, req sitecontent.CreateSiteSettingsRequest) (*sitecontent.SiteSettings, error)
	Deactivate(ctx context.Context, segment string, id uuid.UUID) error
}

var _ ContentWriter = (*siteclient.Client)(nil)

// Editor writes content through the query cache. Each write invalidates
// the queries whose results it changes, so the next read refetches them.
type Editor struct {
	writer ContentWriter
	cache  *query.Client
}

func NewEditor(writer ContentWriter, cache *query.Client) *Editor {
	return &Editor{writer: writer, cache: cache}
}

// searchable collections also feed search results.
func searchable(tag string) []query.Key {
	return []query.Key{query.NewKey(tag), query.NewKey(query.TagSearch)}
}

// segmentTags maps API path segments to the query tags they back.
var segmentTags = map[string]string{
	"hero":           query.TagHero,
	"features":       query.TagFeatures,
	"testimonials":   query.TagTestimonials,
	"process-steps":  query.TagProcessSteps,
	"specifications": query.TagSpecifications,
	"navigation":     query.TagNavigation,
	"footer":         query.TagFooter,
	"site-settings":  query.TagSiteSettings,
}

func (e *Editor) CreateHero(ctx context.Context, req sitecontent.CreateHeroRequest) (*sitecontent.HeroContent, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.HeroContent, error) {
		return e.writer.CreateHero(ctx, req)
	}, HeroKey())
}

func (e *Editor) CreateFeature(ctx context.Context, req sitecontent.CreateFeatureRequest) (*sitecontent.Feature, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.Feature, error) {
		return e.writer.CreateFeature(ctx, req)
	}, searchable(query.TagFeatures)...)
}

func (e *Editor) UpdateFeature(ctx context.Context, id uuid.UUID, req sitecontent.UpdateFeatureRequest) (*sitecontent.Feature, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.Feature, error) {
		return e.writer.UpdateFeature(ctx, id, req)
	}, searchable(query.TagFeatures)...)
}

func (e *Editor) CreateTestimonial(ctx context.Context, req sitecontent.CreateTestimonialRequest) (*sitecontent.Testimonial, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.Testimonial, error) {
		return e.writer.CreateTestimonial(ctx, req)
	}, searchable(query.TagTestimonials)...)
}

func (e *Editor) CreateProcessStep(ctx context.Context, req sitecontent.CreateProcessStepRequest) (*sitecontent.ProcessStep, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.ProcessStep, error) {
		return e.writer.CreateProcessStep(ctx, req)
	}, searchable(query.TagProcessSteps)...)
}

func (e *Editor) CreateSpecification(ctx context.Context, req sitecontent.CreateSpecificationRequest) (*sitecontent.Specification, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.Specification, error) {
		return e.writer.CreateSpecification(ctx, req)
	}, searchable(query.TagSpecifications)...)
}

func (e *Editor) CreateNavigationItem(ctx context.Context, req sitecontent.CreateNavigationItemRequest) (*sitecontent.NavigationItem, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.NavigationItem, error) {
		return e.writer.CreateNavigationItem(ctx, req)
	}, query.NewKey(query.TagNavigation))
}

func (e *Editor) CreateFooterSection(ctx context.Context, req sitecontent.CreateFooterSectionRequest) (*sitecontent.FooterSection, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.FooterSection, error) {
		return e.writer.CreateFooterSection(ctx, req)
	}, query.NewKey(query.TagFooter))
}

func (e *Editor) CreateSiteSettings(ctx context.Context, req sitecontent.CreateSiteSettingsRequest) (*sitecontent.SiteSettings, error) {
	return query.Mutate(ctx, e.cache, func(ctx context.Context) (*sitecontent.SiteSettings, error) {
		return e.writer.CreateSiteSettings(ctx, req)
	}, SiteSettingsKey())
}

// Deactivate soft-deletes a record. An unknown segment invalidates every
// content query.
func (e *Editor) Deactivate(ctx context.Context, segment string, id uuid.UUID) error {
	var keys []query.Key
	if tag, ok := segmentTags[segment]; ok {
		keys = searchable(tag)
	} else {
		for _, tag := range segmentTags {
			keys = append(keys, query.NewKey(tag))
		}
		keys = append(keys, query.NewKey(query.TagSearch))
	}
	_, err := query.Mutate(ctx, e.cache, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.writer.Deactivate(ctx, segment, id)
	}, keys...)
	return err
}
