package site

import (
	"context"

	"github.com/tendant/simple-site/pkg/query"
	"github.com/tendant/simple-site/pkg/siteclient"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Backend is the content API as seen by the site. *siteclient.Client
// implements it.
type Backend interface {
	Hero(ctx context.Context) (*sitecontent.HeroContent, error)
	Features(ctx context.Context, category string) ([]sitecontent.Feature, error)
	Testimonials(ctx context.Context, limit int) ([]sitecontent.Testimonial, error)
	ProcessSteps(ctx context.Context, stepType string) ([]sitecontent.ProcessStep, error)
	Specifications(ctx context.Context) ([]sitecontent.Specification, error)
	Navigation(ctx context.Context, navType string) ([]sitecontent.NavigationItem, error)
	Footer(ctx context.Context, sectionType string) ([]sitecontent.FooterSection, error)
	SiteSettings(ctx context.Context) (*sitecontent.SiteSettings, error)
	Subscribe(ctx context.Context, req sitecontent.NewsletterSignupRequest) (*sitecontent.NewsletterSignup, error)
	SubmitContact(ctx context.Context, req sitecontent.ContactRequest) (*sitecontent.ContactForm, error)
	TrackPageView(ctx context.Context, req sitecontent.PageViewRequest) (*sitecontent.PageView, error)
}

var _ Backend = (*siteclient.Client)(nil)

// Queries runs backend reads through a query cache.
type Queries struct {
	backend Backend
	cache   *query.Client
}

func NewQueries(backend Backend, cache *query.Client) *Queries {
	return &Queries{backend: backend, cache: cache}
}

// Cache returns the underlying query cache.
func (q *Queries) Cache() *query.Client {
	return q.cache
}

// singleton turns a missing record into a nil result so that an empty
// collection is a success, not an error.
func singleton[T any](fn func(context.Context) (*T, error)) func(context.Context) (*T, error) {
	return func(ctx context.Context) (*T, error) {
		v, err := fn(ctx)
		if siteclient.KindOf(err) == sitecontent.KindNotFound {
			return nil, nil
		}
		return v, err
	}
}

func HeroKey() query.Key { return query.NewKey(query.TagHero) }

func (q *Queries) Hero(ctx context.Context) (*sitecontent.HeroContent, error) {
	return query.Fetch(ctx, q.cache, HeroKey(), singleton(q.backend.Hero))
}

func FeaturesKey(category string) query.Key {
	return query.NewKey(query.TagFeatures, category)
}

func (q *Queries) Features(ctx context.Context, category string) ([]sitecontent.Feature, error) {
	return query.Fetch(ctx, q.cache, FeaturesKey(category), func(ctx context.Context) ([]sitecontent.Feature, error) {
		return q.backend.Features(ctx, category)
	})
}

func TestimonialsKey(limit int) query.Key {
	return query.NewKey(query.TagTestimonials, limit)
}

func (q *Queries) Testimonials(ctx context.Context, limit int) ([]sitecontent.Testimonial, error) {
	return query.Fetch(ctx, q.cache, TestimonialsKey(limit), func(ctx context.Context) ([]sitecontent.Testimonial, error) {
		return q.backend.Testimonials(ctx, limit)
	})
}

func ProcessStepsKey(stepType string) query.Key {
	return query.NewKey(query.TagProcessSteps, stepType)
}

func (q *Queries) ProcessSteps(ctx context.Context, stepType string) ([]sitecontent.ProcessStep, error) {
	return query.Fetch(ctx, q.cache, ProcessStepsKey(stepType), func(ctx context.Context) ([]sitecontent.ProcessStep, error) {
		return q.backend.ProcessSteps(ctx, stepType)
	})
}

func SpecificationsKey() query.Key { return query.NewKey(query.TagSpecifications) }

func (q *Queries) Specifications(ctx context.Context) ([]sitecontent.Specification, error) {
	return query.Fetch(ctx, q.cache, SpecificationsKey(), q.backend.Specifications)
}

func NavigationKey(navType string) query.Key {
	return query.NewKey(query.TagNavigation, navType)
}

func (q *Queries) Navigation(ctx context.Context, navType string) ([]sitecontent.NavigationItem, error) {
	return query.Fetch(ctx, q.cache, NavigationKey(navType), func(ctx context.Context) ([]sitecontent.NavigationItem, error) {
		return q.backend.Navigation(ctx, navType)
	})
}

func FooterKey(sectionType string) query.Key {
	return query.NewKey(query.TagFooter, sectionType)
}

func (q *Queries) Footer(ctx context.Context, sectionType string) ([]sitecontent.FooterSection, error) {
	return query.Fetch(ctx, q.cache, FooterKey(sectionType), func(ctx context.Context) ([]sitecontent.FooterSection, error) {
		return q.backend.Footer(ctx, sectionType)
	})
}

func SiteSettingsKey() query.Key { return query.NewKey(query.TagSiteSettings) }

func (q *Queries) SiteSettings(ctx context.Context) (*sitecontent.SiteSettings, error) {
	return query.Fetch(ctx, q.cache, SiteSettingsKey(), singleton(q.backend.SiteSettings))
}

// Mutations. Signups, contact messages and page views live in collections
// the page never reads, so they invalidate nothing.

func (q *Queries) Subscribe(ctx context.Context, req sitecontent.NewsletterSignupRequest) (*sitecontent.NewsletterSignup, error) {
	return query.Mutate(ctx, q.cache, func(ctx context.Context) (*sitecontent.NewsletterSignup, error) {
		return q.backend.Subscribe(ctx, req)
	})
}

func (q *Queries) SubmitContact(ctx context.Context, req sitecontent.ContactRequest) (*sitecontent.ContactForm, error) {
	return query.Mutate(ctx, q.cache, func(ctx context.Context) (*sitecontent.ContactForm, error) {
		return q.backend.SubmitContact(ctx, req)
	})
}

func (q *Queries) TrackPageView(ctx context.Context, req sitecontent.PageViewRequest) error {
	_, err := query.Mutate(ctx, q.cache, func(ctx context.Context) (*sitecontent.PageView, error) {
		return q.backend.TrackPageView(ctx, req)
	})
	return err
}
