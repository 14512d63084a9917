// Package seed loads the default Atlas site content.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Data is a complete set of site content.
type Data struct {
	Hero           sitecontent.CreateHeroRequest
	Features       []sitecontent.CreateFeatureRequest
	Testimonials   []sitecontent.CreateTestimonialRequest
	ProcessSteps   []sitecontent.CreateProcessStepRequest
	Specifications []sitecontent.CreateSpecificationRequest
	Navigation     []sitecontent.CreateNavigationItemRequest
	Footer         []sitecontent.CreateFooterSectionRequest
	SiteSettings   sitecontent.CreateSiteSettingsRequest
}

// Summary counts the records created by Apply.
type Summary struct {
	Skipped        bool
	Hero           int
	Features       int
	Testimonials   int
	ProcessSteps   int
	Specifications int
	Navigation     int
	Footer         int
	SiteSettings   int
}

// Options controls Apply.
type Options struct {
	// OnlyIfEmpty skips seeding when a hero record already exists.
	OnlyIfEmpty bool
	Logger      *slog.Logger
}

// Writer is the part of sitecontent.Service that seeding needs. A remote
// API client can stand in for the service.
type Writer interface {
	GetHero(ctx context.Context) (*sitecontent.HeroContent, error)
	CreateHero(ctx context.Context, req sitecontent.CreateHeroRequest) (*sitecontent.HeroContent, error)
	CreateFeature(ctx context.Context, req sitecontent.CreateFeatureRequest) (*sitecontent.Feature, error)
	CreateTestimonial(ctx context.Context, req sitecontent.CreateTestimonialRequest) (*sitecontent.Testimonial, error)
	CreateProcessStep(ctx context.Context, req sitecontent.CreateProcessStepRequest) (*sitecontent.ProcessStep, error)
	CreateSpecification(ctx context.Context, req sitecontent.CreateSpecificationRequest) (*sitecontent.Specification, error)
	CreateNavigationItem(ctx context.Context, req sitecontent.CreateNavigationItemRequest) (*sitecontent.NavigationItem, error)
	CreateFooterSection(ctx context.Context, req sitecontent.CreateFooterSectionRequest) (*sitecontent.FooterSection, error)
	CreateSiteSettings(ctx context.Context, req sitecontent.CreateSiteSettingsRequest) (*sitecontent.SiteSettings, error)
}

var _ Writer = sitecontent.Service(nil)

// Apply creates every record of data through svc, so validation and cache
// invalidation run as for API writes.
func Apply(ctx context.Context, svc Writer, data Data, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var sum Summary

	if opts.OnlyIfEmpty {
		_, err := svc.GetHero(ctx)
		switch {
		case err == nil:
			logger.InfoContext(ctx, "content already present, skipping seed")
			sum.Skipped = true
			return sum, nil
		case sitecontent.KindOf(err) != sitecontent.KindNotFound:
			return sum, fmt.Errorf("check existing content: %w", err)
		}
	}

	if _, err := svc.CreateHero(ctx, data.Hero); err != nil {
		return sum, fmt.Errorf("seed hero: %w", err)
	}
	sum.Hero = 1

	for _, req := range data.Features {
		if _, err := svc.CreateFeature(ctx, req); err != nil {
			return sum, fmt.Errorf("seed feature %q: %w", req.Title, err)
		}
		sum.Features++
	}
	for _, req := range data.Testimonials {
		if _, err := svc.CreateTestimonial(ctx, req); err != nil {
			return sum, fmt.Errorf("seed testimonial by %q: %w", req.Author, err)
		}
		sum.Testimonials++
	}
	for _, req := range data.ProcessSteps {
		if _, err := svc.CreateProcessStep(ctx, req); err != nil {
			return sum, fmt.Errorf("seed process step %q: %w", req.Title, err)
		}
		sum.ProcessSteps++
	}
	for _, req := range data.Specifications {
		if _, err := svc.CreateSpecification(ctx, req); err != nil {
			return sum, fmt.Errorf("seed specification %q: %w", req.SectionTitle, err)
		}
		sum.Specifications++
	}
	for _, req := range data.Navigation {
		if _, err := svc.CreateNavigationItem(ctx, req); err != nil {
			return sum, fmt.Errorf("seed navigation %q: %w", req.Label, err)
		}
		sum.Navigation++
	}
	for _, req := range data.Footer {
		if _, err := svc.CreateFooterSection(ctx, req); err != nil {
			return sum, fmt.Errorf("seed footer %q: %w", req.Title, err)
		}
		sum.Footer++
	}
	if _, err := svc.CreateSiteSettings(ctx, data.SiteSettings); err != nil {
		return sum, fmt.Errorf("seed site settings: %w", err)
	}
	sum.SiteSettings = 1

	logger.InfoContext(ctx, "seeded site content",
		"features", sum.Features,
		"testimonials", sum.Testimonials,
		"process_steps", sum.ProcessSteps,
		"specifications", sum.Specifications,
		"navigation", sum.Navigation,
		"footer", sum.Footer,
	)
	return sum, nil
}

// ErrEmpty is returned by Validate for data without a hero.
var ErrEmpty = errors.New("seed data has no hero")

// Validate checks every request of data without writing anything.
func (d Data) Validate() error {
	if d.Hero.Title == "" {
		return ErrEmpty
	}
	errs := []error{d.Hero.Validate(), d.SiteSettings.Validate()}
	for _, r := range d.Features {
		errs = append(errs, r.Validate())
	}
	for _, r := range d.Testimonials {
		errs = append(errs, r.Validate())
	}
	for _, r := range d.ProcessSteps {
		errs = append(errs, r.Validate())
	}
	for _, r := range d.Specifications {
		errs = append(errs, r.Validate())
	}
	for _, r := range d.Navigation {
		errs = append(errs, r.Validate())
	}
	for _, r := range d.Footer {
		errs = append(errs, r.Validate())
	}
	return errors.Join(errs...)
}
