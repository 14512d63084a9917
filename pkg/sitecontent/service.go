package sitecontent

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the site content operations behind the content API
type Service interface {
	// Singletons
	GetHero(ctx context.Context) (*HeroContent, error)
	CreateHero(ctx context.Context, req CreateHeroRequest) (*HeroContent, error)
	GetSiteSettings(ctx context.Context) (*SiteSettings, error)
	CreateSiteSettings(ctx context.Context, req CreateSiteSettingsRequest) (*SiteSettings, error)

	// Ordered lists
	ListFeatures(ctx context.Context, category string, opts ListOptions) (*List[Feature], error)
	CreateFeature(ctx context.Context, req CreateFeatureRequest) (*Feature, error)
	UpdateFeature(ctx context.Context, id uuid.UUID, req UpdateFeatureRequest) (*Feature, error)
	ListTestimonials(ctx context.Context, limit int, opts ListOptions) (*List[Testimonial], error)
	CreateTestimonial(ctx context.Context, req CreateTestimonialRequest) (*Testimonial, error)
	ListProcessSteps(ctx context.Context, stepType string, opts ListOptions) (*List[ProcessStep], error)
	CreateProcessStep(ctx context.Context, req CreateProcessStepRequest) (*ProcessStep, error)
	ListSpecifications(ctx context.Context, opts ListOptions) (*List[Specification], error)
	CreateSpecification(ctx context.Context, req CreateSpecificationRequest) (*Specification, error)
	ListNavigation(ctx context.Context, navType string, opts ListOptions) (*List[NavigationItem], error)
	CreateNavigationItem(ctx context.Context, req CreateNavigationItemRequest) (*NavigationItem, error)
	ListFooterSections(ctx context.Context, sectionType string, opts ListOptions) (*List[FooterSection], error)
	CreateFooterSection(ctx context.Context, req CreateFooterSectionRequest) (*FooterSection, error)

	// Deactivate soft-deletes a content record
	Deactivate(ctx context.Context, collection Collection, id uuid.UUID) error

	// Submissions
	Subscribe(ctx context.Context, req NewsletterSignupRequest) (*NewsletterSignup, error)
	ListSubscribers(ctx context.Context, status string, opts ListOptions) (*List[NewsletterSignup], error)
	SubmitContact(ctx context.Context, req ContactRequest) (*ContactForm, error)
	TrackPageView(ctx context.Context, req PageViewRequest) (*PageView, error)

	// Search matches text across the searchable collections
	Search(ctx context.Context, req SearchRequest) ([]SearchHit, error)

	// Media
	UploadMedia(ctx context.Context, req UploadMediaRequest) (*MediaAsset, error)
	DownloadMedia(ctx context.Context, key string) (io.ReadCloser, *MediaAsset, error)

	// CacheStats reports the cache backend statistics
	CacheStats(ctx context.Context) (CacheStats, error)
}
