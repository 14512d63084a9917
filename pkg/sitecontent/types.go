package sitecontent

import (
	"time"

	"github.com/google/uuid"
)

// Collection names a persisted content collection.
type Collection string

// Collection constants (typed). Values double as storage collection names.
const (
	CollectionHero              Collection = "hero_content"
	CollectionFeatures          Collection = "features"
	CollectionTestimonials      Collection = "testimonials"
	CollectionProcessSteps      Collection = "process_steps"
	CollectionSpecifications    Collection = "specifications"
	CollectionNavigation        Collection = "navigation"
	CollectionFooterSections    Collection = "footer_sections"
	CollectionSiteSettings      Collection = "site_settings"
	CollectionNewsletterSignups Collection = "newsletter_signups"
	CollectionContactForms      Collection = "contact_forms"
	CollectionPageViews         Collection = "page_views"
)

// Collections lists every known collection.
var Collections = []Collection{
	CollectionHero,
	CollectionFeatures,
	CollectionTestimonials,
	CollectionProcessSteps,
	CollectionSpecifications,
	CollectionNavigation,
	CollectionFooterSections,
	CollectionSiteSettings,
	CollectionNewsletterSignups,
	CollectionContactForms,
	CollectionPageViews,
}

// IsValid reports whether c is a known collection.
func (c Collection) IsValid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// IsSingleton reports whether the collection holds at most one current
// active record.
func (c Collection) IsSingleton() bool {
	return c == CollectionHero || c == CollectionSiteSettings
}

// IsContent reports whether the collection is public, ordered site content
// (as opposed to form submissions and analytics).
func (c Collection) IsContent() bool {
	switch c {
	case CollectionHero, CollectionFeatures, CollectionTestimonials, CollectionProcessSteps,
		CollectionSpecifications, CollectionNavigation, CollectionFooterSections, CollectionSiteSettings:
		return true
	}
	return false
}

// CollectionFromPath maps an API path segment to a collection.
func CollectionFromPath(segment string) (Collection, bool) {
	switch segment {
	case "hero":
		return CollectionHero, true
	case "features":
		return CollectionFeatures, true
	case "testimonials":
		return CollectionTestimonials, true
	case "process-steps":
		return CollectionProcessSteps, true
	case "specifications":
		return CollectionSpecifications, true
	case "navigation":
		return CollectionNavigation, true
	case "footer":
		return CollectionFooterSections, true
	case "site-settings":
		return CollectionSiteSettings, true
	}
	return "", false
}

// Base holds the fields every record shares.
type Base struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsActive  bool      `json:"is_active"`
	Order     int       `json:"order"`
}

// Meta returns the shared record fields.
func (b *Base) Meta() *Base { return b }

// Record is implemented by every stored content type.
type Record interface {
	Meta() *Base
	Collection() Collection
	// IndexAttrs returns the attributes the store filters on.
	IndexAttrs() map[string]string
}

// HeroContent is the hero section singleton.
type HeroContent struct {
	Base
	Title              string  `json:"title"`
	Subtitle           string  `json:"subtitle"`
	Description        string  `json:"description"`
	CTAText            string  `json:"cta_text"`
	CTALink            string  `json:"cta_link"`
	BackgroundImage    string  `json:"background_image"`
	LottieAnimationURL *string `json:"lottie_animation_url,omitempty"`
	HeroImage          *string `json:"hero_image,omitempty"`
}

func (*HeroContent) Collection() Collection        { return CollectionHero }
func (*HeroContent) IndexAttrs() map[string]string { return nil }

// Feature is a product feature card.
type Feature struct {
	Base
	Title       string `json:"title"`
	Description string `json:"description"`
	IconSVG     string `json:"icon_svg"`
	Category    string `json:"category"`
}

func (*Feature) Collection() Collection { return CollectionFeatures }
func (f *Feature) IndexAttrs() map[string]string {
	return map[string]string{"category": f.Category}
}

// Testimonial is a customer quote.
type Testimonial struct {
	Base
	Content         string `json:"content"`
	Author          string `json:"author"`
	Role            string `json:"role"`
	Company         string `json:"company"`
	Gradient        string `json:"gradient"`
	BackgroundImage string `json:"background_image"`
	Rating          int    `json:"rating"`
}

func (*Testimonial) Collection() Collection        { return CollectionTestimonials }
func (*Testimonial) IndexAttrs() map[string]string { return nil }

// ProcessStep is one step of a "how it works" sequence.
type ProcessStep struct {
	Base
	Number      string `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	StepType    string `json:"step_type"`
}

func (*ProcessStep) Collection() Collection { return CollectionProcessSteps }
func (p *ProcessStep) IndexAttrs() map[string]string {
	return map[string]string{"step_type": p.StepType}
}

// Specification is an ordered specification section.
type Specification struct {
	Base
	SectionTitle    string  `json:"section_title"`
	SectionSubtitle string  `json:"section_subtitle"`
	Content         string  `json:"content"`
	SectionNumber   string  `json:"section_number"`
	BackgroundImage *string `json:"background_image,omitempty"`
}

func (*Specification) Collection() Collection        { return CollectionSpecifications }
func (*Specification) IndexAttrs() map[string]string { return nil }

// NavigationItem is a menu entry. Children reference their parent by id;
// nothing cascades when a parent goes away.
type NavigationItem struct {
	Base
	Label    string     `json:"label"`
	Href     string     `json:"href"`
	Target   string     `json:"target"`
	NavType  string     `json:"nav_type"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

func (*NavigationItem) Collection() Collection { return CollectionNavigation }
func (n *NavigationItem) IndexAttrs() map[string]string {
	attrs := map[string]string{"nav_type": n.NavType}
	if n.ParentID != nil {
		attrs["parent_id"] = n.ParentID.String()
	}
	return attrs
}

// FooterLink is a (text, url) pair inside a footer section.
type FooterLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// FooterSection is a footer column with ordered links.
type FooterSection struct {
	Base
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	SectionType string       `json:"section_type"`
	Links       []FooterLink `json:"links"`
}

func (*FooterSection) Collection() Collection { return CollectionFooterSections }
func (f *FooterSection) IndexAttrs() map[string]string {
	return map[string]string{"section_type": f.SectionType}
}

// SiteSettings is the global site configuration singleton.
type SiteSettings struct {
	Base
	SiteTitle       string            `json:"site_title"`
	SiteDescription string            `json:"site_description"`
	LogoURL         string            `json:"logo_url"`
	FaviconURL      string            `json:"favicon_url"`
	PrimaryColor    string            `json:"primary_color"`
	SecondaryColor  string            `json:"secondary_color"`
	ContactEmail    string            `json:"contact_email"`
	ContactPhone    *string           `json:"contact_phone,omitempty"`
	SocialLinks     map[string]string `json:"social_links"`
	AnalyticsCode   *string           `json:"analytics_code,omitempty"`
	SEOKeywords     []string          `json:"seo_keywords"`
}

func (*SiteSettings) Collection() Collection        { return CollectionSiteSettings }
func (*SiteSettings) IndexAttrs() map[string]string { return nil }

// Subscription statuses.
const (
	SubscriptionSubscribed   = "subscribed"
	SubscriptionUnsubscribed = "unsubscribed"
	SubscriptionPending      = "pending"
)

// NewsletterSignup is a newsletter subscription.
type NewsletterSignup struct {
	Base
	Email     string   `json:"email"`
	Name      *string  `json:"name,omitempty"`
	Interests []string `json:"interests"`
	Source    string   `json:"source"`
	Status    string   `json:"status"`
}

func (*NewsletterSignup) Collection() Collection { return CollectionNewsletterSignups }
func (n *NewsletterSignup) IndexAttrs() map[string]string {
	return map[string]string{"email": n.Email, "status": n.Status}
}

// Contact form statuses.
const (
	ContactStatusNew        = "new"
	ContactStatusInProgress = "in_progress"
	ContactStatusResolved   = "resolved"
	ContactStatusClosed     = "closed"
)

// ContactForm is a submitted contact request.
type ContactForm struct {
	Base
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Subject string  `json:"subject"`
	Message string  `json:"message"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
	Status  string  `json:"status"`
}

func (*ContactForm) Collection() Collection { return CollectionContactForms }
func (c *ContactForm) IndexAttrs() map[string]string {
	return map[string]string{"status": c.Status}
}

// PageView is a tracked page view.
type PageView struct {
	Base
	PagePath   string    `json:"page_path"`
	Referrer   *string   `json:"referrer,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	SessionID  *string   `json:"session_id,omitempty"`
	Country    *string   `json:"country,omitempty"`
	DeviceType *string   `json:"device_type,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (*PageView) Collection() Collection { return CollectionPageViews }
func (p *PageView) IndexAttrs() map[string]string {
	return map[string]string{"page_path": p.PagePath}
}

// Document is the storage form of a record. Body carries the record JSON;
// the other fields are authoritative copies the store indexes on.
type Document struct {
	Collection Collection
	ID         uuid.UUID
	IsActive   bool
	Order      int
	Attrs      map[string]string
	Body       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	if d.Attrs != nil {
		c.Attrs = make(map[string]string, len(d.Attrs))
		for k, v := range d.Attrs {
			c.Attrs[k] = v
		}
	}
	c.Body = append([]byte(nil), d.Body...)
	return &c
}

// List is an ordered result set, optionally a page of a larger one.
type List[T any] struct {
	Items      []*T `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page,omitempty"`
	PerPage    int  `json:"per_page,omitempty"`
	TotalPages int  `json:"total_pages,omitempty"`
	Paginated  bool `json:"paginated,omitempty"`
}

// ListOptions selects a page. A zero PerPage returns the whole list.
type ListOptions struct {
	Page    int
	PerPage int
}

// Paginated reports whether a page was requested.
func (o ListOptions) Paginated() bool {
	return o.PerPage > 0
}

// MediaAsset describes an uploaded media object (image, animation).
type MediaAsset struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// CacheStats reports cache backend statistics.
type CacheStats struct {
	Backend string            `json:"backend"`
	Entries int64             `json:"cache_size"`
	Hits    int64             `json:"cache_hits"`
	Misses  int64             `json:"cache_misses"`
	Sets    int64             `json:"cache_sets"`
	Deletes int64             `json:"cache_deletes"`
	HitRate float64           `json:"hit_rate"`
	Details map[string]string `json:"details,omitempty"`
}
