package sitecontent

import (
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// Defaults applied when a request leaves a field empty.
const (
	DefaultFeatureCategory = "general"
	DefaultStepType        = "process"
	DefaultNavType         = "main"
	DefaultNavTarget       = "_self"
	DefaultSignupSource    = "website"
	DefaultRating          = 5
	DefaultTestimonials    = 10
	MaxTestimonials        = 100
)

// Known navigation and footer section types.
var (
	NavTypes          = []string{"main", "footer", "mobile"}
	FooterSectionKind = []string{"about", "contact", "social", "legal"}
)

// SearchableCollections are the collections Search may be restricted to.
var SearchableCollections = []Collection{
	CollectionFeatures,
	CollectionTestimonials,
	CollectionProcessSteps,
	CollectionSpecifications,
}

type problems []string

func (p *problems) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		*p = append(*p, field+" is required")
	}
}

func (p *problems) email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		*p = append(*p, field+" is required")
		return
	}
	if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
		*p = append(*p, field+" must be a valid email address")
	}
}

func (p *problems) oneOf(field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	*p = append(*p, fmt.Sprintf("%s must be one of %s", field, strings.Join(allowed, ", ")))
}

func (p problems) err(op string, c Collection) error {
	if len(p) == 0 {
		return nil
	}
	return ValidationError(op, c, p...)
}

// CreateHeroRequest contains parameters for creating hero content
type CreateHeroRequest struct {
	Title              string  `json:"title"`
	Subtitle           string  `json:"subtitle"`
	Description        string  `json:"description"`
	CTAText            string  `json:"cta_text"`
	CTALink            string  `json:"cta_link"`
	BackgroundImage    string  `json:"background_image"`
	LottieAnimationURL *string `json:"lottie_animation_url,omitempty"`
	HeroImage          *string `json:"hero_image,omitempty"`
	Order              int     `json:"order"`
}

func (r CreateHeroRequest) Validate() error {
	var p problems
	p.require("title", r.Title)
	p.require("subtitle", r.Subtitle)
	p.require("description", r.Description)
	p.require("cta_text", r.CTAText)
	p.require("cta_link", r.CTALink)
	p.require("background_image", r.BackgroundImage)
	return p.err("create", CollectionHero)
}

func (r CreateHeroRequest) record() *HeroContent {
	return &HeroContent{
		Base:               Base{Order: r.Order},
		Title:              r.Title,
		Subtitle:           r.Subtitle,
		Description:        r.Description,
		CTAText:            r.CTAText,
		CTALink:            r.CTALink,
		BackgroundImage:    r.BackgroundImage,
		LottieAnimationURL: r.LottieAnimationURL,
		HeroImage:          r.HeroImage,
	}
}

// CreateFeatureRequest contains parameters for creating a feature
type CreateFeatureRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IconSVG     string `json:"icon_svg"`
	Category    string `json:"category,omitempty"`
	Order       int    `json:"order"`
}

func (r CreateFeatureRequest) Validate() error {
	var p problems
	p.require("title", r.Title)
	p.require("description", r.Description)
	p.require("icon_svg", r.IconSVG)
	return p.err("create", CollectionFeatures)
}

func (r CreateFeatureRequest) record() *Feature {
	category := r.Category
	if category == "" {
		category = DefaultFeatureCategory
	}
	return &Feature{
		Base:        Base{Order: r.Order},
		Title:       r.Title,
		Description: r.Description,
		IconSVG:     r.IconSVG,
		Category:    category,
	}
}

// UpdateFeatureRequest replaces the fields that are set. A request carrying
// every field is a full replacement.
type UpdateFeatureRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IconSVG     *string `json:"icon_svg,omitempty"`
	Category    *string `json:"category,omitempty"`
	Order       *int    `json:"order,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r UpdateFeatureRequest) Validate() error {
	var p problems
	if r.Title != nil {
		p.require("title", *r.Title)
	}
	if r.Description != nil {
		p.require("description", *r.Description)
	}
	if r.IconSVG != nil {
		p.require("icon_svg", *r.IconSVG)
	}
	if r.Title == nil && r.Description == nil && r.IconSVG == nil && r.Category == nil && r.Order == nil && r.IsActive == nil {
		p = append(p, "at least one field must be provided")
	}
	return p.err("update", CollectionFeatures)
}

func (r UpdateFeatureRequest) apply(f *Feature) {
	if r.Title != nil {
		f.Title = *r.Title
	}
	if r.Description != nil {
		f.Description = *r.Description
	}
	if r.IconSVG != nil {
		f.IconSVG = *r.IconSVG
	}
	if r.Category != nil {
		f.Category = *r.Category
		if f.Category == "" {
			f.Category = DefaultFeatureCategory
		}
	}
	if r.Order != nil {
		f.Order = *r.Order
	}
	if r.IsActive != nil {
		f.IsActive = *r.IsActive
	}
}

// CreateTestimonialRequest contains parameters for creating a testimonial
type CreateTestimonialRequest struct {
	Content         string `json:"content"`
	Author          string `json:"author"`
	Role            string `json:"role"`
	Company         string `json:"company"`
	Gradient        string `json:"gradient"`
	BackgroundImage string `json:"background_image"`
	Rating          *int   `json:"rating,omitempty"`
	Order           int    `json:"order"`
}

func (r CreateTestimonialRequest) Validate() error {
	var p problems
	p.require("content", r.Content)
	p.require("author", r.Author)
	p.require("role", r.Role)
	p.require("company", r.Company)
	p.require("gradient", r.Gradient)
	p.require("background_image", r.BackgroundImage)
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		p = append(p, "rating must be between 1 and 5")
	}
	return p.err("create", CollectionTestimonials)
}

func (r CreateTestimonialRequest) record() *Testimonial {
	rating := DefaultRating
	if r.Rating != nil {
		rating = *r.Rating
	}
	return &Testimonial{
		Base:            Base{Order: r.Order},
		Content:         r.Content,
		Author:          r.Author,
		Role:            r.Role,
		Company:         r.Company,
		Gradient:        r.Gradient,
		BackgroundImage: r.BackgroundImage,
		Rating:          rating,
	}
}

// CreateProcessStepRequest contains parameters for creating a process step
type CreateProcessStepRequest struct {
	Number      string `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	StepType    string `json:"step_type,omitempty"`
	Order       int    `json:"order"`
}

func (r CreateProcessStepRequest) Validate() error {
	var p problems
	p.require("number", r.Number)
	p.require("title", r.Title)
	p.require("description", r.Description)
	p.require("image_url", r.ImageURL)
	return p.err("create", CollectionProcessSteps)
}

func (r CreateProcessStepRequest) record() *ProcessStep {
	stepType := r.StepType
	if stepType == "" {
		stepType = DefaultStepType
	}
	return &ProcessStep{
		Base:        Base{Order: r.Order},
		Number:      r.Number,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		StepType:    stepType,
	}
}

// CreateSpecificationRequest contains parameters for creating a specification
type CreateSpecificationRequest struct {
	SectionTitle    string  `json:"section_title"`
	SectionSubtitle string  `json:"section_subtitle"`
	Content         string  `json:"content"`
	SectionNumber   string  `json:"section_number"`
	BackgroundImage *string `json:"background_image,omitempty"`
	Order           int     `json:"order"`
}

func (r CreateSpecificationRequest) Validate() error {
	var p problems
	p.require("section_title", r.SectionTitle)
	p.require("section_subtitle", r.SectionSubtitle)
	p.require("content", r.Content)
	p.require("section_number", r.SectionNumber)
	return p.err("create", CollectionSpecifications)
}

func (r CreateSpecificationRequest) record() *Specification {
	return &Specification{
		Base:            Base{Order: r.Order},
		SectionTitle:    r.SectionTitle,
		SectionSubtitle: r.SectionSubtitle,
		Content:         r.Content,
		SectionNumber:   r.SectionNumber,
		BackgroundImage: r.BackgroundImage,
	}
}

// CreateNavigationItemRequest contains parameters for creating a navigation item
type CreateNavigationItemRequest struct {
	Label    string     `json:"label"`
	Href     string     `json:"href"`
	Target   string     `json:"target,omitempty"`
	NavType  string     `json:"nav_type,omitempty"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Order    int        `json:"order"`
}

func (r CreateNavigationItemRequest) Validate() error {
	var p problems
	p.require("label", r.Label)
	p.require("href", r.Href)
	p.oneOf("nav_type", r.NavType, NavTypes)
	return p.err("create", CollectionNavigation)
}

func (r CreateNavigationItemRequest) record() *NavigationItem {
	target := r.Target
	if target == "" {
		target = DefaultNavTarget
	}
	navType := r.NavType
	if navType == "" {
		navType = DefaultNavType
	}
	return &NavigationItem{
		Base:     Base{Order: r.Order},
		Label:    r.Label,
		Href:     r.Href,
		Target:   target,
		NavType:  navType,
		ParentID: r.ParentID,
	}
}

// CreateFooterSectionRequest contains parameters for creating a footer section
type CreateFooterSectionRequest struct {
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	SectionType string       `json:"section_type"`
	Links       []FooterLink `json:"links,omitempty"`
	Order       int          `json:"order"`
}

func (r CreateFooterSectionRequest) Validate() error {
	var p problems
	p.require("title", r.Title)
	p.require("section_type", r.SectionType)
	p.oneOf("section_type", r.SectionType, FooterSectionKind)
	for i, l := range r.Links {
		if strings.TrimSpace(l.Text) == "" || strings.TrimSpace(l.URL) == "" {
			p = append(p, fmt.Sprintf("links[%d] needs text and url", i))
		}
	}
	return p.err("create", CollectionFooterSections)
}

func (r CreateFooterSectionRequest) record() *FooterSection {
	links := r.Links
	if links == nil {
		links = []FooterLink{}
	}
	return &FooterSection{
		Base:        Base{Order: r.Order},
		Title:       r.Title,
		Content:     r.Content,
		SectionType: r.SectionType,
		Links:       links,
	}
}

// CreateSiteSettingsRequest contains parameters for creating site settings
type CreateSiteSettingsRequest struct {
	SiteTitle       string            `json:"site_title"`
	SiteDescription string            `json:"site_description"`
	LogoURL         string            `json:"logo_url"`
	FaviconURL      string            `json:"favicon_url"`
	PrimaryColor    string            `json:"primary_color"`
	SecondaryColor  string            `json:"secondary_color"`
	ContactEmail    string            `json:"contact_email"`
	ContactPhone    *string           `json:"contact_phone,omitempty"`
	SocialLinks     map[string]string `json:"social_links,omitempty"`
	AnalyticsCode   *string           `json:"analytics_code,omitempty"`
	SEOKeywords     []string          `json:"seo_keywords,omitempty"`
}

func (r CreateSiteSettingsRequest) Validate() error {
	var p problems
	p.require("site_title", r.SiteTitle)
	p.require("site_description", r.SiteDescription)
	p.require("logo_url", r.LogoURL)
	p.require("favicon_url", r.FaviconURL)
	p.require("primary_color", r.PrimaryColor)
	p.require("secondary_color", r.SecondaryColor)
	p.email("contact_email", r.ContactEmail)
	return p.err("create", CollectionSiteSettings)
}

func (r CreateSiteSettingsRequest) record() *SiteSettings {
	social := r.SocialLinks
	if social == nil {
		social = map[string]string{}
	}
	keywords := r.SEOKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return &SiteSettings{
		SiteTitle:       r.SiteTitle,
		SiteDescription: r.SiteDescription,
		LogoURL:         r.LogoURL,
		FaviconURL:      r.FaviconURL,
		PrimaryColor:    r.PrimaryColor,
		SecondaryColor:  r.SecondaryColor,
		ContactEmail:    r.ContactEmail,
		ContactPhone:    r.ContactPhone,
		SocialLinks:     social,
		AnalyticsCode:   r.AnalyticsCode,
		SEOKeywords:     keywords,
	}
}

// NewsletterSignupRequest contains parameters for a newsletter signup
type NewsletterSignupRequest struct {
	Email     string   `json:"email"`
	Name      *string  `json:"name,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Source    string   `json:"source,omitempty"`
}

func (r NewsletterSignupRequest) Validate() error {
	var p problems
	p.email("email", r.Email)
	return p.err("signup", CollectionNewsletterSignups)
}

func (r NewsletterSignupRequest) record() *NewsletterSignup {
	source := r.Source
	if source == "" {
		source = DefaultSignupSource
	}
	interests := r.Interests
	if interests == nil {
		interests = []string{}
	}
	return &NewsletterSignup{
		Email:     normalizeEmail(r.Email),
		Name:      r.Name,
		Interests: interests,
		Source:    source,
		Status:    SubscriptionSubscribed,
	}
}

// ContactRequest contains the fields of a submitted contact form
type ContactRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Subject string  `json:"subject"`
	Message string  `json:"message"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
}

func (r ContactRequest) Validate() error {
	var p problems
	p.require("name", r.Name)
	p.email("email", r.Email)
	p.require("subject", r.Subject)
	p.require("message", r.Message)
	return p.err("submit", CollectionContactForms)
}

func (r ContactRequest) record() *ContactForm {
	return &ContactForm{
		Name:    r.Name,
		Email:   strings.TrimSpace(r.Email),
		Subject: r.Subject,
		Message: r.Message,
		Phone:   r.Phone,
		Company: r.Company,
		Status:  ContactStatusNew,
	}
}

// PageViewRequest contains the fields of a tracked page view
type PageViewRequest struct {
	PagePath   string  `json:"page_path"`
	Referrer   *string `json:"referrer,omitempty"`
	UserAgent  *string `json:"user_agent,omitempty"`
	IPAddress  *string `json:"ip_address,omitempty"`
	SessionID  *string `json:"session_id,omitempty"`
	Country    *string `json:"country,omitempty"`
	DeviceType *string `json:"device_type,omitempty"`
}

func (r PageViewRequest) Validate() error {
	var p problems
	p.require("page_path", r.PagePath)
	return p.err("track", CollectionPageViews)
}

func (r PageViewRequest) record() *PageView {
	return &PageView{
		PagePath:   r.PagePath,
		Referrer:   r.Referrer,
		UserAgent:  r.UserAgent,
		IPAddress:  r.IPAddress,
		SessionID:  r.SessionID,
		Country:    r.Country,
		DeviceType: r.DeviceType,
	}
}

// SearchRequest contains search parameters. ContentType optionally
// restricts the search to one collection.
type SearchRequest struct {
	Query       string
	ContentType string
}

func (r SearchRequest) Validate() error {
	var p problems
	p.require("query", r.Query)
	if r.ContentType != "" {
		allowed := make([]string, len(SearchableCollections))
		for i, c := range SearchableCollections {
			allowed[i] = string(c)
		}
		p.oneOf("content_type", r.ContentType, allowed)
	}
	return p.err("search", "")
}

// UploadMediaRequest contains parameters for uploading a media asset
type UploadMediaRequest struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	// Folder groups assets under a key prefix, e.g. "hero".
	Folder string
}

func (r UploadMediaRequest) Validate() error {
	var p problems
	if r.Reader == nil {
		p = append(p, "file is required")
	}
	p.require("file_name", r.FileName)
	if strings.Contains(r.Folder, "..") {
		p = append(p, "folder must not contain '..'")
	}
	return p.err("upload", "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
