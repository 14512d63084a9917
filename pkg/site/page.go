// Package site renders the marketing page from content API queries.
package site

import (
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-site/pkg/sitecontent"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultHero is shown when no hero record exists or it cannot be loaded.
var DefaultHero = sitecontent.HeroContent{
	Title:           "Atlas: Where Code Meets Motion",
	Subtitle:        "Purpose",
	Description:     "The humanoid companion that learns and adapts alongside you.",
	CTAText:         "Request Access",
	CTALink:         "#get-access",
	BackgroundImage: "/Header-background.webp",
}

const defaultSiteTitle = "Atlas"

// Notice is the outcome of a form post, shown next to the form.
type Notice struct {
	Form    string
	Success bool
	Message string
}

// PageData is the template input of one page render.
type PageData struct {
	Title          string
	Settings       *sitecontent.SiteSettings
	Navigation     View[[]sitecontent.NavigationItem]
	Hero           View[sitecontent.HeroContent]
	Features       View[[]sitecontent.Feature]
	ProcessSteps   View[[]sitecontent.ProcessStep]
	Specifications View[[]sitecontent.Specification]
	Testimonials   View[[]sitecontent.Testimonial]
	Footer         View[[]sitecontent.FooterSection]
	Notice         *Notice
}

// Page renders the single site page.
type Page struct {
	queries *Queries
	tmpl    *template.Template
	logger  *slog.Logger
	timeout time.Duration
}

type PageOption func(*Page)

func WithPageLogger(logger *slog.Logger) PageOption {
	return func(p *Page) {
		p.logger = logger
	}
}

// WithLoadTimeout bounds how long a render waits for its queries. Sections
// still loading when it passes render as skeletons.
func WithLoadTimeout(d time.Duration) PageOption {
	return func(p *Page) {
		p.timeout = d
	}
}

func NewPage(queries *Queries, opts ...PageOption) (*Page, error) {
	tmpl, err := template.New("page.html").Funcs(template.FuncMap{
		// Icons are authored in the content store.
		"svg":   func(s string) template.HTML { return template.HTML(s) },
		"stars": func(n int) string { return strings.Repeat("★", n) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	p := &Page{
		queries: queries,
		tmpl:    tmpl,
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// mounter is the type-independent face of a Section.
type mounter interface {
	Name() string
	Mount(ctx context.Context) error
	Unmount()
}

// Load runs every section's query and collects their views.
func (p *Page) Load(ctx context.Context) *PageData {
	q := p.queries
	cache := q.Cache()

	settings := NewSection("site_settings", cache, SiteSettingsKey(), q.SiteSettings)
	nav := NewSection("navigation", cache, NavigationKey(sitecontent.DefaultNavType), func(ctx context.Context) ([]sitecontent.NavigationItem, error) {
		return q.Navigation(ctx, sitecontent.DefaultNavType)
	})
	hero := NewSection("hero", cache, HeroKey(), q.Hero)
	features := NewSection("features", cache, FeaturesKey(""), func(ctx context.Context) ([]sitecontent.Feature, error) {
		return q.Features(ctx, "")
	})
	steps := NewSection("process_steps", cache, ProcessStepsKey(""), func(ctx context.Context) ([]sitecontent.ProcessStep, error) {
		return q.ProcessSteps(ctx, "")
	})
	specs := NewSection("specifications", cache, SpecificationsKey(), q.Specifications)
	testimonials := NewSection("testimonials", cache, TestimonialsKey(0), func(ctx context.Context) ([]sitecontent.Testimonial, error) {
		return q.Testimonials(ctx, 0)
	})
	footer := NewSection("footer", cache, FooterKey(""), func(ctx context.Context) ([]sitecontent.FooterSection, error) {
		return q.Footer(ctx, "")
	})

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sections := []mounter{settings, nav, hero, features, steps, specs, testimonials, footer}
	var g errgroup.Group
	for _, s := range sections {
		s := s
		g.Go(func() error {
			if err := s.Mount(ctx); err != nil {
				p.logger.WarnContext(ctx, "section failed to load", "section", s.Name(), "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, s := range sections {
		s.Unmount()
	}

	data := &PageData{
		Title:          defaultSiteTitle,
		Navigation:     nav.View(),
		Hero:           resolveHero(hero.View()),
		Features:       features.View(),
		ProcessSteps:   steps.View(),
		Specifications: specs.View(),
		Testimonials:   testimonials.View(),
		Footer:         footer.View(),
	}
	if v := settings.View(); v.Phase == PhaseReady && v.Data != nil {
		data.Settings = v.Data
		if v.Data.SiteTitle != "" {
			data.Title = v.Data.SiteTitle
		}
	}
	return data
}

// resolveHero substitutes DefaultHero for a missing or failed hero.
func resolveHero(v View[*sitecontent.HeroContent]) View[sitecontent.HeroContent] {
	switch {
	case v.Phase == PhaseSkeleton:
		return View[sitecontent.HeroContent]{Phase: PhaseSkeleton}
	case v.Phase == PhaseReady && v.Data != nil:
		return View[sitecontent.HeroContent]{Phase: PhaseReady, Data: *v.Data}
	}
	return View[sitecontent.HeroContent]{Phase: PhaseReady, Data: DefaultHero, Err: v.Err}
}

// Render loads the page and writes it to w.
func (p *Page) Render(ctx context.Context, w io.Writer, notice *Notice) error {
	data := p.Load(ctx)
	data.Notice = notice
	return p.tmpl.Execute(w, data)
}
