package site

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-site/pkg/query"
	"github.com/tendant/simple-site/pkg/siteclient"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/api"
	"github.com/tendant/simple-site/pkg/sitecontent/cache"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
	"github.com/tendant/simple-site/pkg/sitecontent/seed"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Hero(ctx context.Context) (*sitecontent.HeroContent, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*sitecontent.HeroContent)
	return v, args.Error(1)
}

func (m *mockBackend) Features(ctx context.Context, category string) ([]sitecontent.Feature, error) {
	args := m.Called(ctx, category)
	v, _ := args.Get(0).([]sitecontent.Feature)
	return v, args.Error(1)
}

func (m *mockBackend) Testimonials(ctx context.Context, limit int) ([]sitecontent.Testimonial, error) {
	args := m.Called(ctx, limit)
	v, _ := args.Get(0).([]sitecontent.Testimonial)
	return v, args.Error(1)
}

func (m *mockBackend) ProcessSteps(ctx context.Context, stepType string) ([]sitecontent.ProcessStep, error) {
	args := m.Called(ctx, stepType)
	v, _ := args.Get(0).([]sitecontent.ProcessStep)
	return v, args.Error(1)
}

func (m *mockBackend) Specifications(ctx context.Context) ([]sitecontent.Specification, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]sitecontent.Specification)
	return v, args.Error(1)
}

func (m *mockBackend) Navigation(ctx context.Context, navType string) ([]sitecontent.NavigationItem, error) {
	args := m.Called(ctx, navType)
	v, _ := args.Get(0).([]sitecontent.NavigationItem)
	return v, args.Error(1)
}

func (m *mockBackend) Footer(ctx context.Context, sectionType string) ([]sitecontent.FooterSection, error) {
	args := m.Called(ctx, sectionType)
	v, _ := args.Get(0).([]sitecontent.FooterSection)
	return v, args.Error(1)
}

func (m *mockBackend) SiteSettings(ctx context.Context) (*sitecontent.SiteSettings, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*sitecontent.SiteSettings)
	return v, args.Error(1)
}

func (m *mockBackend) Subscribe(ctx context.Context, req sitecontent.NewsletterSignupRequest) (*sitecontent.NewsletterSignup, error) {
	args := m.Called(ctx, req)
	v, _ := args.Get(0).(*sitecontent.NewsletterSignup)
	return v, args.Error(1)
}

func (m *mockBackend) SubmitContact(ctx context.Context, req sitecontent.ContactRequest) (*sitecontent.ContactForm, error) {
	args := m.Called(ctx, req)
	v, _ := args.Get(0).(*sitecontent.ContactForm)
	return v, args.Error(1)
}

func (m *mockBackend) TrackPageView(ctx context.Context, req sitecontent.PageViewRequest) (*sitecontent.PageView, error) {
	args := m.Called(ctx, req)
	v, _ := args.Get(0).(*sitecontent.PageView)
	return v, args.Error(1)
}

var notFound = &siteclient.Error{Kind: sitecontent.KindNotFound, Status: http.StatusNotFound, Message: "not found"}

// stubReads answers every read the page makes with an empty result. Call
// it after registering the expectations a test cares about.
func stubReads(m *mockBackend) {
	m.On("Hero", mock.Anything).Return(nil, notFound).Maybe()
	m.On("SiteSettings", mock.Anything).Return(nil, notFound).Maybe()
	m.On("Navigation", mock.Anything, mock.Anything).Return([]sitecontent.NavigationItem{}, nil).Maybe()
	m.On("Features", mock.Anything, mock.Anything).Return([]sitecontent.Feature{}, nil).Maybe()
	m.On("ProcessSteps", mock.Anything, mock.Anything).Return([]sitecontent.ProcessStep{}, nil).Maybe()
	m.On("Specifications", mock.Anything).Return([]sitecontent.Specification{}, nil).Maybe()
	m.On("Testimonials", mock.Anything, mock.Anything).Return([]sitecontent.Testimonial{}, nil).Maybe()
	m.On("Footer", mock.Anything, mock.Anything).Return([]sitecontent.FooterSection{}, nil).Maybe()
}

func newQueries(t *testing.T, backend Backend) *Queries {
	t.Helper()
	qc := query.New(query.WithRetryPolicy(query.RetryPolicy{
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	}))
	t.Cleanup(qc.Close)
	return NewQueries(backend, qc)
}

func render(t *testing.T, page *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, page.Render(context.Background(), &buf, nil))
	return buf.String()
}

func TestHeroFallbackWhenMissing(t *testing.T) {
	m := &mockBackend{}
	stubReads(m)

	page, err := NewPage(newQueries(t, m))
	require.NoError(t, err)

	out := render(t, page)
	assert.Contains(t, out, "Atlas: Where Code Meets Motion")
	assert.Contains(t, out, `id="hero" data-phase="ready"`)
}

func TestHeroFallbackWhenQueryFails(t *testing.T) {
	m := &mockBackend{}
	m.On("Hero", mock.Anything).Return(nil, &siteclient.Error{Kind: sitecontent.KindServer, Status: 500, Message: "boom"}).Once()
	stubReads(m)

	page, err := NewPage(newQueries(t, m))
	require.NoError(t, err)

	data := page.Load(context.Background())
	assert.Equal(t, PhaseReady, data.Hero.Phase)
	assert.Equal(t, DefaultHero.Title, data.Hero.Data.Title)
	assert.Error(t, data.Hero.Err)
}

func TestPageRendersContent(t *testing.T) {
	m := &mockBackend{}
	m.On("Hero", mock.Anything).Return(&sitecontent.HeroContent{Title: "Meet Atlas", CTAText: "Go", CTALink: "#go"}, nil)
	m.On("Features", mock.Anything, "").Return([]sitecontent.Feature{
		{Title: "Adaptive Learning", IconSVG: `<svg class="brain"></svg>`, Category: "intelligence"},
	}, nil)
	m.On("SiteSettings", mock.Anything).Return(&sitecontent.SiteSettings{SiteTitle: "Atlas Robotics", ContactEmail: "hi@atlas.dev"}, nil)
	m.On("Testimonials", mock.Anything, 0).Return([]sitecontent.Testimonial{
		{Content: "It folds laundry", Author: "Sam", Role: "CTO", Company: "Acme", Rating: 5},
	}, nil)
	stubReads(m)

	page, err := NewPage(newQueries(t, m))
	require.NoError(t, err)

	out := render(t, page)
	assert.Contains(t, out, "<title>Atlas Robotics</title>")
	assert.Contains(t, out, "Meet Atlas")
	assert.NotContains(t, out, DefaultHero.Title)
	assert.Contains(t, out, "Adaptive Learning")
	assert.Contains(t, out, `<svg class="brain"></svg>`)
	assert.Contains(t, out, "It folds laundry")
	assert.Contains(t, out, "★★★★★")
	assert.Contains(t, out, "mailto:hi@atlas.dev")
}

func TestFailedSectionShowsRetry(t *testing.T) {
	m := &mockBackend{}
	m.On("Features", mock.Anything, "").Return(nil, &siteclient.Error{Kind: sitecontent.KindValidation, Status: 422, Message: "bad"})
	stubReads(m)

	page, err := NewPage(newQueries(t, m))
	require.NoError(t, err)

	data := page.Load(context.Background())
	assert.Equal(t, PhaseRetry, data.Features.Phase)
	assert.Equal(t, PhaseReady, data.Testimonials.Phase)

	out := render(t, page)
	assert.Contains(t, out, `data-phase="retry"`)
	assert.Contains(t, out, `<a href="/">Retry</a>`)
}

func TestPageReusesCachedQueries(t *testing.T) {
	m := &mockBackend{}
	stubReads(m)

	page, err := NewPage(newQueries(t, m))
	require.NoError(t, err)

	render(t, page)
	render(t, page)

	m.AssertNumberOfCalls(t, "Features", 1)
	m.AssertNumberOfCalls(t, "Hero", 1)
	m.AssertNumberOfCalls(t, "Footer", 1)
}

func TestSectionLifecycle(t *testing.T) {
	qc := query.New()
	t.Cleanup(qc.Close)

	key := query.NewKey(query.TagSpecifications)
	s := NewSection("specifications", qc, key, func(ctx context.Context) (int, error) {
		return query.Fetch(ctx, qc, key, func(ctx context.Context) (int, error) { return 3, nil })
	})
	assert.Equal(t, PhaseSkeleton, s.View().Phase)

	require.NoError(t, s.Mount(context.Background()))
	v := s.View()
	assert.Equal(t, PhaseReady, v.Phase)
	assert.Equal(t, 3, v.Data)

	s.Unmount()
	qc.Invalidate(key)
	assert.Equal(t, PhaseReady, s.View().Phase)
}

func TestSectionSkeletonWhileLoading(t *testing.T) {
	qc := query.New()
	t.Cleanup(qc.Close)

	release := make(chan struct{})
	defer close(release)

	key := query.NewKey(query.TagFooter)
	s := NewSection("footer", qc, key, func(ctx context.Context) (string, error) {
		return query.Fetch(ctx, qc, key, func(ctx context.Context) (string, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return "footer", nil
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Mount(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, PhaseSkeleton, s.View().Phase)
	s.Unmount()
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func newWeb(t *testing.T, m *mockBackend) *Web {
	t.Helper()
	q := newQueries(t, m)
	page, err := NewPage(q)
	require.NoError(t, err)
	return NewWeb(page, q, nil)
}

func TestContactForm(t *testing.T) {
	m := &mockBackend{}
	m.On("SubmitContact", mock.Anything, mock.MatchedBy(func(r sitecontent.ContactRequest) bool {
		return r.Email == "ada@example.com"
	})).Return(&sitecontent.ContactForm{Email: "ada@example.com"}, nil).Once()
	m.On("SubmitContact", mock.Anything, mock.MatchedBy(func(r sitecontent.ContactRequest) bool {
		return r.Email == ""
	})).Return(nil, &siteclient.Error{Kind: sitecontent.KindValidation, Status: 422, Message: "email is required"}).Once()
	stubReads(m)

	web := newWeb(t, m)
	routes := web.Routes()

	rec := postForm(routes, "/contact", url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"}, "subject": {"Hi"}, "message": {"Hello"}, "company": {""},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you for your message.")

	rec = postForm(routes, "/contact", url.Values{"name": {"Ada"}, "subject": {"Hi"}, "message": {"Hello"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is required")

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "SubmitContact", 2)
}

func TestNewsletterServerFailure(t *testing.T) {
	m := &mockBackend{}
	m.On("Subscribe", mock.Anything, mock.Anything).Return(nil, &siteclient.Error{Kind: sitecontent.KindServer, Status: 500, Message: "db down"})
	stubReads(m)

	rec := postForm(newWeb(t, m).Routes(), "/newsletter", url.Values{"email": {"ada@example.com"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestIndexTracksPageView(t *testing.T) {
	m := &mockBackend{}
	m.On("TrackPageView", mock.Anything, mock.MatchedBy(func(r sitecontent.PageViewRequest) bool {
		return r.PagePath == "/" && r.SessionID != nil &&
			r.DeviceType != nil && *r.DeviceType == "mobile" &&
			r.IPAddress != nil && *r.IPAddress == "192.0.2.1"
	})).Return(&sitecontent.PageView{}, nil).Once()
	stubReads(m)

	web := newWeb(t, m)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone) Mobile Safari")
	rec := httptest.NewRecorder()
	web.Routes().ServeHTTP(rec, req)
	web.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	m.AssertExpectations(t)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
}

func TestDeviceType(t *testing.T) {
	assert.Equal(t, "", deviceType(""))
	assert.Equal(t, "tablet", deviceType("Mozilla/5.0 (iPad; CPU OS 17_0)"))
	assert.Equal(t, "mobile", deviceType("Mozilla/5.0 (Linux; Android 14)"))
	assert.Equal(t, "desktop", deviceType("Mozilla/5.0 (X11; Linux x86_64)"))
}

func TestSeededSiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithCache(cache.NewMemory()),
	)
	require.NoError(t, err)
	_, err = seed.Apply(ctx, svc, seed.Default(), seed.Options{})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(svc, api.RouterOptions{}))
	t.Cleanup(srv.Close)

	page, err := NewPage(newQueries(t, siteclient.New(srv.URL)))
	require.NoError(t, err)

	data := page.Load(ctx)
	assert.Equal(t, PhaseReady, data.Features.Phase)
	assert.Len(t, data.Features.Data, 6)
	assert.Equal(t, PhaseReady, data.Navigation.Phase)
	assert.Len(t, data.Navigation.Data, 3)

	out := render(t, page)
	assert.Contains(t, out, "Atlas: Where Code Meets Motion")
	assert.Contains(t, out, "Spatial Awareness")
}

func TestEditorWritesRefetchCachedQueries(t *testing.T) {
	ctx := context.Background()
	svc, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithCache(cache.NewMemory()),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(svc, api.RouterOptions{}))
	t.Cleanup(srv.Close)

	client := siteclient.New(srv.URL)
	queries := newQueries(t, client)
	editor := NewEditor(client, queries.Cache())

	features, err := queries.Features(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, features)
	hero, err := queries.Hero(ctx)
	require.NoError(t, err)
	assert.Nil(t, hero)
	_, err = queries.Specifications(ctx)
	require.NoError(t, err)

	created, err := editor.CreateFeature(ctx, sitecontent.CreateFeatureRequest{
		Title: "Adaptive Learning", Description: "Learns your routines", IconSVG: "<svg></svg>",
	})
	require.NoError(t, err)
	assert.True(t, queries.Cache().State(FeaturesKey("")).Stale)
	assert.False(t, queries.Cache().State(SpecificationsKey()).Stale, "other collections stay cached")

	features, err = queries.Features(ctx, "")
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, created.ID, features[0].ID)

	_, err = editor.CreateHero(ctx, sitecontent.CreateHeroRequest{
		Title: "Meet Atlas", Subtitle: "Purpose", Description: "d", CTAText: "Go", CTALink: "#go", BackgroundImage: "/bg.webp",
	})
	require.NoError(t, err)
	hero, err = queries.Hero(ctx)
	require.NoError(t, err)
	require.NotNil(t, hero)
	assert.Equal(t, "Meet Atlas", hero.Title)

	require.NoError(t, editor.Deactivate(ctx, "features", created.ID))
	features, err = queries.Features(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, features)
}
