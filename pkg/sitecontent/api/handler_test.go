package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/cache"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
	memorystorage "github.com/tendant/simple-site/pkg/sitecontent/storage/memory"
)

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Total      *int            `json:"total"`
	Page       *int            `json:"page"`
	PerPage    *int            `json:"per_page"`
	TotalPages *int            `json:"total_pages"`
}

// setupRouter creates the full router on an in-memory service
func setupRouter(t *testing.T) (http.Handler, sitecontent.Service) {
	t.Helper()
	service, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithCache(cache.NewMemory()),
		sitecontent.WithMediaStore(memorystorage.New("/api/content/media")),
	)
	require.NoError(t, err)
	return NewRouter(service, RouterOptions{Registry: prometheus.NewRegistry()}), service
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func feature(title, category string, order int) map[string]any {
	return map[string]any{
		"title":       title,
		"description": title + " description",
		"icon_svg":    "<svg/>",
		"category":    category,
		"order":       order,
	}
}

func TestGetHero_NotFound(t *testing.T) {
	router, _ := setupRouter(t)

	rr, env := do(t, router, http.MethodGet, "/api/content/hero", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Hero content not found", env.Message)
}

func TestCreateAndGetHero(t *testing.T) {
	router, _ := setupRouter(t)

	rr, env := do(t, router, http.MethodPost, "/api/content/hero", map[string]any{
		"title":            "Atlas",
		"subtitle":         "Purpose",
		"description":      "Companion",
		"cta_text":         "Request Access",
		"cta_link":         "#get-access",
		"background_image": "/bg.webp",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, env.Success)

	rr, env = do(t, router, http.MethodGet, "/api/content/hero", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var hero sitecontent.HeroContent
	require.NoError(t, json.Unmarshal(env.Data, &hero))
	assert.Equal(t, "Atlas", hero.Title)
	assert.True(t, hero.IsActive)
}

func TestListFeatures_CategoryFilter(t *testing.T) {
	router, _ := setupRouter(t)

	for _, f := range []map[string]any{
		feature("Vision", "sensors", 2),
		feature("Walk", "movement", 0),
		feature("Touch", "sensors", 1),
	} {
		rr, _ := do(t, router, http.MethodPost, "/api/content/features", f)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr, env := do(t, router, http.MethodGet, "/api/content/features?category=sensors", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Total)

	var features []sitecontent.Feature
	require.NoError(t, json.Unmarshal(env.Data, &features))
	require.Len(t, features, 2)
	assert.Equal(t, "Touch", features[0].Title)
	assert.Equal(t, "Vision", features[1].Title)
	for _, f := range features {
		assert.Equal(t, "sensors", f.Category)
		assert.True(t, f.IsActive)
	}
}

func TestListFeatures_Pagination(t *testing.T) {
	router, _ := setupRouter(t)
	for i := 0; i < 5; i++ {
		do(t, router, http.MethodPost, "/api/content/features", feature("F", "general", i))
	}

	rr, env := do(t, router, http.MethodGet, "/api/content/features?page=2&per_page=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 5, *env.Total)
	assert.Equal(t, 2, *env.Page)
	assert.Equal(t, 2, *env.PerPage)
	assert.Equal(t, 3, *env.TotalPages)

	rr, env = do(t, router, http.MethodGet, "/api/content/features?page=x", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.False(t, env.Success)
}

func TestCreateFeature_ThenListSeesIt(t *testing.T) {
	router, _ := setupRouter(t)

	_, env := do(t, router, http.MethodGet, "/api/content/features", nil)
	assert.JSONEq(t, "[]", string(env.Data))

	do(t, router, http.MethodPost, "/api/content/features", feature("Vision", "sensors", 0))

	_, env = do(t, router, http.MethodGet, "/api/content/features", nil)
	var features []sitecontent.Feature
	require.NoError(t, json.Unmarshal(env.Data, &features))
	assert.Len(t, features, 1)
}

func TestUpdateAndDeleteFeature(t *testing.T) {
	router, _ := setupRouter(t)

	_, env := do(t, router, http.MethodPost, "/api/content/features", feature("Vision", "sensors", 0))
	var created sitecontent.Feature
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rr, env := do(t, router, http.MethodPut, "/api/content/features/"+created.ID.String(), map[string]any{"title": "Sight"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated sitecontent.Feature
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Sight", updated.Title)
	assert.Equal(t, "sensors", updated.Category)

	rr, _ = do(t, router, http.MethodDelete, "/api/content/features/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	_, env = do(t, router, http.MethodGet, "/api/content/features", nil)
	assert.JSONEq(t, "[]", string(env.Data))

	rr, _ = do(t, router, http.MethodPut, "/api/content/features/not-a-uuid", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestTestimonialsLimit(t *testing.T) {
	router, _ := setupRouter(t)

	rr, env := do(t, router, http.MethodGet, "/api/content/testimonials?limit=101", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.False(t, env.Success)

	rr, _ = do(t, router, http.MethodGet, "/api/content/testimonials?limit=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = do(t, router, http.MethodGet, "/api/content/testimonials?limit=5", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSubmitContact(t *testing.T) {
	router, _ := setupRouter(t)

	rr, env := do(t, router, http.MethodPost, "/api/content/contact", map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"subject": "Hello",
		"message": "Tell me more",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)
	assert.Contains(t, env.Message, "Thank you")

	rr, env = do(t, router, http.MethodPost, "/api/content/contact", map[string]any{
		"name":    "Ada",
		"subject": "Hello",
		"message": "Tell me more",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "email is required")
}

func TestMalformedJSON(t *testing.T) {
	router, _ := setupRouter(t)

	rr, env := do(t, router, http.MethodPost, "/api/content/contact", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "Invalid JSON body")
}

func TestNewsletterSignup_Duplicate(t *testing.T) {
	router, _ := setupRouter(t)
	body := map[string]any{"email": "ada@example.com"}

	rr, env := do(t, router, http.MethodPost, "/api/content/newsletter/signup", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)

	rr, env = do(t, router, http.MethodPost, "/api/content/newsletter/signup", map[string]any{"email": "ADA@example.com"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, sitecontent.ErrAlreadySubscribed.Error(), env.Message)

	rr, env = do(t, router, http.MethodGet, "/api/content/newsletter/subscribers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var subs []sitecontent.NewsletterSignup
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	assert.Len(t, subs, 1)
}

func TestTrackPageView_FillsClient(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/content/analytics/pageview", strings.NewReader(`{"page_path":"/"}`))
	req.RemoteAddr = "203.0.113.9:5123"
	req.Header.Set("User-Agent", "probe/1.0")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	var view sitecontent.PageView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotNil(t, view.IPAddress)
	assert.Equal(t, "203.0.113.9", *view.IPAddress)
	require.NotNil(t, view.UserAgent)
	assert.Equal(t, "probe/1.0", *view.UserAgent)
	assert.False(t, view.Timestamp.IsZero())
}

func TestSearch(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPost, "/api/content/features", feature("Precise Movement", "movement", 0))

	rr, env := do(t, router, http.MethodGet, "/api/content/search?query=precise", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Search completed. Found 1 results", env.Message)

	var hits []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "feature", hits[0]["content_type"])

	rr, _ = do(t, router, http.MethodGet, "/api/content/search", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestMediaUploadAndDownload(t *testing.T) {
	router, _ := setupRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("folder", "hero"))
	fw, err := mw.CreateFormFile("file", "robot.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"v":"5.7"}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/content/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	var asset sitecontent.MediaAsset
	require.NoError(t, json.Unmarshal(env.Data, &asset))
	assert.True(t, strings.HasPrefix(asset.Key, "hero/"))

	req = httptest.NewRequest(http.MethodGet, "/api/content/media/"+asset.Key, nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"v":"5.7"}`, rr.Body.String())

	rr, env = do(t, router, http.MethodGet, "/api/content/media/hero/missing.json", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, env.Success)
}

func TestCacheStatsAndHealth(t *testing.T) {
	router, _ := setupRouter(t)

	rr, env := do(t, router, http.MethodGet, "/api/content/cache/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats sitecontent.CacheStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, "memory", stats.Backend)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodGet, "/api/content/features", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "site_http_requests_total")
	assert.Contains(t, rr.Body.String(), `route="/api/content/features"`)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := setupRouter(t)
	rr, env := do(t, router, http.MethodGet, "/api/content/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, env.Success)
}
