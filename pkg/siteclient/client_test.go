package siteclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/api"
	"github.com/tendant/simple-site/pkg/sitecontent/cache"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
)

func setupServer(t *testing.T) *Client {
	t.Helper()
	svc, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithCache(cache.NewMemory()),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(svc, api.RouterOptions{}))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestFeaturesRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupServer(t)

	for i, cat := range []string{"sensors", "movement", "sensors"} {
		_, err := c.CreateFeature(ctx, sitecontent.CreateFeatureRequest{
			Title: "F", Description: "d", IconSVG: "<svg/>", Category: cat, Order: 3 - i,
		})
		require.NoError(t, err)
	}

	features, err := c.Features(ctx, "sensors")
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.LessOrEqual(t, features[0].Order, features[1].Order)

	all, err := c.Features(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHeroNotFound(t *testing.T) {
	c := setupServer(t)

	_, err := c.Hero(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sitecontent.KindNotFound, apiErr.Kind)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Hero content not found", apiErr.Message)
}

func TestContactValidation(t *testing.T) {
	ctx := context.Background()
	c := setupServer(t)

	form, err := c.SubmitContact(ctx, sitecontent.ContactRequest{
		Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", form.Email)

	_, err = c.SubmitContact(ctx, sitecontent.ContactRequest{Name: "Ada", Subject: "Hi", Message: "Hello"})
	assert.Equal(t, sitecontent.KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "email is required")
}

func TestSubscribeConflict(t *testing.T) {
	ctx := context.Background()
	c := setupServer(t)

	_, err := c.Subscribe(ctx, sitecontent.NewsletterSignupRequest{Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = c.Subscribe(ctx, sitecontent.NewsletterSignupRequest{Email: "ada@example.com"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sitecontent.KindValidation, apiErr.Kind)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	c := setupServer(t)

	_, err := c.CreateSpecification(ctx, sitecontent.CreateSpecificationRequest{
		SectionTitle: "Specs", SectionSubtitle: "Technical", Content: "Atlas works with your team", SectionNumber: "3",
	})
	require.NoError(t, err)

	results, err := c.Search(ctx, "team", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "specification", results[0].ContentType)
	assert.Equal(t, "Specs", results[0].Title)
}

func TestApplicationFailureOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"message":"upstream unavailable","data":null}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Features(context.Background(), "")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sitecontent.KindServer, apiErr.Kind)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Specifications(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sitecontent.KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Navigation(context.Background(), "main")
	assert.Equal(t, sitecontent.KindTransport, KindOf(err))
}

func TestNewTrimsBaseURL(t *testing.T) {
	c := New("http://content.internal:9000/")
	assert.Equal(t, "http://content.internal:9000", c.BaseURL())
}
