// Package siteclient is a typed HTTP client for the content API.
package siteclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Client calls the content API and unwraps its response envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger used for failed calls
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs one request against /api/content and decodes the data
// member of the envelope into T.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	endpoint := c.baseURL + "/api/content" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "content api unreachable", "method", method, "path", path, "err", err)
		return zero, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, transportError(err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.DebugContext(ctx, "content api call failed", "method", method, "path", path, "status", resp.StatusCode, "message", msg)
		return zero, &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return zero, &Error{Kind: sitecontent.KindTransport, Status: resp.StatusCode, Message: "invalid response body: " + decodeErr.Error(), Err: decodeErr}
	}

	var out T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, &Error{Kind: sitecontent.KindTransport, Status: resp.StatusCode, Message: "invalid response data: " + err.Error(), Err: err}
		}
	}
	return out, nil
}

func filter(name, value string) url.Values {
	if value == "" {
		return nil
	}
	return url.Values{name: {value}}
}

// Reads

func (c *Client) Hero(ctx context.Context) (*sitecontent.HeroContent, error) {
	return call[*sitecontent.HeroContent](ctx, c, http.MethodGet, "/hero", nil, nil)
}

func (c *Client) Features(ctx context.Context, category string) ([]sitecontent.Feature, error) {
	return call[[]sitecontent.Feature](ctx, c, http.MethodGet, "/features", filter("category", category), nil)
}

// Testimonials lists testimonials; limit zero uses the server default.
func (c *Client) Testimonials(ctx context.Context, limit int) ([]sitecontent.Testimonial, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	return call[[]sitecontent.Testimonial](ctx, c, http.MethodGet, "/testimonials", q, nil)
}

func (c *Client) ProcessSteps(ctx context.Context, stepType string) ([]sitecontent.ProcessStep, error) {
	return call[[]sitecontent.ProcessStep](ctx, c, http.MethodGet, "/process-steps", filter("step_type", stepType), nil)
}

func (c *Client) Specifications(ctx context.Context) ([]sitecontent.Specification, error) {
	return call[[]sitecontent.Specification](ctx, c, http.MethodGet, "/specifications", nil, nil)
}

func (c *Client) Navigation(ctx context.Context, navType string) ([]sitecontent.NavigationItem, error) {
	return call[[]sitecontent.NavigationItem](ctx, c, http.MethodGet, "/navigation", filter("nav_type", navType), nil)
}

func (c *Client) Footer(ctx context.Context, sectionType string) ([]sitecontent.FooterSection, error) {
	return call[[]sitecontent.FooterSection](ctx, c, http.MethodGet, "/footer", filter("section_type", sectionType), nil)
}

func (c *Client) SiteSettings(ctx context.Context) (*sitecontent.SiteSettings, error) {
	return call[*sitecontent.SiteSettings](ctx, c, http.MethodGet, "/site-settings", nil, nil)
}

// SearchResult is one search hit; Record holds the matched record's fields.
type SearchResult struct {
	ContentType string
	Title       string
	Record      json.RawMessage
}

func (r *SearchResult) UnmarshalJSON(b []byte) error {
	var head struct {
		ContentType  string `json:"content_type"`
		Title        string `json:"title"`
		SectionTitle string `json:"section_title"`
		Author       string `json:"author"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	r.ContentType = head.ContentType
	r.Title = head.Title
	switch {
	case r.Title == "" && head.SectionTitle != "":
		r.Title = head.SectionTitle
	case r.Title == "" && head.Author != "":
		r.Title = head.Author
	}
	r.Record = append(json.RawMessage(nil), b...)
	return nil
}

func (c *Client) Search(ctx context.Context, query, contentType string) ([]SearchResult, error) {
	q := url.Values{"query": {query}}
	if contentType != "" {
		q.Set("content_type", contentType)
	}
	return call[[]SearchResult](ctx, c, http.MethodGet, "/search", q, nil)
}

// Submissions

func (c *Client) Subscribe(ctx context.Context, req sitecontent.NewsletterSignupRequest) (*sitecontent.NewsletterSignup, error) {
	return call[*sitecontent.NewsletterSignup](ctx, c, http.MethodPost, "/newsletter/signup", nil, req)
}

func (c *Client) SubmitContact(ctx context.Context, req sitecontent.ContactRequest) (*sitecontent.ContactForm, error) {
	return call[*sitecontent.ContactForm](ctx, c, http.MethodPost, "/contact", nil, req)
}

func (c *Client) TrackPageView(ctx context.Context, req sitecontent.PageViewRequest) (*sitecontent.PageView, error) {
	return call[*sitecontent.PageView](ctx, c, http.MethodPost, "/analytics/pageview", nil, req)
}

// Writes

func (c *Client) CreateHero(ctx context.Context, req sitecontent.CreateHeroRequest) (*sitecontent.HeroContent, error) {
	return call[*sitecontent.HeroContent](ctx, c, http.MethodPost, "/hero", nil, req)
}

func (c *Client) CreateFeature(ctx context.Context, req sitecontent.CreateFeatureRequest) (*sitecontent.Feature, error) {
	return call[*sitecontent.Feature](ctx, c, http.MethodPost, "/features", nil, req)
}

func (c *Client) UpdateFeature(ctx context.Context, id uuid.UUID, req sitecontent.UpdateFeatureRequest) (*sitecontent.Feature, error) {
	return call[*sitecontent.Feature](ctx, c, http.MethodPut, "/features/"+id.String(), nil, req)
}

func (c *Client) CreateTestimonial(ctx context.Context, req sitecontent.CreateTestimonialRequest) (*sitecontent.Testimonial, error) {
	return call[*sitecontent.Testimonial](ctx, c, http.MethodPost, "/testimonials", nil, req)
}

func (c *Client) CreateProcessStep(ctx context.Context, req sitecontent.CreateProcessStepRequest) (*sitecontent.ProcessStep, error) {
	return call[*sitecontent.ProcessStep](ctx, c, http.MethodPost, "/process-steps", nil, req)
}

func (c *Client) CreateSpecification(ctx context.Context, req sitecontent.CreateSpecificationRequest) (*sitecontent.Specification, error) {
	return call[*sitecontent.Specification](ctx, c, http.MethodPost, "/specifications", nil, req)
}

func (c *Client) CreateNavigationItem(ctx context.Context, req sitecontent.CreateNavigationItemRequest) (*sitecontent.NavigationItem, error) {
	return call[*sitecontent.NavigationItem](ctx, c, http.MethodPost, "/navigation", nil, req)
}

func (c *Client) CreateFooterSection(ctx context.Context, req sitecontent.CreateFooterSectionRequest) (*sitecontent.FooterSection, error) {
	return call[*sitecontent.FooterSection](ctx, c, http.MethodPost, "/footer", nil, req)
}

func (c *Client) CreateSiteSettings(ctx context.Context, req sitecontent.CreateSiteSettingsRequest) (*sitecontent.SiteSettings, error) {
	return call[*sitecontent.SiteSettings](ctx, c, http.MethodPost, "/site-settings", nil, req)
}

// Deactivate soft-deletes a record; segment is the collection's path, e.g.
// "features".
func (c *Client) Deactivate(ctx context.Context, segment string, id uuid.UUID) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/"+segment+"/"+id.String(), nil, nil)
	return err
}
