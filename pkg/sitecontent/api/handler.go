package api

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// maxUploadBytes bounds multipart media uploads.
const maxUploadBytes = 32 << 20

// Handler serves the content API
type Handler struct {
	service sitecontent.Service
	logger  *slog.Logger
}

// NewHandler creates a new content handler
func NewHandler(service sitecontent.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger.With("component", "api")}
}

// deletable are the path segments that accept DELETE.
var deletable = []string{"features", "testimonials", "process-steps", "specifications", "navigation", "footer"}

// Routes returns the routes mounted under /api/content
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/hero", h.GetHero)
	r.Post("/hero", h.CreateHero)

	r.Get("/features", h.ListFeatures)
	r.Post("/features", h.CreateFeature)
	r.Put("/features/{id}", h.UpdateFeature)

	r.Get("/testimonials", h.ListTestimonials)
	r.Post("/testimonials", h.CreateTestimonial)

	r.Get("/process-steps", h.ListProcessSteps)
	r.Post("/process-steps", h.CreateProcessStep)

	r.Get("/specifications", h.ListSpecifications)
	r.Post("/specifications", h.CreateSpecification)

	r.Get("/navigation", h.ListNavigation)
	r.Post("/navigation", h.CreateNavigationItem)

	r.Get("/footer", h.ListFooterSections)
	r.Post("/footer", h.CreateFooterSection)

	for _, segment := range deletable {
		r.Delete("/"+segment+"/{id}", h.Deactivate(segment))
	}

	r.Get("/site-settings", h.GetSiteSettings)
	r.Post("/site-settings", h.CreateSiteSettings)

	r.Post("/newsletter/signup", h.Subscribe)
	r.Get("/newsletter/subscribers", h.ListSubscribers)
	r.Post("/contact", h.SubmitContact)
	r.Post("/analytics/pageview", h.TrackPageView)
	r.Get("/search", h.Search)

	r.Post("/media", h.UploadMedia)
	r.Get("/media/*", h.DownloadMedia)

	r.Get("/cache/stats", h.CacheStats)

	return r
}

// decode reads a JSON body, answering 400 when it is malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		errorResponse(w, r, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, sitecontent.ValidationError("parse", "", name+" must be an integer")
	}
	return n, nil
}

func listOptions(r *http.Request) (sitecontent.ListOptions, error) {
	page, err := intParam(r, "page")
	if err != nil {
		return sitecontent.ListOptions{}, err
	}
	perPage, err := intParam(r, "per_page")
	if err != nil {
		return sitecontent.ListOptions{}, err
	}
	if page > 0 && perPage == 0 {
		perPage = 20
	}
	return sitecontent.ListOptions{Page: page, PerPage: perPage}, nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, sitecontent.ValidationError("parse", "", "id must be a UUID")
	}
	return id, nil
}

// Hero

func (h *Handler) GetHero(w http.ResponseWriter, r *http.Request) {
	hero, err := h.service.GetHero(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Hero content not found")
		return
	}
	respond(w, r, http.StatusOK, "Hero content retrieved successfully", hero)
}

func (h *Handler) CreateHero(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateHeroRequest
	if !decode(w, r, &req) {
		return
	}
	hero, err := h.service.CreateHero(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create hero content")
		return
	}
	respond(w, r, http.StatusCreated, "Hero content created successfully", hero)
}

// Features

func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListFeatures(r.Context(), r.URL.Query().Get("category"), opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve features")
		return
	}
	respondList(w, r, "Features retrieved successfully", list)
}

func (h *Handler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateFeatureRequest
	if !decode(w, r, &req) {
		return
	}
	feature, err := h.service.CreateFeature(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create feature")
		return
	}
	respond(w, r, http.StatusCreated, "Feature created successfully", feature)
}

func (h *Handler) UpdateFeature(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	var req sitecontent.UpdateFeatureRequest
	if !decode(w, r, &req) {
		return
	}
	feature, err := h.service.UpdateFeature(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err, "Feature not found")
		return
	}
	respond(w, r, http.StatusOK, "Feature updated successfully", feature)
}

// Testimonials

func (h *Handler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	if r.URL.Query().Has("limit") && limit == 0 {
		h.respondError(w, r, sitecontent.ValidationError("list", sitecontent.CollectionTestimonials, "limit must be between 1 and 100"), "")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListTestimonials(r.Context(), limit, opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve testimonials")
		return
	}
	respondList(w, r, "Testimonials retrieved successfully", list)
}

func (h *Handler) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateTestimonialRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.service.CreateTestimonial(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create testimonial")
		return
	}
	respond(w, r, http.StatusCreated, "Testimonial created successfully", t)
}

// Process steps

func (h *Handler) ListProcessSteps(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListProcessSteps(r.Context(), r.URL.Query().Get("step_type"), opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve process steps")
		return
	}
	respondList(w, r, "Process steps retrieved successfully", list)
}

func (h *Handler) CreateProcessStep(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateProcessStepRequest
	if !decode(w, r, &req) {
		return
	}
	step, err := h.service.CreateProcessStep(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create process step")
		return
	}
	respond(w, r, http.StatusCreated, "Process step created successfully", step)
}

// Specifications

func (h *Handler) ListSpecifications(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListSpecifications(r.Context(), opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve specifications")
		return
	}
	respondList(w, r, "Specifications retrieved successfully", list)
}

func (h *Handler) CreateSpecification(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateSpecificationRequest
	if !decode(w, r, &req) {
		return
	}
	spec, err := h.service.CreateSpecification(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create specification")
		return
	}
	respond(w, r, http.StatusCreated, "Specification created successfully", spec)
}

// Navigation

func (h *Handler) ListNavigation(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListNavigation(r.Context(), r.URL.Query().Get("nav_type"), opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve navigation")
		return
	}
	respondList(w, r, "Navigation retrieved successfully", list)
}

func (h *Handler) CreateNavigationItem(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateNavigationItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.CreateNavigationItem(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create navigation item")
		return
	}
	respond(w, r, http.StatusCreated, "Navigation item created successfully", item)
}

// Footer

func (h *Handler) ListFooterSections(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListFooterSections(r.Context(), r.URL.Query().Get("section_type"), opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve footer sections")
		return
	}
	respondList(w, r, "Footer sections retrieved successfully", list)
}

func (h *Handler) CreateFooterSection(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateFooterSectionRequest
	if !decode(w, r, &req) {
		return
	}
	section, err := h.service.CreateFooterSection(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create footer section")
		return
	}
	respond(w, r, http.StatusCreated, "Footer section created successfully", section)
}

// Deactivate returns the soft-delete handler of the collection at segment
func (h *Handler) Deactivate(segment string) http.HandlerFunc {
	collection, _ := sitecontent.CollectionFromPath(segment)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			h.respondError(w, r, err, "")
			return
		}
		if err := h.service.Deactivate(r.Context(), collection, id); err != nil {
			h.respondError(w, r, err, "Record not found")
			return
		}
		respond(w, r, http.StatusOK, "Record deleted successfully", map[string]string{"id": id.String()})
	}
}

// Site settings

func (h *Handler) GetSiteSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSiteSettings(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Site settings not found")
		return
	}
	respond(w, r, http.StatusOK, "Site settings retrieved successfully", settings)
}

func (h *Handler) CreateSiteSettings(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateSiteSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	settings, err := h.service.CreateSiteSettings(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to create site settings")
		return
	}
	respond(w, r, http.StatusCreated, "Site settings created successfully", settings)
}

// Submissions

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.NewsletterSignupRequest
	if !decode(w, r, &req) {
		return
	}
	signup, err := h.service.Subscribe(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to subscribe to newsletter")
		return
	}
	respond(w, r, http.StatusCreated, "Successfully subscribed to newsletter", signup)
}

func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.respondError(w, r, err, "")
		return
	}
	list, err := h.service.ListSubscribers(r.Context(), r.URL.Query().Get("status"), opts)
	if err != nil {
		h.respondError(w, r, err, "Failed to retrieve subscribers")
		return
	}
	respondList(w, r, "Subscribers retrieved successfully", list)
}

func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.ContactRequest
	if !decode(w, r, &req) {
		return
	}
	form, err := h.service.SubmitContact(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to submit contact form")
		return
	}
	respond(w, r, http.StatusCreated, "Thank you for your message. We'll get back to you soon!", form)
}

func (h *Handler) TrackPageView(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.PageViewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.IPAddress == nil {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		req.IPAddress = &ip
	}
	if req.UserAgent == nil && r.UserAgent() != "" {
		ua := r.UserAgent()
		req.UserAgent = &ua
	}
	view, err := h.service.TrackPageView(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Failed to track page view")
		return
	}
	respond(w, r, http.StatusCreated, "Page view tracked successfully", view)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hits, err := h.service.Search(r.Context(), sitecontent.SearchRequest{
		Query:       q.Get("query"),
		ContentType: q.Get("content_type"),
	})
	if err != nil {
		h.respondError(w, r, err, "Search failed")
		return
	}
	respond(w, r, http.StatusOK, sitecontent.SearchMessage(len(hits)), hits)
}

// Media

func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		errorResponse(w, r, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, sitecontent.ValidationError("upload", "", "file is required"), "")
		return
	}
	defer file.Close()

	asset, err := h.service.UploadMedia(r.Context(), sitecontent.UploadMediaRequest{
		Reader:      file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Folder:      r.FormValue("folder"),
	})
	if err != nil {
		h.respondError(w, r, err, "Failed to upload media")
		return
	}
	respond(w, r, http.StatusCreated, "Media uploaded successfully", asset)
}

func (h *Handler) DownloadMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rc, asset, err := h.service.DownloadMedia(r.Context(), key)
	if err != nil {
		h.respondError(w, r, err, "Media not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		h.logger.WarnContext(r.Context(), "media stream interrupted", "key", key, "err", err)
	}
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CacheStats(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Failed to read cache statistics")
		return
	}
	respond(w, r, http.StatusOK, "Cache statistics retrieved successfully", stats)
}
