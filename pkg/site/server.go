package site

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tendant/simple-site/pkg/siteclient"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/api"
)

const sessionCookie = "site_session"

// Web serves the rendered page and accepts its form posts.
type Web struct {
	page    *Page
	queries *Queries
	logger  *slog.Logger

	// tracking holds page view posts still in flight.
	tracking sync.WaitGroup
}

func NewWeb(page *Page, queries *Queries, logger *slog.Logger) *Web {
	if logger == nil {
		logger = slog.Default()
	}
	return &Web{page: page, queries: queries, logger: logger.With("component", "web")}
}

func (web *Web) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(api.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware(web.logger))
	r.Use(api.RecoveryMiddleware(web.logger))

	r.Get("/", web.Index)
	r.Post("/newsletter", web.Newsletter)
	r.Post("/contact", web.Contact)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return r
}

// Wait blocks until page views posted so far are delivered.
func (web *Web) Wait() {
	web.tracking.Wait()
}

func (web *Web) Index(w http.ResponseWriter, r *http.Request) {
	web.track(w, r)
	web.render(w, r, http.StatusOK, nil)
}

func (web *Web) Newsletter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.render(w, r, http.StatusBadRequest, &Notice{Form: "newsletter", Message: "Invalid form submission"})
		return
	}
	req := sitecontent.NewsletterSignupRequest{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
		Name:  optional(r.PostForm.Get("name")),
	}
	if _, err := web.queries.Subscribe(r.Context(), req); err != nil {
		web.formFailed(w, r, "newsletter", err)
		return
	}
	web.render(w, r, http.StatusOK, &Notice{Form: "newsletter", Success: true, Message: "Thanks for subscribing!"})
}

func (web *Web) Contact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.render(w, r, http.StatusBadRequest, &Notice{Form: "contact", Message: "Invalid form submission"})
		return
	}
	req := sitecontent.ContactRequest{
		Name:    strings.TrimSpace(r.PostForm.Get("name")),
		Email:   strings.TrimSpace(r.PostForm.Get("email")),
		Subject: strings.TrimSpace(r.PostForm.Get("subject")),
		Message: strings.TrimSpace(r.PostForm.Get("message")),
		Phone:   optional(r.PostForm.Get("phone")),
		Company: optional(r.PostForm.Get("company")),
	}
	if _, err := web.queries.SubmitContact(r.Context(), req); err != nil {
		web.formFailed(w, r, "contact", err)
		return
	}
	web.render(w, r, http.StatusOK, &Notice{
		Form: "contact", Success: true,
		Message: "Thank you for your message. We'll get back to you soon!",
	})
}

func (web *Web) formFailed(w http.ResponseWriter, r *http.Request, form string, err error) {
	var apiErr *siteclient.Error
	status := http.StatusBadGateway
	message := "Something went wrong. Please try again."
	if siteclient.KindOf(err) == sitecontent.KindValidation {
		status = http.StatusUnprocessableEntity
		if errors.As(err, &apiErr) {
			message = apiErr.Message
		}
	} else {
		web.logger.ErrorContext(r.Context(), "form submission failed", "form", form, "err", err)
	}
	web.render(w, r, status, &Notice{Form: form, Message: message})
}

func (web *Web) render(w http.ResponseWriter, r *http.Request, status int, notice *Notice) {
	var buf bytes.Buffer
	if err := web.page.Render(r.Context(), &buf, notice); err != nil {
		web.logger.ErrorContext(r.Context(), "render page", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// track posts a page view in the background. Failures are logged and
// never affect the page.
func (web *Web) track(w http.ResponseWriter, r *http.Request) {
	req := sitecontent.PageViewRequest{
		PagePath:   r.URL.Path,
		Referrer:   optional(r.Referer()),
		UserAgent:  optional(r.UserAgent()),
		IPAddress:  optional(clientIP(r.RemoteAddr)),
		SessionID:  optional(session(w, r)),
		DeviceType: optional(deviceType(r.UserAgent())),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	web.tracking.Add(1)
	go func() {
		defer web.tracking.Done()
		defer cancel()
		if err := web.queries.TrackPageView(ctx, req); err != nil {
			web.logger.WarnContext(ctx, "track page view", "path", req.PagePath, "err", err)
		}
	}()
}

// session returns the visitor's session id, issuing one when absent.
func session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func deviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "android"):
		return "mobile"
	}
	return "desktop"
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
