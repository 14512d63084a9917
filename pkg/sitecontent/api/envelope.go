package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Response is the envelope of every content API response
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Total      *int   `json:"total,omitempty"`
	Page       *int   `json:"page,omitempty"`
	PerPage    *int   `json:"per_page,omitempty"`
	TotalPages *int   `json:"total_pages,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: true, Message: message, Data: data})
}

// respondList renders list items, adding the page fields when a page was
// requested.
func respondList[T any](w http.ResponseWriter, r *http.Request, message string, list *sitecontent.List[T]) {
	resp := Response{Success: true, Message: message, Data: list.Items}
	if list.Paginated {
		resp.Total = &list.Total
		resp.Page = &list.Page
		resp.PerPage = &list.PerPage
		resp.TotalPages = &list.TotalPages
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch sitecontent.KindOf(err) {
	case sitecontent.KindValidation:
		if errors.Is(err, sitecontent.ErrAlreadySubscribed) || errors.Is(err, sitecontent.ErrDuplicate) {
			return http.StatusConflict
		}
		return http.StatusUnprocessableEntity
	case sitecontent.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := StatusOf(err)
	detail := sitecontent.MessageOf(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), message, "method", r.Method, "path", r.URL.Path, "err", err)
		detail = message
	} else {
		h.logger.DebugContext(r.Context(), message, "status", status, "err", err)
		if message != "" && status == http.StatusNotFound {
			detail = message
		}
	}
	render.Status(r, status)
	render.JSON(w, r, Response{Success: false, Message: detail})
}

// errorResponse writes an error envelope without a handler, e.g. from
// middleware.
func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: false, Message: message})
}
