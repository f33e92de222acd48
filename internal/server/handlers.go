package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samvad-hq/blogmeta/internal/blog"
	"github.com/samvad-hq/blogmeta/internal/extractor"
	"github.com/samvad-hq/blogmeta/pkg/resolver"
)

type urlRequest struct {
	URL string `json:"url"`
}

type resolveResponse struct {
	URL *string `json:"url"`
}

type detectResponse struct {
	Provider string `json:"provider"`
}

func (a *api) extractMetadata(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	md, err := a.extractor.Extract(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		a.writeExtractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// writeExtractError maps the extraction taxonomy onto status codes.
func (a *api) writeExtractError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Failed to extract metadata"
	switch {
	case extractor.IsValidation(err):
		status, msg = http.StatusBadRequest, "invalid URL"
	case extractor.IsFetch(err):
		status, msg = http.StatusBadRequest, "Failed to fetch URL"
	}
	a.log.WarnObj("metadata extraction failed", "extract_error", map[string]any{
		"path":   r.URL.Path,
		"status": status,
		"error":  err.Error(),
	})
	writeError(w, status, msg)
}

func (a *api) listProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.Options())
}

func (a *api) detectProvider(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, detectResponse{Provider: a.registry.Detect(r.URL.Query().Get("host"))})
}

func (a *api) resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var resp resolveResponse
	if link, ok := resolver.Resolve(q.Get("identifier"), q.Get("provider"), q.Get("author")); ok {
		resp.URL = &link
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) previewBlog(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	draft, err := a.blogs.Preview(r.Context(), req.URL)
	if err != nil {
		if extractor.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "invalid URL")
			return
		}
		// Partial success: the draft still carries the detected provider.
		a.log.WarnObj("blog preview incomplete", "preview_error", map[string]any{
			"url":   draft.ExternalID,
			"error": err.Error(),
		})
		writeJSON(w, http.StatusOK, map[string]any{"draft": draft, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

func (a *api) listBlogs(w http.ResponseWriter, r *http.Request) {
	views, err := a.blogs.List(r.Context())
	if err != nil {
		a.writeBlogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *api) createBlog(w http.ResponseWriter, r *http.Request) {
	var in blog.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := a.blogs.Create(r.Context(), in)
	if err != nil {
		a.writeBlogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *api) getBlog(w http.ResponseWriter, r *http.Request) {
	view, err := a.blogs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeBlogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) updateBlog(w http.ResponseWriter, r *http.Request) {
	var in blog.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := a.blogs.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.writeBlogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) deleteBlog(w http.ResponseWriter, r *http.Request) {
	if err := a.blogs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeBlogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) refreshBlog(w http.ResponseWriter, r *http.Request) {
	view, err := a.blogs.Refresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if extractor.IsFetch(err) || extractor.IsParse(err) {
			a.writeExtractError(w, r, err)
			return
		}
		a.writeBlogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) writeBlogError(w http.ResponseWriter, err error) {
	var verr *blog.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case blog.IsNotFound(err):
		writeError(w, http.StatusNotFound, "blog not found")
	default:
		a.log.ErrorObj("blog request failed", "blog_error", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
