package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const notFoundPage = `<!DOCTYPE html>
<html>
<head><title>Link not found</title></head>
<body>
<h1>404</h1>
<p>This short link does not exist.</p>
</body>
</html>`

const serverErrorPage = `<!DOCTYPE html>
<html>
<head><title>Something went wrong</title></head>
<body>
<h1>500</h1>
<p>The link could not be resolved. Please try again later.</p>
</body>
</html>`

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type linkUseCase interface {
	ShortenURL(ctx context.Context, destination, customSlug string) (*entity.Link, error)
	ResolveSlug(ctx context.Context, slug string) (string, error)
	GetLinkStats(ctx context.Context, slug string) (*entity.Link, error)
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
	baseURL  string
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate, baseURL string) *linkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &linkHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// shortURL composes the public link for slug. Without a configured base URL
// the origin of the current request is used.
func (h *linkHandler) shortURL(r *http.Request, slug string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	return base + "/" + slug
}

func (h *linkHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.useCase.ShortenURL(r.Context(), req.Destination, req.CustomSlug)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidURL):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidURLResponse)
		case errors.Is(err, entity.ErrInvalidSlug):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidSlugResponse)
		case errors.Is(err, entity.ErrSlugTaken):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, slugTakenResponse)
		default:
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	recent := readHistory(r)
	recent.Push(link.Slug)
	writeHistory(w, recent)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, shortenResponse{
		Slug:     link.Slug,
		ShortURL: h.shortURL(r, link.Slug),
	})
}

func (h *linkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	destination, err := h.useCase.ResolveSlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.HTML(w, r, notFoundPage)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.HTML(w, r, serverErrorPage)
		return
	}

	http.Redirect(w, r, destination, http.StatusFound)
}

func (h *linkHandler) getLinkStats(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	link, err := h.useCase.GetLinkStats(r.Context(), slug)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkStatsResponse(link, h.shortURL(r, link.Slug)))
}

// getHistory returns the links recorded in the caller's history cookie.
// Entries whose link no longer resolves are left out.
func (h *linkHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	recent := readHistory(r)
	resp := historyResponse{Links: make([]linkStatsResponse, 0, recent.Len())}

	for _, slug := range recent.Slugs() {
		link, err := h.useCase.GetLinkStats(r.Context(), slug)
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				continue
			}

			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
			return
		}

		resp.Links = append(resp.Links, toLinkStatsResponse(link, h.shortURL(r, link.Slug)))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}
