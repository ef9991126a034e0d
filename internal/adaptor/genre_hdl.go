package adaptor

import (
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type GenreHandler struct {
	service usecase.GenreService
	log     *zap.Logger
}

func NewGenreHandler(service usecase.GenreService, log *zap.Logger) *GenreHandler {
	return &GenreHandler{
		service: service,
		log:     log.With(zap.String("handler", "genre")),
	}
}

// List handles GET /api/v1/genres
func (h *GenreHandler) List(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.List(r.Context(), parseList(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list genres")
		return
	}
	utils.ResponseSuccess(w, "success", genres)
}

// Get handles GET /api/v1/genres/{slug}
func (h *GenreHandler) Get(w http.ResponseWriter, r *http.Request) {
	genre, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.log, err, "get genre")
		return
	}
	utils.ResponseSuccess(w, "success", genre)
}

// Create handles POST /api/v1/genres (admin)
func (h *GenreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGenreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	genre, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create genre")
		return
	}
	utils.ResponseCreated(w, "Genre created", genre)
}

// Update handles PATCH /api/v1/genres/{slug} (admin)
func (h *GenreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateGenreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	genre, err := h.service.Update(r.Context(), chi.URLParam(r, "slug"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update genre")
		return
	}
	utils.ResponseSuccess(w, "Genre updated", genre)
}

// Delete handles DELETE /api/v1/genres/{slug} (admin)
func (h *GenreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeServiceError(w, h.log, err, "delete genre")
		return
	}
	utils.ResponseNoContent(w)
}
