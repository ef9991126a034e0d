package adaptor

import (
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TitleHandler struct {
	service usecase.TitleService
	log     *zap.Logger
}

func NewTitleHandler(service usecase.TitleService, log *zap.Logger) *TitleHandler {
	return &TitleHandler{
		service: service,
		log:     log.With(zap.String("handler", "title")),
	}
}

// List handles GET /api/v1/titles?category=&genre=&name=&year=
func (h *TitleHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.TitleListRequest{
		PaginatedRequest: parsePage(r),
		Category:         utils.OptionalString(query.Get("category")),
		Genre:            utils.OptionalString(query.Get("genre")),
		Name:             utils.OptionalString(query.Get("name")),
		Year:             utils.OptionalInt(query.Get("year")),
	}

	titles, err := h.service.List(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list titles")
		return
	}
	utils.ResponseSuccess(w, "success", titles)
}

// Get handles GET /api/v1/titles/{title_id}
func (h *TitleHandler) Get(w http.ResponseWriter, r *http.Request) {
	title, err := h.service.Get(r.Context(), chi.URLParam(r, "title_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get title")
		return
	}
	utils.ResponseSuccess(w, "success", title)
}

// Create handles POST /api/v1/titles (admin)
func (h *TitleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create title")
		return
	}
	utils.ResponseCreated(w, "Title created", title)
}

// Update handles PATCH /api/v1/titles/{title_id} (admin)
func (h *TitleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title, err := h.service.Update(r.Context(), chi.URLParam(r, "title_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update title")
		return
	}
	utils.ResponseSuccess(w, "Title updated", title)
}

// Delete handles DELETE /api/v1/titles/{title_id} (admin)
func (h *TitleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "title_id")); err != nil {
		writeServiceError(w, h.log, err, "delete title")
		return
	}
	utils.ResponseNoContent(w)
}
