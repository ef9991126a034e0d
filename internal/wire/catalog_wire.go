package wire

import (
	"net/http"

	"review-api/internal/adaptor"
	"review-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// crud is the handler set shared by categories, genres and titles.
type crud interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

func wireCatalog(r chi.Router, handler *adaptor.Handler, log *zap.Logger) {
	wireAdminCrud(r, "/categories", "{slug}", handler.Category, log)
	wireAdminCrud(r, "/genres", "{slug}", handler.Genre, log)
	wireAdminCrud(r, "/titles", "{title_id}", handler.Title, log, func(r chi.Router) {
		wireReview(r, handler.Review, handler.Comment)
	})
}

// wireAdminCrud mounts public reads and admin-only writes under prefix.
// nested routes are mounted inside the same subrouter.
func wireAdminCrud(r chi.Router, prefix, param string, h crud, log *zap.Logger, nested ...func(r chi.Router)) {
	r.Route(prefix, func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", h.List)
		r.Get("/"+param, h.Get)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Admin(log))

			r.Post("/", h.Create)
			r.Patch("/"+param, h.Update)
			r.Delete("/"+param, h.Delete)
		})

		for _, mount := range nested {
			mount(r)
		}
	})
}
