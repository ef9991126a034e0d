package wire

import (
	"review-api/internal/adaptor"
	"review-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

// wireReview mounts reviews and their comments inside the titles router. Ownership is
// checked by the services; the routes only require a caller for writes.
func wireReview(r chi.Router, reviewHandler *adaptor.ReviewHandler, commentHandler *adaptor.CommentHandler) {
	r.Route("/{title_id}/reviews", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", reviewHandler.List)
		r.Get("/{review_id}", reviewHandler.Get)
		r.Get("/{review_id}/comments", commentHandler.List)
		r.Get("/{review_id}/comments/{comment_id}", commentHandler.Get)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/", reviewHandler.Create)
			r.Patch("/{review_id}", reviewHandler.Update)
			r.Delete("/{review_id}", reviewHandler.Delete)

			r.Post("/{review_id}/comments", commentHandler.Create)
			r.Patch("/{review_id}/comments/{comment_id}", commentHandler.Update)
			r.Delete("/{review_id}/comments/{comment_id}", commentHandler.Delete)
		})
	})
}
