package wire

import (
	"review-api/internal/adaptor"
	"review-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, log *zap.Logger) {
	r.Route("/users", func(r chi.Router) {
		// /me is registered before /{username} so it never matches a username.
		r.With(middleware.RequireAuth).Get("/me", userHandler.GetMe)
		r.With(middleware.RequireAuth).Patch("/me", userHandler.UpdateMe)

		// The service rejects a role change by a non-admin on the role field
		// before it checks the admin permission.
		r.With(middleware.RequireAuth).Patch("/{username}", userHandler.Update)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Admin(log))

			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{username}", userHandler.Get)
			r.Delete("/{username}", userHandler.Delete)
		})
	})
}
