package wire

import (
	"review-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/auth/signup", authHandler.SignUp)
	r.Post("/auth/token", authHandler.Token)
}
