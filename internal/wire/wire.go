package wire

import (
	"net/http"

	"review-api/internal/adaptor"
	"review-api/internal/data/repository"
	"review-api/internal/usecase"
	"review-api/pkg/mailer"
	"review-api/pkg/middleware"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired router
type App struct {
	Router *chi.Mux
}

// Wiring builds services, handlers and routes over repo.
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	mail mailer.Sender,
	tokens *utils.TokenIssuer,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, mail, tokens, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router: setupRouter(handler, repo, tokens, logger),
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	tokens *utils.TokenIssuer,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, repo.User, logger))

		wireAuth(r, handler.Auth)
		wireUser(r, handler.User, logger)
		wireCatalog(r, handler, logger)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
