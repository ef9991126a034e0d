package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/apperror"
	"review-api/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Genre    *GenreHandler
	Title    *TitleHandler
	Review   *ReviewHandler
	Comment  *CommentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		User:     NewUserHandler(service.User, log),
		Category: NewCategoryHandler(service.Category, log),
		Genre:    NewGenreHandler(service.Genre, log),
		Title:    NewTitleHandler(service.Title, log),
		Review:   NewReviewHandler(service.Review, log),
		Comment:  NewCommentHandler(service.Comment, log),
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so the service reports missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	utils.ResponseBadRequest(w, "Invalid request body", nil)
	return false
}

func parsePage(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	page := request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), request.DefaultPerPage),
	}
	page.Normalize()
	return page
}

func parseList(r *http.Request) *request.ListRequest {
	return &request.ListRequest{
		PaginatedRequest: parsePage(r),
		Search:           utils.OptionalString(r.URL.Query().Get("search")),
	}
}

// writeServiceError maps a service error to the response envelope.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Debug(operation+" rejected",
		zap.String("kind", appErr.Kind.String()),
		zap.String("operation", operation),
		zap.String("fields", utils.FormatValidationErrors(appErr.Fields)),
		zap.Error(err))

	switch appErr.Kind {
	case apperror.KindValidation:
		utils.ResponseBadRequest(w, appErr.Message, fieldsOrNil(appErr.Fields))
	case apperror.KindUnauthorized:
		utils.ResponseUnauthorized(w, appErr.Message)
	case apperror.KindPermissionDenied:
		utils.ResponseForbidden(w, appErr.Message)
	case apperror.KindNotFound:
		utils.ResponseNotFound(w, appErr.Message)
	case apperror.KindConflict:
		utils.ResponseConflict(w, appErr.Message, fieldsOrNil(appErr.Fields))
	}
}

func fieldsOrNil(fields map[string]string) any {
	if len(fields) == 0 {
		return nil
	}
	return fields
}
