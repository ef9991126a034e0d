package usecase

import (
	"review-api/internal/data/repository"
	"review-api/pkg/mailer"
	"review-api/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Genre    GenreService
	Title    TitleService
	Review   ReviewService
	Comment  CommentService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	mail mailer.Sender,
	tokens *utils.TokenIssuer,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo, config, mail, tokens, log),
		User:     NewUserService(repo, config.Validation, log),
		Category: NewCategoryService(repo, log),
		Genre:    NewGenreService(repo, log),
		Title:    NewTitleService(repo, log),
		Review:   NewReviewService(repo, log),
		Comment:  NewCommentService(repo, log),
	}
}
