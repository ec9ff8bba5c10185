package service

import (
	"errors"

	"github.com/Mo21aziz/erpexpress-sub000/internal/config"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Business-rule errors. Handlers map these onto HTTP statuses.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrOrderConfirmed     = errors.New("bon de commande already confirmed")
	ErrCategoryNotEmpty   = errors.New("category still has articles")
	ErrNotGerant          = errors.New("user does not have the Gerant role")
	ErrValidation         = errors.New("validation failed")
)

// Services groups every service.
type Services struct {
	Auth          *AuthService
	User          *UserService
	Category      *CategoryService
	Article       *ArticleService
	BonDeCommande *BonDeCommandeService
}

// NewServices wires the services over the shared repositories. rdb may be
// nil; caching and refresh-jti bookkeeping are then skipped.
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Services {
	return &Services{
		Auth:          NewAuthService(repos.User, repos.Role, rdb, cfg),
		User:          NewUserService(repos.User, repos.Role, repos.Employee),
		Category:      NewCategoryService(repos.Category, rdb),
		Article:       NewArticleService(repos.Article, repos.Category, rdb),
		BonDeCommande: NewBonDeCommandeService(repos.BonDeCommande, repos.Employee, repos.User, repos.Category, repos.Article, db),
	}
}
