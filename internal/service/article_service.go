package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const articleCacheKey = "catalog:articles"

type ArticleService struct {
	repo    *repository.ArticleRepository
	catRepo *repository.CategoryRepository
	rdb     *redis.Client
}

func NewArticleService(repo *repository.ArticleRepository, catRepo *repository.CategoryRepository, rdb *redis.Client) *ArticleService {
	return &ArticleService{repo: repo, catRepo: catRepo, rdb: rdb}
}

// List caches only the unfiltered catalog; filtered queries go to the DB.
func (s *ArticleService) List(ctx context.Context, filters map[string]string) ([]entity.Article, error) {
	unfiltered := filters["category_id"] == "" && filters["type"] == "" && filters["search"] == ""

	if unfiltered && s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, articleCacheKey).Result(); err == nil {
			var articles []entity.Article
			if json.Unmarshal([]byte(cached), &articles) == nil {
				return articles, nil
			}
		}
	}

	articles, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	if unfiltered && s.rdb != nil {
		if data, err := json.Marshal(articles); err == nil {
			s.rdb.Set(ctx, articleCacheKey, data, 5*time.Minute)
		}
	}
	return articles, nil
}

func (s *ArticleService) ListByCategory(ctx context.Context, categoryID string) ([]entity.Article, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

func (s *ArticleService) Get(ctx context.Context, id string) (*entity.Article, error) {
	return s.repo.FindByID(ctx, id)
}

type ArticleRequest struct {
	Name       string  `json:"name" binding:"required"`
	Collisage  string  `json:"collisage"`
	Type       string  `json:"type"`
	Price      float64 `json:"price"`
	Numero     *int    `json:"numero"`
	CategoryID string  `json:"category_id" binding:"required"`
}

func (s *ArticleService) validate(ctx context.Context, req *ArticleRequest) error {
	if req.Type != "" && req.Type != entity.ArticleTypeCatering && req.Type != entity.ArticleTypeSonodis {
		return fmt.Errorf("%w: invalid article type %q", ErrValidation, req.Type)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if req.Numero != nil && *req.Numero < 0 {
		return fmt.Errorf("%w: numero must be a non-negative integer", ErrValidation)
	}
	if _, err := s.catRepo.FindByID(ctx, req.CategoryID); err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}
	return nil
}

func (s *ArticleService) Create(ctx context.Context, req *ArticleRequest) (*entity.Article, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	articleType := req.Type
	if articleType == "" {
		articleType = entity.ArticleTypeCatering
	}

	now := time.Now()
	article := &entity.Article{
		ID:         uuid.New().String()[:32],
		Name:       req.Name,
		Collisage:  req.Collisage,
		Type:       articleType,
		Price:      req.Price,
		Numero:     req.Numero,
		CategoryID: req.CategoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.FindByID(ctx, article.ID)
}

// Update routes through the numero-shifting path only when the position
// actually changes; a plain field edit never touches other articles.
func (s *ArticleService) Update(ctx context.Context, id string, req *ArticleRequest) (*entity.Article, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldNumero := article.Numero
	article.Name = req.Name
	article.Collisage = req.Collisage
	if req.Type != "" {
		article.Type = req.Type
	}
	article.Price = req.Price
	article.CategoryID = req.CategoryID
	article.Category = nil
	article.UpdatedAt = time.Now()

	if numeroChanged(oldNumero, req.Numero) {
		if err := s.repo.UpdateNumero(ctx, article, oldNumero, req.Numero); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.Update(ctx, article); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx)
	return s.repo.FindByID(ctx, id)
}

func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ArticleService) invalidate(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, articleCacheKey, categoryCacheKey)
	}
}

func numeroChanged(old, new *int) bool {
	if old == nil && new == nil {
		return false
	}
	if old == nil || new == nil {
		return true
	}
	return *old != *new
}
