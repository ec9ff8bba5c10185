package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const categoryCacheKey = "catalog:categories"

type CategoryService struct {
	repo *repository.CategoryRepository
	rdb  *redis.Client
}

func NewCategoryService(repo *repository.CategoryRepository, rdb *redis.Client) *CategoryService {
	return &CategoryService{repo: repo, rdb: rdb}
}

// List serves the category list from Redis when possible; the cache is
// dropped on every write.
func (s *CategoryService) List(ctx context.Context) ([]entity.Category, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, categoryCacheKey).Result(); err == nil {
			var cats []entity.Category
			if json.Unmarshal([]byte(cached), &cats) == nil {
				return cats, nil
			}
		}
	}

	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(cats); err == nil {
			s.rdb.Set(ctx, categoryCacheKey, data, 5*time.Minute)
		}
	}
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*entity.Category, error) {
	return s.repo.FindByID(ctx, id)
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest) (*entity.Category, error) {
	now := time.Now()
	cat := &entity.Category{
		ID:          uuid.New().String()[:32],
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return cat, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, req *CategoryRequest) (*entity.Category, error) {
	cat, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cat.Name = req.Name
	cat.Description = req.Description
	cat.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return cat, nil
}

// Delete refuses to drop a non-empty category unless cascade was requested.
func (s *CategoryService) Delete(ctx context.Context, id string, cascade bool) error {
	if !cascade {
		count, err := s.repo.CountArticles(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryNotEmpty
		}
	}
	if err := s.repo.Delete(ctx, id, cascade); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, categoryCacheKey, articleCacheKey)
	}
}
