package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GerantVisibilityWindow bounds how far back a Gerant can see orders.
const GerantVisibilityWindow = 48 * time.Hour

// BonDeCommandeService implements the order-sheet reconciliation: one bon per
// employee per target day, idempotent quantity merges, a completeness sweep
// on confirmation, and immutability afterwards.
type BonDeCommandeService struct {
	bonRepo  *repository.BonDeCommandeRepository
	empRepo  *repository.EmployeeRepository
	userRepo *repository.UserRepository
	catRepo  *repository.CategoryRepository
	artRepo  *repository.ArticleRepository
	db       *gorm.DB
}

func NewBonDeCommandeService(
	bonRepo *repository.BonDeCommandeRepository,
	empRepo *repository.EmployeeRepository,
	userRepo *repository.UserRepository,
	catRepo *repository.CategoryRepository,
	artRepo *repository.ArticleRepository,
	db *gorm.DB,
) *BonDeCommandeService {
	return &BonDeCommandeService{
		bonRepo:  bonRepo,
		empRepo:  empRepo,
		userRepo: userRepo,
		catRepo:  catRepo,
		artRepo:  artRepo,
		db:       db,
	}
}

type BonLineWrite struct {
	CategoryID        string  `json:"category_id" binding:"required"`
	ArticleID         *string `json:"article_id"`
	QuantiteAStocker  float64 `json:"quantite_a_stocker"`
	QuantiteADemander float64 `json:"quantite_a_demander"`
}

type UpsertBonRequest struct {
	EmployeeID  string         `json:"employee_id"`
	TargetDate  *time.Time     `json:"target_date"`
	Description string         `json:"description"`
	Items       []BonLineWrite `json:"items"`
}

// Upsert finds or creates the caller's bon for the target day (tomorrow when
// unspecified) and merges the quantity writes into it. Re-sending identical
// quantities is a no-op; changed quantities update the line in place; an
// article-level write replaces any stale category-level line for the same
// category.
func (s *BonDeCommandeService) Upsert(ctx context.Context, userID string, req *UpsertBonRequest) (*entity.BonDeCommande, error) {
	employeeID := req.EmployeeID
	if employeeID == "" {
		emp, err := s.empRepo.FindOrCreateByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolve employee: %w", err)
		}
		employeeID = emp.ID
	} else if _, err := s.empRepo.FindByID(ctx, employeeID); err != nil {
		return nil, fmt.Errorf("resolve employee: %w", err)
	}

	targetDate := time.Now().AddDate(0, 0, 1)
	if req.TargetDate != nil {
		targetDate = *req.TargetDate
	}
	dayStart := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var bonID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bon, err := repository.FindByEmployeeAndDay(tx, employeeID, dayStart, dayEnd)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			code, err := repository.GenerateCode(tx)
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			now := time.Now()
			bon = &entity.BonDeCommande{
				ID:          uuid.New().String()[:32],
				Code:        code,
				Description: req.Description,
				Status:      entity.BonStatusPending,
				EmployeeID:  employeeID,
				TargetDate:  targetDate,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(bon).Error; err != nil {
				return fmt.Errorf("create bon: %w", err)
			}
		} else {
			if bon.Status == entity.BonStatusConfirmed {
				return ErrOrderConfirmed
			}
			bon.TargetDate = targetDate
			if req.Description != "" {
				bon.Description = req.Description
			}
			bon.UpdatedAt = time.Now()
			if err := tx.Save(bon).Error; err != nil {
				return err
			}
		}
		bonID = bon.ID

		for i := range req.Items {
			if err := mergeLine(tx, bon.ID, &req.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.bonRepo.FindByID(ctx, bonID)
}

// mergeLine applies one quantity write with upsert-by-identity semantics on
// (bon, category, article).
func mergeLine(tx *gorm.DB, bonID string, write *BonLineWrite) error {
	if write.ArticleID != nil {
		// Article-level write supersedes a coarse category-level line.
		if err := tx.Where("bon_de_commande_id = ? AND category_id = ? AND article_id IS NULL",
			bonID, write.CategoryID).
			Delete(&entity.BonDeCommandeCategory{}).Error; err != nil {
			return err
		}
	}

	query := tx.Where("bon_de_commande_id = ? AND category_id = ?", bonID, write.CategoryID)
	if write.ArticleID == nil {
		query = query.Where("article_id IS NULL")
	} else {
		query = query.Where("article_id = ?", *write.ArticleID)
	}

	var line entity.BonDeCommandeCategory
	err := query.First(&line).Error
	if err == nil {
		if line.QuantiteAStocker == write.QuantiteAStocker &&
			line.QuantiteADemander == write.QuantiteADemander {
			return nil // identical quantities: suppress the write
		}
		line.QuantiteAStocker = write.QuantiteAStocker
		line.QuantiteADemander = write.QuantiteADemander
		line.UpdatedAt = time.Now()
		return tx.Save(&line).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	line = entity.BonDeCommandeCategory{
		ID:                uuid.New().String()[:32],
		BonDeCommandeID:   bonID,
		CategoryID:        write.CategoryID,
		ArticleID:         write.ArticleID,
		QuantiteAStocker:  write.QuantiteAStocker,
		QuantiteADemander: write.QuantiteADemander,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return tx.Create(&line).Error
}

func (s *BonDeCommandeService) Get(ctx context.Context, id string) (*entity.BonDeCommande, error) {
	return s.bonRepo.FindByID(ctx, id)
}

// List applies the caller's role scope: Admin and Responsible see everything,
// a Gerant sees only assigned employees' bons from the trailing 48 hours, and
// everyone else sees only their own (empty when they have no employee
// profile yet).
func (s *BonDeCommandeService) List(ctx context.Context, userID string, filters map[string]string) ([]entity.BonDeCommande, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	switch roleName {
	case entity.RoleAdmin, entity.RoleResponsible:
		return s.bonRepo.ListAll(ctx, filters)

	case entity.RoleGerant:
		emps, err := s.empRepo.ListByGerant(ctx, userID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(emps))
		for i, emp := range emps {
			ids[i] = emp.ID
		}
		since := time.Now().Add(-GerantVisibilityWindow)
		return s.bonRepo.ListByEmployeeIDs(ctx, ids, since)

	default:
		emp, err := s.empRepo.FindByUserID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return []entity.BonDeCommande{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.bonRepo.ListByEmployee(ctx, emp.ID)
	}
}

type UpdateBonRequest struct {
	Description *string    `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
}

// Update edits the parent fields of a still-pending bon.
func (s *BonDeCommandeService) Update(ctx context.Context, id string, req *UpdateBonRequest) (*entity.BonDeCommande, error) {
	bon, err := s.bonRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bon.Status == entity.BonStatusConfirmed {
		return nil, ErrOrderConfirmed
	}

	if req.Description != nil {
		bon.Description = *req.Description
	}
	if req.TargetDate != nil {
		bon.TargetDate = *req.TargetDate
	}
	bon.UpdatedAt = time.Now()

	bon.Employee = nil
	bon.Lines = nil
	if err := s.db.WithContext(ctx).Save(bon).Error; err != nil {
		return nil, err
	}
	return s.bonRepo.FindByID(ctx, id)
}

// UpdateStatus flips the lifecycle status. Confirming runs the completeness
// sweep first, so a confirmed bon always carries a line for every category
// and every article in the catalog at that moment. A confirmed bon can never
// change status again.
func (s *BonDeCommandeService) UpdateStatus(ctx context.Context, id, status string) (*entity.BonDeCommande, error) {
	if status != entity.BonStatusPending && status != entity.BonStatusConfirmed {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bon entity.BonDeCommande
		if err := tx.Where("id = ?", id).First(&bon).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if bon.Status == entity.BonStatusConfirmed {
			return ErrOrderConfirmed
		}
		if status == entity.BonStatusConfirmed {
			if err := sweepMissingLines(tx, bon.ID); err != nil {
				return err
			}
		}
		return tx.Model(&entity.BonDeCommande{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.bonRepo.FindByID(ctx, id)
}

// sweepMissingLines inserts zero-quantity lines for every category and every
// article the bon does not reference yet, making the confirmed bon a total
// snapshot of the catalog.
func sweepMissingLines(tx *gorm.DB, bonID string) error {
	var lines []entity.BonDeCommandeCategory
	if err := tx.Where("bon_de_commande_id = ?", bonID).Find(&lines).Error; err != nil {
		return err
	}

	coveredCategories := make(map[string]bool)
	coveredArticles := make(map[string]bool)
	for _, line := range lines {
		coveredCategories[line.CategoryID] = true
		if line.ArticleID != nil {
			coveredArticles[*line.ArticleID] = true
		}
	}

	now := time.Now()

	var categories []entity.Category
	if err := tx.Find(&categories).Error; err != nil {
		return err
	}
	for _, cat := range categories {
		if coveredCategories[cat.ID] {
			continue
		}
		line := entity.BonDeCommandeCategory{
			ID:              uuid.New().String()[:32],
			BonDeCommandeID: bonID,
			CategoryID:      cat.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}
	}

	var articles []entity.Article
	if err := tx.Find(&articles).Error; err != nil {
		return err
	}
	for i := range articles {
		if coveredArticles[articles[i].ID] {
			continue
		}
		line := entity.BonDeCommandeCategory{
			ID:              uuid.New().String()[:32],
			BonDeCommandeID: bonID,
			CategoryID:      articles[i].CategoryID,
			ArticleID:       &articles[i].ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}
	}
	return nil
}

type UpdateLineRequest struct {
	QuantiteAStocker  float64 `json:"quantite_a_stocker"`
	QuantiteADemander float64 `json:"quantite_a_demander"`
}

// UpdateLine edits one line's quantities, guarded by the parent's status.
func (s *BonDeCommandeService) UpdateLine(ctx context.Context, lineID string, req *UpdateLineRequest) (*entity.BonDeCommandeCategory, error) {
	line, err := s.bonRepo.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}

	bon, err := s.bonRepo.FindByID(ctx, line.BonDeCommandeID)
	if err != nil {
		return nil, err
	}
	if bon.Status == entity.BonStatusConfirmed {
		return nil, ErrOrderConfirmed
	}

	if line.QuantiteAStocker == req.QuantiteAStocker &&
		line.QuantiteADemander == req.QuantiteADemander {
		return line, nil
	}
	line.QuantiteAStocker = req.QuantiteAStocker
	line.QuantiteADemander = req.QuantiteADemander
	line.UpdatedAt = time.Now()
	if err := s.bonRepo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *BonDeCommandeService) Delete(ctx context.Context, id string) error {
	return s.bonRepo.Delete(ctx, id)
}
