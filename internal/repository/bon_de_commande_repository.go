package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"gorm.io/gorm"
)

type BonDeCommandeRepository struct {
	db *gorm.DB
}

func NewBonDeCommandeRepository(db *gorm.DB) *BonDeCommandeRepository {
	return &BonDeCommandeRepository{db: db}
}

func (r *BonDeCommandeRepository) FindByID(ctx context.Context, id string) (*entity.BonDeCommande, error) {
	var bon entity.BonDeCommande
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Employee.User").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Lines.Category").
		Preload("Lines.Article").
		Where("id = ?", id).
		First(&bon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bon, nil
}

// FindByEmployeeAndDay returns the employee's bon whose target date falls
// inside [dayStart, dayEnd), or ErrNotFound.
func FindByEmployeeAndDay(tx *gorm.DB, employeeID string, dayStart, dayEnd time.Time) (*entity.BonDeCommande, error) {
	var bon entity.BonDeCommande
	err := tx.
		Where("employee_id = ? AND target_date >= ? AND target_date < ?", employeeID, dayStart, dayEnd).
		First(&bon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bon, nil
}

// GenerateCode produces the next "BC-NN" code by parsing the highest
// existing one. Best effort only: two concurrent creators can both read the
// same max, in which case one insert fails on the unique code index.
func GenerateCode(tx *gorm.DB) (string, error) {
	var maxCode string
	// Lexicographic MAX breaks past BC-99, so order by length first.
	err := tx.Model(&entity.BonDeCommande{}).
		Select("COALESCE(code, '')").
		Where("code LIKE ?", "BC-%").
		Order("LENGTH(code) DESC, code DESC").
		Limit(1).
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "BC-%d", &seq)
	}
	seq++
	return fmt.Sprintf("BC-%02d", seq), nil
}

func (r *BonDeCommandeRepository) Create(ctx context.Context, bon *entity.BonDeCommande) error {
	return r.db.WithContext(ctx).Create(bon).Error
}

// ListAll returns every bon, newest first. Admin and Responsible scope.
func (r *BonDeCommandeRepository) ListAll(ctx context.Context, filters map[string]string) ([]entity.BonDeCommande, error) {
	query := r.db.WithContext(ctx).Model(&entity.BonDeCommande{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	return r.list(query)
}

// ListByEmployeeIDs returns bons owned by the given employees and created
// after since. Gerant scope.
func (r *BonDeCommandeRepository) ListByEmployeeIDs(ctx context.Context, employeeIDs []string, since time.Time) ([]entity.BonDeCommande, error) {
	if len(employeeIDs) == 0 {
		return []entity.BonDeCommande{}, nil
	}
	query := r.db.WithContext(ctx).Model(&entity.BonDeCommande{}).
		Where("employee_id IN ? AND created_at >= ?", employeeIDs, since)
	return r.list(query)
}

// ListByEmployee returns one employee's bons with no time restriction.
func (r *BonDeCommandeRepository) ListByEmployee(ctx context.Context, employeeID string) ([]entity.BonDeCommande, error) {
	query := r.db.WithContext(ctx).Model(&entity.BonDeCommande{}).
		Where("employee_id = ?", employeeID)
	return r.list(query)
}

func (r *BonDeCommandeRepository) list(query *gorm.DB) ([]entity.BonDeCommande, error) {
	var bons []entity.BonDeCommande
	err := query.
		Preload("Employee").
		Preload("Employee.User").
		Preload("Lines").
		Preload("Lines.Category").
		Preload("Lines.Article").
		Order("created_at DESC").
		Find(&bons).Error
	return bons, err
}

func (r *BonDeCommandeRepository) FindLineByID(ctx context.Context, lineID string) (*entity.BonDeCommandeCategory, error) {
	var line entity.BonDeCommandeCategory
	err := r.db.WithContext(ctx).Where("id = ?", lineID).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (r *BonDeCommandeRepository) UpdateLine(ctx context.Context, line *entity.BonDeCommandeCategory) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// Delete removes a bon and its lines.
func (r *BonDeCommandeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bon_de_commande_id = ?", id).Delete(&entity.BonDeCommandeCategory{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&entity.BonDeCommande{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
