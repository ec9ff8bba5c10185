package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*entity.Employee, error) {
	var emp entity.Employee
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) FindByUserID(ctx context.Context, userID string) (*entity.Employee, error) {
	var emp entity.Employee
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// FindOrCreateByUserID returns the user's employee profile, creating it on
// first use.
func (r *EmployeeRepository) FindOrCreateByUserID(ctx context.Context, userID string) (*entity.Employee, error) {
	emp, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	emp = &entity.Employee{
		ID:        uuid.New().String()[:32],
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(emp).Error; err != nil {
		return nil, err
	}
	return emp, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]entity.Employee, error) {
	var emps []entity.Employee
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role").
		Order("created_at ASC").
		Find(&emps).Error
	return emps, err
}

// ListByGerant returns the employees explicitly assigned to a Gerant user.
func (r *EmployeeRepository) ListByGerant(ctx context.Context, gerantUserID string) ([]entity.Employee, error) {
	var emps []entity.Employee
	err := r.db.WithContext(ctx).
		Joins("JOIN gerant_employees ON gerant_employees.employee_id = employees.id").
		Where("gerant_employees.gerant_id = ?", gerantUserID).
		Preload("User").
		Find(&emps).Error
	return emps, err
}

// ReplaceGerantAssignments rewrites a Gerant's employee set wholesale:
// delete everything, recreate from the given ids.
func (r *EmployeeRepository) ReplaceGerantAssignments(ctx context.Context, gerantUserID string, employeeIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gerant_id = ?", gerantUserID).Delete(&entity.GerantEmployee{}).Error; err != nil {
			return err
		}
		for _, empID := range employeeIDs {
			var count int64
			if err := tx.Model(&entity.Employee{}).Where("id = ?", empID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			assignment := entity.GerantEmployee{
				GerantID:   gerantUserID,
				EmployeeID: empID,
				CreatedAt:  time.Now(),
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
