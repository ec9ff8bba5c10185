package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrNumeroTaken means a numero slot was still occupied after the shift,
	// i.e. a concurrent writer won the race. Callers retry.
	ErrNumeroTaken = errors.New("numero unavailable after shift")
)

// Repositories groups every repository over one shared *gorm.DB.
type Repositories struct {
	User          *UserRepository
	Role          *RoleRepository
	Employee      *EmployeeRepository
	Category      *CategoryRepository
	Article       *ArticleRepository
	BonDeCommande *BonDeCommandeRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Role:          NewRoleRepository(db),
		Employee:      NewEmployeeRepository(db),
		Category:      NewCategoryRepository(db),
		Article:       NewArticleRepository(db),
		BonDeCommande: NewBonDeCommandeRepository(db),
	}
}
