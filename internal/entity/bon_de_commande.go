package entity

import (
	"time"
)

// Bon de commande statuses. Once a bon is "confirmer" neither its fields nor
// its line quantities may change again.
const (
	BonStatusPending   = "en attente"
	BonStatusConfirmed = "confirmer"
)

// BonDeCommande is the daily order sheet of one employee: at most one bon per
// (employee, target day). Code is "BC-NN", assigned from the highest existing
// code at creation time.
type BonDeCommande struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:16;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Status      string    `json:"status" gorm:"size:16;not null;default:'en attente'"`
	EmployeeID  string    `json:"employee_id" gorm:"size:32;not null;index"`
	TargetDate  time.Time `json:"target_date" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	Employee *Employee               `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	Lines    []BonDeCommandeCategory `json:"lines,omitempty" gorm:"foreignKey:BonDeCommandeID"`
}

func (BonDeCommande) TableName() string {
	return "bons_de_commande"
}

// BonDeCommandeCategory is one quantity line of a bon. ArticleID nil means a
// category-level aggregate line; non-nil means a per-article line. At most
// one line exists per (bon, category, article) identity, so writes upsert.
type BonDeCommandeCategory struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	BonDeCommandeID   string    `json:"bon_de_commande_id" gorm:"size:32;not null;index;uniqueIndex:idx_bon_line_identity"`
	CategoryID        string    `json:"category_id" gorm:"size:32;not null;uniqueIndex:idx_bon_line_identity"`
	ArticleID         *string   `json:"article_id" gorm:"size:32;uniqueIndex:idx_bon_line_identity"`
	QuantiteAStocker  float64   `json:"quantite_a_stocker" gorm:"not null;default:0"`
	QuantiteADemander float64   `json:"quantite_a_demander" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Article  *Article  `json:"article,omitempty" gorm:"foreignKey:ArticleID"`
}

func (BonDeCommandeCategory) TableName() string {
	return "bon_de_commande_categories"
}
