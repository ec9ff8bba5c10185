package entity

import (
	"time"
)

// Article types.
const (
	ArticleTypeCatering = "catering"
	ArticleTypeSonodis  = "sonodis"
)

type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Articles []Article `json:"articles,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string {
	return "categories"
}

// Article is a catalog item. Numero is the global print/display position:
// non-null numeros are unique and densely packed (0..k-1) across ALL
// categories; a nil numero means the article is unordered and sorts last.
// The shifting that keeps the set dense lives in ArticleRepository.
type Article struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Name       string    `json:"name" gorm:"size:128;not null"`
	Collisage  string    `json:"collisage" gorm:"size:64"`
	Type       string    `json:"type" gorm:"size:16;not null;default:catering"`
	Price      float64   `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	Numero     *int      `json:"numero" gorm:"uniqueIndex"`
	CategoryID string    `json:"category_id" gorm:"size:32;not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Article) TableName() string {
	return "articles"
}
