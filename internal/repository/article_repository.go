package repository

import (
	"context"
	"errors"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"gorm.io/gorm"
)

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*entity.Article, error) {
	var article entity.Article
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &article, nil
}

// List returns articles ordered by their global numero; unordered articles
// (numero null) sort last.
func (r *ArticleRepository) List(ctx context.Context, filters map[string]string) ([]entity.Article, error) {
	var articles []entity.Article

	query := r.db.WithContext(ctx).Model(&entity.Article{})

	if categoryID := filters["category_id"]; categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if articleType := filters["type"]; articleType != "" {
		query = query.Where("type = ?", articleType)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	err := query.
		Preload("Category").
		Order("numero ASC NULLS LAST, name ASC").
		Find(&articles).Error
	return articles, err
}

func (r *ArticleRepository) ListByCategory(ctx context.Context, categoryID string) ([]entity.Article, error) {
	var articles []entity.Article
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("numero ASC NULLS LAST, name ASC").
		Find(&articles).Error
	return articles, err
}

// Create inserts an article. When a numero is given, every article at that
// position or later is shifted up by one first, so the numero set stays
// {0..k-1}. A numero past the end of the range is clamped so the insert
// appends instead of leaving a gap. If the slot is still occupied after the
// shift a concurrent writer got there first; the transaction rolls back with
// ErrNumeroTaken.
func (r *ArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	if article.Numero == nil {
		return r.db.WithContext(ctx).Create(article).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := clampNumero(tx, *article.Numero)
		if err != nil {
			return err
		}
		article.Numero = &n

		if err := shiftNumerosUp(tx, n); err != nil {
			return err
		}

		var occupied int64
		if err := tx.Model(&entity.Article{}).Where("numero = ?", n).Count(&occupied).Error; err != nil {
			return err
		}
		if occupied > 0 {
			return ErrNumeroTaken
		}

		return tx.Create(article).Error
	})
}

// Update saves an article whose numero did not change.
func (r *ArticleRepository) Update(ctx context.Context, article *entity.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}

// UpdateNumero moves an article from position old to position new. The order
// of operations matters: null out the moved row, close the gap it left, clamp
// the target to the remaining range, open the target slot, then land the row.
// Doing it any other way produces transient duplicates when old and new are
// on the same side of the list, or a gap when new points past the end.
func (r *ArticleRepository) UpdateNumero(ctx context.Context, article *entity.Article, oldNumero *int, newNumero *int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Article{}).
			Where("id = ?", article.ID).
			Update("numero", nil).Error; err != nil {
			return err
		}

		if oldNumero != nil {
			if err := shiftNumerosDown(tx, *oldNumero); err != nil {
				return err
			}
		}

		if newNumero != nil {
			n, err := clampNumero(tx, *newNumero)
			if err != nil {
				return err
			}
			newNumero = &n
			if err := shiftNumerosUp(tx, n); err != nil {
				return err
			}
		}
		article.Numero = newNumero

		return tx.Save(article).Error
	})
}

// clampNumero bounds a requested position to the count of ordered articles,
// so a write past the last slot appends at the end instead of opening a gap
// in the dense range.
func clampNumero(tx *gorm.DB, n int) (int, error) {
	var count int64
	if err := tx.Model(&entity.Article{}).Where("numero IS NOT NULL").Count(&count).Error; err != nil {
		return 0, err
	}
	if n > int(count) {
		n = int(count)
	}
	return n, nil
}

// Delete removes an article, its order lines, and closes the numero gap it
// leaves behind.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article entity.Article
		if err := tx.Where("id = ?", id).First(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Where("article_id = ?", id).Delete(&entity.BonDeCommandeCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&article).Error; err != nil {
			return err
		}

		if article.Numero != nil {
			return shiftNumerosDown(tx, *article.Numero)
		}
		return nil
	})
}

// shiftNumerosUp increments the numero of every article at position from or
// later. The unique index is checked per updated row, so a direct numero+1
// over a dense range can collide mid-statement; the range is parked on the
// negative side first.
func shiftNumerosUp(tx *gorm.DB, from int) error {
	if err := tx.Model(&entity.Article{}).
		Where("numero >= ?", from).
		Update("numero", gorm.Expr("-(numero + 1)")).Error; err != nil {
		return err
	}
	return tx.Model(&entity.Article{}).
		Where("numero < 0").
		Update("numero", gorm.Expr("-numero")).Error
}

// shiftNumerosDown decrements the numero of every article past position
// above, closing a gap. Same two-phase trick as shiftNumerosUp.
func shiftNumerosDown(tx *gorm.DB, above int) error {
	if err := tx.Model(&entity.Article{}).
		Where("numero > ?", above).
		Update("numero", gorm.Expr("-(numero - 1)")).Error; err != nil {
		return err
	}
	return tx.Model(&entity.Article{}).
		Where("numero < 0").
		Update("numero", gorm.Expr("-numero")).Error
}

// compactNumeros renumbers every ordered article to 0..k-1 after bulk
// deletions. Rows are processed in ascending numero order; each target is
// strictly below the current value, so no update can collide.
func compactNumeros(tx *gorm.DB) error {
	var articles []entity.Article
	if err := tx.Where("numero IS NOT NULL").Order("numero ASC").Find(&articles).Error; err != nil {
		return err
	}
	for i := range articles {
		if *articles[i].Numero == i {
			continue
		}
		if err := tx.Model(&entity.Article{}).
			Where("id = ?", articles[i].ID).
			Update("numero", i).Error; err != nil {
			return err
		}
	}
	return nil
}
