package repository

import (
	"context"
	"strings"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"

	"gorm.io/gorm"
)

type ItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewItemGormRepository(db *gorm.DB) *ItemGormRepository {
	return &ItemGormRepository{db: db}
}

// IDで商品を取得（サイズ別在庫つき）
func (r *ItemGormRepository) FindByID(ctx context.Context, itemID int64) (model.Item, error) {
	var item model.Item

	err := r.db.WithContext(ctx).
		Preload("SizeStocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		First(&item, itemID).Error

	if isNotFound(err) {
		return model.Item{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// カテゴリの公開商品のみ
func (r *ItemGormRepository) ListByCategory(ctx context.Context, category string) ([]model.Item, error) {
	var items []model.Item

	err := r.db.WithContext(ctx).
		Preload("SizeStocks").
		Where("category = ? AND is_active = ?", category, true).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// name/category/typeを大文字小文字無視で部分一致検索
func (r *ItemGormRepository) Search(ctx context.Context, term string) ([]model.Item, error) {
	like := "%" + strings.TrimSpace(term) + "%"

	var items []model.Item
	err := r.db.WithContext(ctx).
		Preload("SizeStocks").
		Where("is_active = ?", true).
		Where("name ILIKE ? OR category ILIKE ? OR type ILIKE ?", like, like, like).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// 公開商品から重複なしでn件を一様ランダムに取る
func (r *ItemGormRepository) Sample(ctx context.Context, n int) ([]model.Item, error) {
	if n <= 0 {
		return []model.Item{}, nil
	}

	var items []model.Item
	err := r.db.WithContext(ctx).
		Preload("SizeStocks").
		Where("is_active = ?", true).
		Order("RANDOM()").
		Limit(n).
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// 商品の作成（サイズ別在庫ごと）。total_stockはここで確定させる。
func (r *ItemGormRepository) Create(ctx context.Context, item model.Item) (model.Item, error) {
	item.TotalStock = sumStock(item.SizeStocks)

	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// 商品の更新。サイズ別在庫リストは丸ごと置き換えて、total_stockも同じTxで再計算する。
func (r *ItemGormRepository) Update(ctx context.Context, item model.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"name":        item.Name,
			"category":    item.Category,
			"type":        item.Type,
			"image":       item.Image,
			"color":       item.Color,
			"price":       item.Price,
			"total_stock": sumStock(item.SizeStocks),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		//古いサイズ在庫を消して入れ直す
		if err := tx.Where("item_id = ?", item.ID).Delete(&model.SizeStock{}).Error; err != nil {
			return err
		}

		for i := range item.SizeStocks {
			item.SizeStocks[i].ID = 0
			item.SizeStocks[i].ItemID = item.ID
		}
		if len(item.SizeStocks) > 0 {
			if err := tx.Create(&item.SizeStocks).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// 販売終了。レコードは注文履歴のために残す。
func (r *ItemGormRepository) SoftDelete(ctx context.Context, itemID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", itemID).
		Update("is_active", false)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func sumStock(stocks []model.SizeStock) int64 {
	var total int64
	for _, s := range stocks {
		total += s.Stock
	}
	return total
}
