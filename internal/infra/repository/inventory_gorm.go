package repository

import (
	"context"
	"errors"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足りるときだけ減らす。
// 条件付きUPDATEなので同じ(item, size)への同時実行はDB側で直列化される。
// サイズ在庫とtotal_stockがずれた状態は外から観測できない（同一Tx内）。
func (r *InventoryGormRepository) DecrementStockIfEnough(ctx context.Context, itemID int64, size string, qty int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&model.SizeStock{}).
			Where("item_id = ? AND size = ? AND stock >= ?", itemID, size, qty).
			Update("stock", gorm.Expr("stock - ?", qty))

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			//足りなかったのか、サイズ・商品が無いのかを切り分ける
			return r.classifyFailure(tx, itemID, size)
		}

		//total_stockも同じTxで追従させる
		res = tx.
			Model(&model.Item{}).
			Where("id = ?", itemID).
			Update("total_stock", gorm.Expr("total_stock - ?", qty))

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 在庫戻し（管理者の補正）
func (r *InventoryGormRepository) IncrementStock(ctx context.Context, itemID int64, size string, qty int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&model.SizeStock{}).
			Where("item_id = ? AND size = ?", itemID, size).
			Update("stock", gorm.Expr("stock + ?", qty))

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.classifyFailure(tx, itemID, size)
		}

		res = tx.
			Model(&model.Item{}).
			Where("id = ?", itemID).
			Update("total_stock", gorm.Expr("total_stock + ?", qty))

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

// RowsAffected==0だった理由を返す。
func (r *InventoryGormRepository) classifyFailure(tx *gorm.DB, itemID int64, size string) error {
	var itemCount int64
	if err := tx.Model(&model.Item{}).Where("id = ?", itemID).Count(&itemCount).Error; err != nil {
		return err
	}
	if itemCount == 0 {
		return repo.ErrNotFound
	}

	var sizeCount int64
	if err := tx.Model(&model.SizeStock{}).Where("item_id = ? AND size = ?", itemID, size).Count(&sizeCount).Error; err != nil {
		return err
	}
	if sizeCount == 0 {
		return repo.ErrSizeNotFound
	}

	return repo.ErrInsufficientStock
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
