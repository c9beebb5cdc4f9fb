package repository

import (
	"context"
	"errors"
	"time"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart

	//トランザクションで探す→無ければ作る
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&cart).Error

		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る
		now := time.Now()
		newCart := model.Cart{
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		//SAVEPOINTで囲む。同時作成で負けてもTxは生きたまま取り直せる。
		createErr := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&newCart).Error
		})
		if createErr != nil {
			//同時作成とぶつかったら取り直す（user_idはユニーク）
			retryErr := tx.Where("user_id = ?", userID).First(&cart).Error
			if retryErr == nil {
				return nil
			}
			return createErr
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// カート明細を一覧取得
func (r *CartGormRepository) ListLines(ctx context.Context, cartID int64) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	return lines, nil
}

// 同じ(item, size)は数量加算
func (r *CartGormRepository) UpsertLine(ctx context.Context, cartID int64, itemID int64, size string, addQty int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line model.CartLine

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND item_id = ? AND size = ?", cartID, itemID, size).
			First(&line).Error

		if err == nil {
			// 既存ありだったら数量を増やす
			newQty := line.Quantity + addQty

			res := tx.Model(&model.CartLine{}).
				Where("id = ?", line.ID).
				Update("quantity", newQty)

			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は新規作成。SAVEPOINTで囲んで、負けてもTxを生かす。
		now := time.Now()
		newLine := model.CartLine{
			CartID:    cartID,
			ItemID:    itemID,
			Size:      size,
			Quantity:  addQty,
			CreatedAt: now,
			UpdatedAt: now,
		}

		createErr := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&newLine).Error
		})
		if createErr == nil {
			return nil
		}

		//(cart, item, size)の複合ユニークで同時追加に負けた場合だけ、
		//勝った行を読み直して数量を加算する
		var pgErr *pgconn.PgError
		if !errors.As(createErr, &pgErr) || pgErr.Code != pgUniqueViolation {
			return createErr
		}

		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND item_id = ? AND size = ?", cartID, itemID, size).
			First(&line).Error; err != nil {
			return err
		}

		res := tx.Model(&model.CartLine{}).
			Where("id = ?", line.ID).
			Update("quantity", line.Quantity+addQty)

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 明細の数量とサイズを更新
func (r *CartGormRepository) UpdateLine(ctx context.Context, lineID int64, qty int64, size string) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"quantity": qty,
			"size":     size,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 数量だけ更新（リコンサイルのクランプ用）
func (r *CartGormRepository) UpdateLineQuantity(ctx context.Context, lineID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除。無ければ何もしない（冪等）。
func (r *CartGormRepository) DeleteLine(ctx context.Context, lineID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, lineID)
	if res.Error != nil {
		return res.Error
	}
	return nil
}

// 明細を取得
func (r *CartGormRepository) FindLineByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Where("id = ?", lineID).
		First(&line).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartLine{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

//明細が、そのuserのカートに属しているかを判定

func (r *CartGormRepository) IsLineOwnedByUser(ctx context.Context, lineID int64, userID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Table("cart_lines").
		Joins("join carts on carts.id = cart_lines.cart_id").
		Where("cart_lines.id = ? AND carts.user_id = ?", lineID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		if err := tx.Where("id = ?", cartID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartLine{}).Error; err != nil {
			return err
		}
		return nil
	})
}

// 指定商品の明細を全カートから削除（販売終了時）
func (r *CartGormRepository) DeleteLinesByItemID(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&model.CartLine{}).Error
}
