package repository

import (
	"context"
	"errors"

	"wardrobe/internal/domain/model"
	domainrepo "wardrobe/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}
	return nil
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

// お気に入り追加（既にあれば何もしない）
func (r *userGormRepository) AddFavorite(ctx context.Context, userID int64, itemID int64) error {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_favorites").
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Exec("INSERT INTO user_favorites (user_id, item_id) VALUES (?, ?)", userID, itemID).Error
}

// お気に入り削除
func (r *userGormRepository) RemoveFavorite(ctx context.Context, userID int64, itemID int64) error {
	return r.db.WithContext(ctx).
		Exec("DELETE FROM user_favorites WHERE user_id = ? AND item_id = ?", userID, itemID).Error
}

// お気に入り一覧（公開中の商品のみ）
func (r *userGormRepository) ListFavorites(ctx context.Context, userID int64) ([]model.Item, error) {
	var items []model.Item

	err := r.db.WithContext(ctx).
		Preload("SizeStocks").
		Joins("join user_favorites on user_favorites.item_id = items.id").
		Where("user_favorites.user_id = ? AND items.is_active = ?", userID, true).
		Order("items.id asc").
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// 指定商品を全ユーザーのお気に入りから外す（販売終了時）
func (r *userGormRepository) RemoveFavoriteFromAllUsers(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Exec("DELETE FROM user_favorites WHERE item_id = ?", itemID).Error
}
