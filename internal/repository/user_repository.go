package repository

import (
	"context"
	"errors"

	"wardrobe/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error

	// IDからユーザーを1件取得する。見つからなければnilを返す。
	FindByID(ctx context.Context, userID int64) (*model.User, error)

	//メールからユーザーを一件取得する。見つからなければnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	//お気に入り（重複追加はしない）
	AddFavorite(ctx context.Context, userID int64, itemID int64) error
	RemoveFavorite(ctx context.Context, userID int64, itemID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]model.Item, error)

	//指定商品を全ユーザーのお気に入りから外す（販売終了時）
	RemoveFavoriteFromAllUsers(ctx context.Context, itemID int64) error
}
