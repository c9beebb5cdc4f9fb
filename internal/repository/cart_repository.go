package repository

import (
	"context"

	"wardrobe/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)

	ListLines(ctx context.Context, cartID int64) ([]model.CartLine, error)

	// 同じ(item, size)は数量加算
	UpsertLine(ctx context.Context, cartID int64, itemID int64, size string, addQty int64) error

	UpdateLine(ctx context.Context, lineID int64, qty int64, size string) error

	//数量だけ更新（リコンサイルのクランプで使う）
	UpdateLineQuantity(ctx context.Context, lineID int64, qty int64) error

	//存在しない明細の削除はエラーにしない
	DeleteLine(ctx context.Context, lineID int64) error

	FindLineByID(ctx context.Context, lineID int64) (model.CartLine, error)
	IsLineOwnedByUser(ctx context.Context, lineID int64, userID int64) (bool, error)

	//指定カートの明細を全削除
	Clear(ctx context.Context, cartID int64) error

	//指定商品の明細を全ユーザーのカートから削除（販売終了時）
	DeleteLinesByItemID(ctx context.Context, itemID int64) error
}
