package repository

import (
	"context"
	"errors"

	"wardrobe/internal/domain/model"
)

//order_numberのユニーク制約違反
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

type OrderRepository interface {
	//注文を作成してIDを返す。番号が衝突したらErrDuplicateOrderNumber。
	//衝突を返した後も呼び出し元のTxは使える状態のままにする（番号を作り直して再挿入できる）。
	Create(ctx context.Context, order model.Order) (int64, error)

	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	//新しい順
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
}

type OrderLineRepository interface {
	CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error)
}
