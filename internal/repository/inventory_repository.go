package repository

import (
	"context"
	"errors"

	"wardrobe/internal/domain/model"
)

var (
	//指定サイズの在庫が数量に足りない
	ErrInsufficientStock = errors.New("insufficient stock")

	//商品にそのサイズが存在しない
	ErrSizeNotFound = errors.New("size not found")
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算。
	// 同じ(item, size)への同時呼び出しは条件付きUPDATEで直列化される。
	// サイズ別在庫とTotalStockは同じ操作の中で両方更新する。
	DecrementStockIfEnough(ctx context.Context, itemID int64, size string, qty int64) error

	// 在庫戻し（管理者の補正など）
	IncrementStock(ctx context.Context, itemID int64, size string, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.StockAdjustment) error
}
