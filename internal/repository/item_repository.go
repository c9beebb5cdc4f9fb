package repository

import (
	"context"
	"errors"

	"wardrobe/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品の永続化（保存・取得・検索）だけを約束。
// 返す商品はSizeStocksをロード済みにする。
type ItemRepository interface {
	FindByID(ctx context.Context, itemID int64) (model.Item, error)

	//公開中（is_active=true）の商品だけ
	ListByCategory(ctx context.Context, category string) ([]model.Item, error)

	//name/category/type を大文字小文字無視の部分一致で検索（公開中のみ）
	Search(ctx context.Context, term string) ([]model.Item, error)

	//公開中の商品から重複なしでn件を一様ランダムに取る（母数以下に丸める）
	Sample(ctx context.Context, n int) ([]model.Item, error)

	Create(ctx context.Context, item model.Item) (model.Item, error)

	//サイズ別在庫リストごと置き換える。TotalStockも同じ操作で再計算する。
	Update(ctx context.Context, item model.Item) error

	//is_active=falseにするだけ。在庫・価格は注文履歴のため残す。
	SoftDelete(ctx context.Context, itemID int64) error
}
