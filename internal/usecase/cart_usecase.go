package usecase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 追加は楽観的（在庫を見ない）、読み取りとチェックアウトで在庫に突き合わせる。
type CartUsecase struct {
	cartRepo repo.CartRepository
	itemRepo repo.ItemRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	itemRepo repo.ItemRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo: cartRepo,
		itemRepo: itemRepo,
	}
}

// 明細が参照する商品のサマリ（読み取り時に商品から引き直す）
type CartItemSummary struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Color string          `json:"color"`
}

type CartLineResponse struct {
	ID       int64           `json:"id"`
	Item     CartItemSummary `json:"item"`
	Size     string          `json:"size"`
	Quantity int64           `json:"quantity"`
}

// リコンサイルで消えた明細の通知。
// カート本体は黙って収束させるが、レスポンスでは何が消えたかを返す。
type RemovedLine struct {
	ItemName string `json:"itemName"`
	Size     string `json:"size"`
	Reason   string `json:"reason"`
}

type CartResponse struct {
	Lines     []CartLineResponse `json:"lines"`
	CartCount int64              `json:"cartCount"`
	Removed   []RemovedLine      `json:"removed,omitempty"`
}

type AddCartInput struct {
	ItemID   int64
	Size     string
	Quantity int64
}

type UpdateCartLineInput struct {
	Quantity int64
	Size     string
}

// GetCart はカート取得（無ければ作って空を返す）。
// 保存されている明細を在庫に突き合わせ、クランプ・削除した結果を書き戻す。
// 書き戻すので、続けて2回読んでも同じ結果になる。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	kept, removed, err := ReconcileCart(ctx, u.itemRepo, u.cartRepo, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return buildCartResponse(kept, removed), nil
}

// AddToCart はカートに追加（同じ商品・サイズは数量加算）。
// 在庫はここでは見ない。読み取りとチェックアウトで検証する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid item_id")
	}
	if in.Quantity <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if in.Size == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid size")
	}

	// 商品チェック（公開のみ）
	item, err := u.itemRepo.FindByID(ctx, in.ItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !item.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
	}

	//サイズが商品に存在するか
	if !hasSize(item, in.Size) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid size")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// Upsert（同じ商品・サイズは加算）
	if err := u.cartRepo.UpsertLine(ctx, cart.ID, in.ItemID, in.Size, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	kept, removed, err := ReconcileCart(ctx, u.itemRepo, u.cartRepo, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return buildCartResponse(kept, removed), nil
}

// 数量・サイズ変更（所有チェックあり）。
// 在庫の再チェックはしない。次の読み取りかチェックアウトで検証される。
func (u *CartUsecase) UpdateCartLine(ctx context.Context, userID int64, lineID int64, in UpdateCartLineInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if lineID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	owned, err := u.cartRepo.IsLineOwnedByUser(ctx, lineID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	line, err := u.cartRepo.FindLineByID(ctx, lineID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	size := in.Size
	if size == "" {
		size = line.Size
	}

	//サイズを変えるなら、商品に存在するサイズかだけ確認する
	if size != line.Size {
		item, err := u.itemRepo.FindByID(ctx, line.ItemID)
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !hasSize(item, size) {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid size")
		}
	}

	if err := u.cartRepo.UpdateLine(ctx, lineID, in.Quantity, size); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetCart(ctx, userID)
}

// 明細削除。存在しない明細の削除はエラーにしない（冪等）。
func (u *CartUsecase) DeleteCartLine(ctx context.Context, userID int64, lineID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if lineID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartRepo.IsLineOwnedByUser(ctx, lineID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//自分の明細のときだけ消す。無ければそのまま現状を返す。
	if owned {
		if err := u.cartRepo.DeleteLine(ctx, lineID); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return u.GetCart(ctx, userID)
}

// リコンサイル済みの明細（ライブ商品と、明細サイズの現在在庫つき）
type ReconciledLine struct {
	Line  model.CartLine
	Item  model.Item
	Stock int64
}

// ReconcileCart は保存済み明細を在庫と突き合わせる。
//   - 商品が消えた/非公開 → 明細削除
//   - サイズが消えた → 明細削除
//   - 在庫0 → 明細削除
//   - 在庫 < 数量 → 数量を在庫までクランプ
//
// クランプ・削除は保存側にも書き戻す（読むたびに同じ結果へ収束する）。
// 消えた明細はエラーではなくRemovedLineとして返す。
func ReconcileCart(ctx context.Context, items repo.ItemRepository, carts repo.CartRepository, cartID int64) ([]ReconciledLine, []RemovedLine, error) {
	lines, err := carts.ListLines(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}

	kept := make([]ReconciledLine, 0, len(lines))
	removed := []RemovedLine{}

	for _, line := range lines {
		item, err := items.FindByID(ctx, line.ItemID)
		if err == repo.ErrNotFound {
			if err := carts.DeleteLine(ctx, line.ID); err != nil {
				return nil, nil, err
			}
			//商品ごと消えていて名前が引けないときはIDで名指しする
			removed = append(removed, RemovedLine{
				ItemName: fmt.Sprintf("item #%d", line.ItemID),
				Size:     line.Size,
				Reason:   "item no longer available",
			})
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		if !item.IsActive {
			if err := carts.DeleteLine(ctx, line.ID); err != nil {
				return nil, nil, err
			}
			removed = append(removed, RemovedLine{ItemName: item.Name, Size: line.Size, Reason: "item no longer available"})
			continue
		}

		stock, ok := stockForSize(item, line.Size)
		if !ok {
			if err := carts.DeleteLine(ctx, line.ID); err != nil {
				return nil, nil, err
			}
			removed = append(removed, RemovedLine{ItemName: item.Name, Size: line.Size, Reason: "size no longer available"})
			continue
		}

		if stock == 0 {
			if err := carts.DeleteLine(ctx, line.ID); err != nil {
				return nil, nil, err
			}
			removed = append(removed, RemovedLine{ItemName: item.Name, Size: line.Size, Reason: "out of stock"})
			continue
		}

		if stock < line.Quantity {
			//在庫まで数量を落として書き戻す
			if err := carts.UpdateLineQuantity(ctx, line.ID, stock); err != nil {
				return nil, nil, err
			}
			line.Quantity = stock
		}

		kept = append(kept, ReconciledLine{Line: line, Item: item, Stock: stock})
	}

	return kept, removed, nil
}

func buildCartResponse(kept []ReconciledLine, removed []RemovedLine) CartResponse {
	lines := make([]CartLineResponse, 0, len(kept))
	var count int64 = 0

	for _, rl := range kept {
		lines = append(lines, CartLineResponse{
			ID: rl.Line.ID,
			Item: CartItemSummary{
				ID:    rl.Item.ID,
				Name:  rl.Item.Name,
				Price: rl.Item.Price,
				Image: rl.Item.Image,
				Color: rl.Item.Color,
			},
			Size:     rl.Line.Size,
			Quantity: rl.Line.Quantity,
		})
		count += rl.Line.Quantity
	}

	return CartResponse{Lines: lines, CartCount: count, Removed: removed}
}

func hasSize(item model.Item, size string) bool {
	_, ok := stockForSize(item, size)
	return ok
}

func stockForSize(item model.Item, size string) (int64, bool) {
	for _, s := range item.SizeStocks {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}
