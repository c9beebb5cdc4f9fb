package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wardrobe/internal/config"
	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"
)

// OrderUsecase はチェックアウトと注文履歴の業務ロジックです。
// カート検証→在庫減算→注文作成→カートクリアを1つのTxで行う。
type OrderUsecase struct {
	tx       repo.TransactionManager
	shipping config.ShippingConfig
	numGen   OrderNumberGenerator
	logger   zerolog.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	shipping config.ShippingConfig,
	numGen OrderNumberGenerator,
	logger zerolog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		shipping: shipping,
		numGen:   numGen,
		logger:   logger,
	}
}

type PlaceOrderInput struct {
	Shipping       model.ShippingDetails
	ShippingMethod string
}

type OrderLineOutput struct {
	ItemID   int64           `json:"itemId"`
	Name     string          `json:"name"`
	Size     string          `json:"size"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderOutput struct {
	ID             int64                 `json:"id"`
	OrderNumber    string                `json:"orderNumber"`
	UserID         int64                 `json:"userId"`
	TotalAmount    decimal.Decimal       `json:"totalAmount"`
	Shipping       model.ShippingDetails `json:"shippingDetails"`
	ShippingMethod string                `json:"shippingMethod"`
	CreatedAt      time.Time             `json:"createdAt"`
	Lines          []OrderLineOutput     `json:"lines"`
}

// 必須の配送先フィールド（チェック順）
var requiredShippingFields = []struct {
	name  string
	value func(model.ShippingDetails) string
}{
	{"firstName", func(s model.ShippingDetails) string { return s.FirstName }},
	{"lastName", func(s model.ShippingDetails) string { return s.LastName }},
	{"address", func(s model.ShippingDetails) string { return s.Address }},
	{"city", func(s model.ShippingDetails) string { return s.City }},
	{"postalCode", func(s model.ShippingDetails) string { return s.PostalCode }},
	{"phoneNumber", func(s model.ShippingDetails) string { return s.PhoneNumber }},
}

// PlaceOrder はカートから注文を確定する。
//
// フェーズを分ける：
//  1. 配送先の検証（最初に欠けたフィールドで失敗）
//  2. Tx内でカートをリコンサイル（空なら失敗）
//  3. 全明細の在庫を検証（この段階では何も書かない）
//  4. 全明細の在庫を条件付きUPDATEで減算
//  5. 価格をスナップショットして注文＋明細を作成（番号衝突は1回だけ再生成）
//  6. カートをクリア
//
// 4以降で失敗した場合はTxごとロールバックされるので、部分的な減算は残らない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//配送先の必須チェック（順番どおり、最初の欠けで失敗）
	for _, f := range requiredShippingFields {
		if f.value(in.Shipping) == "" {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is required", f.name))
		}
	}

	method := model.ShippingMethod(in.ShippingMethod)
	if method != model.ShippingMethodHome && method != model.ShippingMethodMailbox {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid shipping method")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//テーブル上のカートを在庫と突き合わせる（クランプ・削除込み）
		kept, _, err := ReconcileCart(ctx, r.Items(), r.Carts(), cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(kept) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		//全明細を検証してから減算に入る（検証中は何も書かない）
		for _, rl := range kept {
			if rl.Stock < rl.Line.Quantity {
				return NewHTTPError(http.StatusConflict,
					fmt.Sprintf("not enough stock for %s in size %s", rl.Item.Name, rl.Line.Size))
			}
		}

		//減算フェーズ。レースで負けた明細があればTxごと巻き戻る。
		for _, rl := range kept {
			err := r.Inventory().DecrementStockIfEnough(ctx, rl.Line.ItemID, rl.Line.Size, rl.Line.Quantity)
			if err == repo.ErrInsufficientStock {
				return NewHTTPError(http.StatusConflict,
					fmt.Sprintf("not enough stock for %s in size %s", rl.Item.Name, rl.Line.Size))
			}
			if err == repo.ErrSizeNotFound || err == repo.ErrNotFound {
				return NewHTTPError(http.StatusConflict,
					fmt.Sprintf("not enough stock for %s in size %s", rl.Item.Name, rl.Line.Size))
			}
			if err != nil {
				u.logger.Error().Err(err).
					Int64("user_id", userID).
					Int64("item_id", rl.Line.ItemID).
					Str("size", rl.Line.Size).
					Msg("checkout: stock decrement failed, rolling back transaction")
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//価格はこの瞬間の商品価格で凍結する
		now := time.Now()
		orderLines := make([]model.OrderLine, 0, len(kept))
		subtotal := decimal.Zero

		for _, rl := range kept {
			lineTotal := rl.Item.Price.Mul(decimal.NewFromInt(rl.Line.Quantity))
			subtotal = subtotal.Add(lineTotal)

			orderLines = append(orderLines, model.OrderLine{
				ItemID:           rl.Line.ItemID,
				ItemNameSnapshot: rl.Item.Name,
				Size:             rl.Line.Size,
				Quantity:         rl.Line.Quantity,
				PriceSnapshot:    rl.Item.Price,
				CreatedAt:        now,
			})
		}

		//送料は設定テーブルから（閾値超えで無料）
		fee, ok := u.shipping.FeeFor(method, subtotal)
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "invalid shipping method")
		}
		total := subtotal.Add(fee)

		//注文作成。番号が衝突したら作り直して1回だけ再試行。
		orderID, orderNumber, err := u.createOrderWithNumber(ctx, r, model.Order{
			UserID:         userID,
			TotalAmount:    total,
			Shipping:       in.Shipping,
			ShippingMethod: method,
			CreatedAt:      now,
		})
		if err != nil {
			u.logger.Error().Err(err).
				Int64("user_id", userID).
				Msg("checkout: order create failed after stock decrement, rolling back transaction")
			return err
		}

		if err := r.OrderLines().CreateBulk(ctx, orderID, orderLines); err != nil {
			u.logger.Error().Err(err).
				Int64("user_id", userID).
				Str("order_number", orderNumber).
				Msg("checkout: order lines create failed after stock decrement, rolling back transaction")
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートをクリア（再注文防止）
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			u.logger.Error().Err(err).
				Int64("user_id", userID).
				Str("order_number", orderNumber).
				Msg("checkout: cart clear failed after order create, rolling back transaction")
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(model.Order{
			ID:             orderID,
			OrderNumber:    orderNumber,
			UserID:         userID,
			TotalAmount:    total,
			Shipping:       in.Shipping,
			ShippingMethod: method,
			CreatedAt:      now,
		}, orderLines)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 番号を生成して注文を作る。ユニーク制約違反のときだけ1回再生成する。
func (u *OrderUsecase) createOrderWithNumber(ctx context.Context, r repo.TxRepos, order model.Order) (int64, string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber = u.numGen.Generate(time.Now())

		orderID, err := r.Orders().Create(ctx, order)
		if err == repo.ErrDuplicateOrderNumber {
			continue
		}
		if err != nil {
			return 0, "", NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return orderID, order.OrderNumber, nil
	}

	return 0, "", NewHTTPError(http.StatusConflict, "order number conflict")
}

// ListMyOrders は自分の注文履歴を新しい順で返す。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, lines))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func toOrderOutput(o model.Order, lines []model.OrderLine) OrderOutput {
	outLines := make([]OrderLineOutput, 0, len(lines))
	for _, l := range lines {
		outLines = append(outLines, OrderLineOutput{
			ItemID:   l.ItemID,
			Name:     l.ItemNameSnapshot,
			Size:     l.Size,
			Quantity: l.Quantity,
			Price:    l.PriceSnapshot,
		})
	}

	return OrderOutput{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		TotalAmount:    o.TotalAmount,
		Shipping:       o.Shipping,
		ShippingMethod: string(o.ShippingMethod),
		CreatedAt:      o.CreatedAt,
		Lines:          outLines,
	}
}
