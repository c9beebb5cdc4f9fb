package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文の明細。カート明細のコピー＋購入時点の価格。
// PriceSnapshotは確定後に商品価格が変わっても動かない。
type OrderLine struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          int64           `gorm:"not null;index" json:"order_id"`
	ItemID           int64           `gorm:"not null;index" json:"item_id"`
	ItemNameSnapshot string          `gorm:"type:varchar(255);not null" json:"item_name_snapshot"`
	Size             string          `gorm:"type:varchar(20);not null" json:"size"`
	Quantity         int64           `gorm:"not null" json:"quantity"`
	PriceSnapshot    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
