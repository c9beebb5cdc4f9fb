package model

import "time"

// カートの明細。
// 同じ(item, size)は1行にまとめる（追加時は数量を加算）。
// 複合ユニークが最終防衛線。同時追加は片方がユニーク違反で加算に回る。
// 価格は持たない。読み取り時に商品から引き直す。
type CartLine struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;index;uniqueIndex:idx_cart_item_size" json:"cart_id"`
	ItemID    int64     `gorm:"not null;index;uniqueIndex:idx_cart_item_size" json:"item_id"`
	Size      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_cart_item_size" json:"size"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
