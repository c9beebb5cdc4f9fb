package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 商品（服）。
// TotalStockはサイズ別在庫の合計。在庫変更と同じ操作の中でのみ更新する。
type Item struct {
	ID       int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	Category string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Type     string          `gorm:"type:varchar(100);not null" json:"type"`
	Image    string          `gorm:"type:varchar(500);not null" json:"image"`
	Color    string          `gorm:"type:varchar(100);not null" json:"color"`
	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`

	//サイズ別在庫（登録順）
	SizeStocks []SizeStock `gorm:"foreignKey:ItemID" json:"size_stock"`

	//SizeStocksの合計。直接は触らない。
	TotalStock int64 `gorm:"not null;default:0" json:"total_stock"`

	//falseで販売終了（ソフトデリート）。注文履歴のためレコードは残す。
	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// サイズごとの在庫カウンタ。
type SizeStock struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID int64  `gorm:"not null;index;uniqueIndex:idx_item_size" json:"item_id"`
	Size   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_item_size" json:"size"`
	Stock  int64  `gorm:"not null;check:stock >= 0" json:"stock"`
}
