package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingMethodHome    ShippingMethod = "home"
	ShippingMethodMailbox ShippingMethod = "mailbox"
)

// 配送先。注文ごとのスナップショットとして埋め込む。
type ShippingDetails struct {
	FirstName   string `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName    string `gorm:"type:varchar(100);not null" json:"lastName"`
	Address     string `gorm:"type:varchar(255);not null" json:"address"`
	City        string `gorm:"type:varchar(100);not null" json:"city"`
	PostalCode  string `gorm:"type:varchar(20);not null" json:"postalCode"`
	PhoneNumber string `gorm:"type:varchar(30);not null" json:"phoneNumber"`
}

// 注文。作成後は一切変更しない（台帳）。
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string          `gorm:"type:varchar(30);not null;uniqueIndex" json:"order_number"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`

	Shipping       ShippingDetails `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_details"`
	ShippingMethod ShippingMethod  `gorm:"type:varchar(20);not null" json:"shipping_method"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
