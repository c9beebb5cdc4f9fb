package model

import "time"

//管理者による在庫調整の履歴（サイズ単位）

type StockAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID      int64     `gorm:"not null;index" json:"item_id"`
	Size        string    `gorm:"type:varchar(20);not null" json:"size"`
	AdminUserID int64     `gorm:"not null;index" json:"admin_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
