package models

import (
	"time"

	"gorm.io/gorm"
)

// 訂單狀態
const (
	OrderStatusPlaced    = "Placed"
	OrderStatusCancelled = "Cancelled"
	OrderStatusDelivered = "Delivered"
)

// 下單當下的收件資訊快照
type OrderAddress struct {
	Name    string
	Phone   string
	Street  string
	City    string
	Pincode string
	UPI     string
}

type Order struct {
	gorm.Model
	OrderNumber uint `gorm:"uniqueIndex;not null"`
	UserID      uint `gorm:"not null;index"`
	User        User
	UserName    string
	UserEmail   string
	CheckStatus bool         `gorm:"default:false"`
	OrderStatus string       `gorm:"not null;default:Placed"`
	CancelledAt *time.Time
	Items       []OrderItem  `gorm:"foreignKey:OrderID"`
	Address     OrderAddress `gorm:"embedded;embeddedPrefix:address_"`
	SubTotal    uint
	Shipping    uint
	Tax         uint
	GrandTotal  uint
}
