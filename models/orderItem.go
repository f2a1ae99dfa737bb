package models

import "gorm.io/gorm"

type OrderItem struct {
	gorm.Model
	OrderID   uint `gorm:"not null;index"`
	ProductID uint `gorm:"not null"`
	Product   Product
	Quantity  uint `gorm:"not null"`
	Price     uint `gorm:"not null"` //下單當下的價格快照
}
