package models

import "gorm.io/gorm"

type CartItem struct {
	gorm.Model
	UserID    uint `gorm:"not null;index"`
	ProductID uint `gorm:"not null"`
	Product   Product
	Quantity  uint `gorm:"not null"`
}
