package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	UserID      uint   `gorm:"not null"`
	Username    string `gorm:"not null"`
	ProductID   uint   `gorm:"not null;index"`
	ProductName string //建立評價當下的商品名稱快照
	Comment     string `gorm:"not null"`
	Rating      uint   `gorm:"not null"`
}
