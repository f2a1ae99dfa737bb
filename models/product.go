package models

import "gorm.io/gorm"

type Product struct {
	gorm.Model
	Name        string `gorm:"not null"`
	SName       string
	Description string
	Features    []string `gorm:"serializer:json"`
	Price       uint     `gorm:"not null"`
	Images      []string `gorm:"serializer:json"`
	CategoryID  uint     `gorm:"not null"`
	Category    Category
	InStock     bool `gorm:"default:true"`
}
