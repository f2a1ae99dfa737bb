package models

import "gorm.io/gorm"

type Category struct {
	gorm.Model
	Name     string `gorm:"not null"`
	ParentID *uint  //null代表主分類
}
