package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Name              string
	Email             string `gorm:"unique;not null"`
	Password          string `gorm:"not null" json:"-"`
	IsVerified        bool   `gorm:"default:false"`
	VerificationToken string
}
