package models

// 訂單編號計數器,全程式只有一筆id=1的資料,
// 以資料庫的原子遞增取代讀取最大編號再寫回的做法
type OrderCounter struct {
	ID         uint `gorm:"primarykey"`
	LastNumber uint `gorm:"not null"`
}
