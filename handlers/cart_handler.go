package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"DriveDNA/models"
)

// 新增商品至購物車,已存在則累加數量
func AddToCartHandler(c *gin.Context, db *gorm.DB) {
	var cartReq struct {
		UserID    uint `json:"userId" binding:"required"`
		ProductID uint `json:"productId" binding:"required"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&cartReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}
	if cartReq.Quantity == 0 {
		cartReq.Quantity = 1
	}

	var product models.Product
	err := db.First(&product, cartReq.ProductID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "找不到此商品",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢商品失敗",
			"error":   err.Error(),
		})
		return
	}

	if !product.InStock {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "商品目前無庫存",
		})
		return
	}

	//已在購物車內則累加數量
	var existing models.CartItem
	err = db.First(&existing, "user_id = ? AND product_id = ?", cartReq.UserID, cartReq.ProductID).Error
	if err == nil {
		existing.Quantity += cartReq.Quantity
		if err := db.Model(&existing).Update("quantity", existing.Quantity).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "更新購物車失敗",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"cart":    existing,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢購物車失敗",
			"error":   err.Error(),
		})
		return
	}

	cartItem := models.CartItem{
		UserID:    cartReq.UserID,
		ProductID: cartReq.ProductID,
		Quantity:  cartReq.Quantity,
	}
	if err := db.Create(&cartItem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "加入購物車失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cart":    cartItem,
	})
}

// 查詢使用者的購物車,含商品資料
func GetCartHandler(c *gin.Context, db *gorm.DB) {
	var items []models.CartItem
	err := db.Preload("Product").
		Where("user_id = ?", c.Param("userId")).
		Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢購物車失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

// 刪除購物車內的單筆商品
func DeleteCartItemHandler(c *gin.Context, db *gorm.DB) {
	result := db.Delete(&models.CartItem{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "刪除購物車商品失敗",
			"error":   result.Error.Error(),
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "找不到此購物車商品",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
