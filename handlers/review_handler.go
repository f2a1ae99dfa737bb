package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"DriveDNA/models"
)

// 新增商品評價,商品名稱在建立當下快照
func AddReviewHandler(c *gin.Context, db *gorm.DB) {
	var reviewReq struct {
		UserID    uint   `json:"userId" binding:"required"`
		Username  string `json:"username" binding:"required"`
		ProductID uint   `json:"productId" binding:"required"`
		Comment   string `json:"comment" binding:"required"`
		Rating    uint   `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&reviewReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "缺少必要欄位",
			"error":   err.Error(),
		})
		return
	}

	if reviewReq.Rating < 1 || reviewReq.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "評分必須介於1到5之間",
		})
		return
	}

	var product models.Product
	err := db.First(&product, reviewReq.ProductID).Error
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

	review := models.Review{
		UserID:      reviewReq.UserID,
		Username:    reviewReq.Username,
		ProductID:   reviewReq.ProductID,
		ProductName: product.Name,
		Comment:     reviewReq.Comment,
		Rating:      reviewReq.Rating,
	}

	if err := db.Create(&review).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "新增評價失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"review":  review,
	})
}

// 查詢首頁用的最高評分評價,最多6筆
func GetTopReviewsHandler(c *gin.Context, db *gorm.DB) {
	var reviews []models.Review
	err := db.Order("rating DESC").Limit(6).Find(&reviews).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢評價失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// 查詢商品的所有評價,由新到舊
func GetProductReviewsHandler(c *gin.Context, db *gorm.DB) {
	var reviews []models.Review
	err := db.Where("product_id = ?", c.Param("productId")).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢評價失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, reviews)
}
