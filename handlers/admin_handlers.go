package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"DriveDNA/models"
)

// 新增商品
func CreateProductHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	var productReq struct {
		Name        string   `json:"name" binding:"required"`
		SName       string   `json:"sname"`
		Description string   `json:"description"`
		Features    []string `json:"features"`
		Price       uint     `json:"price" binding:"required"`
		Images      []string `json:"images"`
		CategoryID  uint     `json:"categoryId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&productReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	//確認分類存在
	var category models.Category
	err := db.First(&category, productReq.CategoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "找不到此分類",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢分類失敗",
			"error":   err.Error(),
		})
		return
	}

	product := models.Product{
		Name:        productReq.Name,
		SName:       productReq.SName,
		Description: productReq.Description,
		Features:    productReq.Features,
		Price:       productReq.Price,
		Images:      productReq.Images,
		CategoryID:  productReq.CategoryID,
		InStock:     true,
	}

	if err := db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "新增商品失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := UpdateProductToRedis(c, rdb, &product); err != nil {
		log.Printf("無法將商品資料加入Redis productID=%d: %v", product.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "成功新增商品",
		"product": product,
	})
}

// 修改商品,只覆蓋有提供的欄位
func UpdateProductHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	var productReq struct {
		Name        *string  `json:"name"`
		SName       *string  `json:"sname"`
		Description *string  `json:"description"`
		Features    []string `json:"features"`
		Price       *uint    `json:"price"`
		Images      []string `json:"images"`
		CategoryID  *uint    `json:"categoryId"`
	}
	if err := c.ShouldBindJSON(&productReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	var product models.Product
	err := db.First(&product, "id = ?", c.Param("id")).Error
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

	if productReq.Name != nil {
		product.Name = *productReq.Name
	}
	if productReq.SName != nil {
		product.SName = *productReq.SName
	}
	if productReq.Description != nil {
		product.Description = *productReq.Description
	}
	if productReq.Features != nil {
		product.Features = productReq.Features
	}
	if productReq.Price != nil {
		product.Price = *productReq.Price
	}
	if productReq.Images != nil {
		product.Images = productReq.Images
	}
	if productReq.CategoryID != nil {
		product.CategoryID = *productReq.CategoryID
	}

	if err := db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "修改商品失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := UpdateProductToRedis(c, rdb, &product); err != nil {
		log.Printf("無法更新Redis商品資料 productID=%d: %v", product.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "成功修改商品",
		"product": product,
	})
}

// 刪除商品
func DeleteProductHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	var product models.Product
	err := db.First(&product, "id = ?", c.Param("id")).Error
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

	if err := db.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "刪除商品失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := DeleteProductFromRedis(c, rdb, product.ID); err != nil {
		log.Printf("無法從Redis移除商品 productID=%d: %v", product.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "成功刪除商品",
	})
}

// 切換商品的庫存狀態
func ToggleProductStockHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	var product models.Product
	err := db.First(&product, "id = ?", c.Param("id")).Error
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

	product.InStock = !product.InStock
	if err := db.Model(&product).Update("in_stock", product.InStock).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "更新庫存狀態失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := UpdateProductToRedis(c, rdb, &product); err != nil {
		log.Printf("無法更新Redis商品資料 productID=%d: %v", product.ID, err)
	}

	message := "商品已標記為無庫存"
	if product.InStock {
		message = "商品已標記為有庫存"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"product": product,
	})
}

// 新增分類,parent為空代表主分類
func CreateCategoryHandler(c *gin.Context, db *gorm.DB) {
	var categoryReq struct {
		Name   string `json:"name" binding:"required"`
		Parent *uint  `json:"parent"`
	}
	if err := c.ShouldBindJSON(&categoryReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	newCategory := models.Category{
		Name:     categoryReq.Name,
		ParentID: categoryReq.Parent,
	}

	if err := db.Create(&newCategory).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "新增分類失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"newCategory": newCategory,
	})
}

// 刪除分類,連同子分類與其下所有商品
func DeleteCategoryHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	categoryID := c.Param("id")

	var category models.Category
	err := db.First(&category, "id = ?", categoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "找不到此分類",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢分類失敗",
			"error":   err.Error(),
		})
		return
	}

	//找出所有子分類,主分類和子分類一併刪除
	var subCategoryIDs []uint
	err = db.Model(&models.Category{}).
		Where("parent_id = ?", category.ID).
		Pluck("id", &subCategoryIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢子分類失敗",
			"error":   err.Error(),
		})
		return
	}

	allCategoryIDs := append([]uint{category.ID}, subCategoryIDs...)

	tx := db.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "開啟資料庫事務失敗",
			"error":   tx.Error.Error(),
		})
		return
	}

	if err := tx.Where("category_id IN ?", allCategoryIDs).
		Delete(&models.Product{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "刪除分類商品失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := tx.Where("id IN ?", allCategoryIDs).
		Delete(&models.Category{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "刪除分類失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "提交事務失敗",
			"error":   err.Error(),
		})
		return
	}

	//商品已變動,直接清空商品快取讓下次查詢重建
	if err := rdb.Del(c, productsCacheKey).Err(); err != nil {
		log.Printf("無法清空Redis商品快取: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "已刪除分類、子分類與其下商品",
	})
}
