package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"DriveDNA/models"
)

const productsCacheKey = "products"

// 將商品寫入Redis商品列表快取,分數使用商品ID
func UpdateProductToRedis(c *gin.Context, rdb *redis.Client, product *models.Product) error {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return err
	}

	//先移除同ID的舊資料,避免快取內留下更新前的版本
	if err := DeleteProductFromRedis(c, rdb, product.ID); err != nil {
		return err
	}

	return rdb.ZAdd(c, productsCacheKey, redis.Z{
		Score:  float64(product.ID),
		Member: productJSON,
	}).Err()
}

// 從Redis商品列表快取移除商品
func DeleteProductFromRedis(c *gin.Context, rdb *redis.Client, productID uint) error {
	score := fmt.Sprint(productID)
	return rdb.ZRemRangeByScore(c, productsCacheKey, score, score).Err()
}

// 查詢商品列表,優先從Redis讀取,快取為空時從資料庫重建
func GetProductListHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	redisProducts, err := rdb.ZRange(c, productsCacheKey, 0, -1).Result()
	if err != nil || len(redisProducts) == 0 {
		var products []models.Product
		err = db.Preload("Category").Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "無法讀取商品列表",
				"error":   err.Error(),
			})
			return
		}

		rdb.Del(c, productsCacheKey)

		for i := range products {
			if err := UpdateProductToRedis(c, rdb, &products[i]); err != nil {
				log.Printf("無法將商品資料加入Redis productID=%d: %v", products[i].ID, err)
			}
		}

		c.JSON(http.StatusOK, products)
		return
	}

	var products []models.Product
	for _, redisProduct := range redisProducts {
		var product models.Product
		if err := json.Unmarshal([]byte(redisProduct), &product); err != nil {
			log.Printf("無法反序列化商品資料: %v", err)
			continue
		}
		products = append(products, product)
	}

	c.JSON(http.StatusOK, products)
}

// 以名稱或分類名稱搜尋商品
func SearchProductsHandler(c *gin.Context, db *gorm.DB) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, []models.Product{})
		return
	}

	var categoryIDs []uint
	err := db.Model(&models.Category{}).
		Where("name LIKE ?", "%"+query+"%").
		Pluck("id", &categoryIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "搜尋商品失敗",
			"error":   err.Error(),
		})
		return
	}

	tx := db.Preload("Category").Where("name LIKE ?", "%"+query+"%")
	if len(categoryIDs) > 0 {
		tx = tx.Or("category_id IN ?", categoryIDs)
	}

	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "搜尋商品失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, products)
}

// 搜尋建議,最多回傳5筆商品名稱
func SuggestProductsHandler(c *gin.Context, db *gorm.DB) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	var suggestions []struct {
		ID   uint
		Name string
	}
	err := db.Model(&models.Product{}).
		Select("id", "name").
		Where("name LIKE ?", "%"+query+"%").
		Limit(5).
		Find(&suggestions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢搜尋建議失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

// 查詢分類下的所有商品
func GetProductsByCategoryHandler(c *gin.Context, db *gorm.DB) {
	var products []models.Product
	err := db.Preload("Category").
		Where("category_id = ?", c.Param("categoryId")).
		Find(&products).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢分類商品失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, products)
}

// 查詢商品詳細資料
func GetProductDataHandler(c *gin.Context, db *gorm.DB) {
	var product models.Product
	err := db.Preload("Category").First(&product, "id = ?", c.Param("id")).Error
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

	c.JSON(http.StatusOK, product)
}

// 查詢分類列表
func GetCategoryListHandler(c *gin.Context, db *gorm.DB) {
	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢分類列表失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, categories)
}
