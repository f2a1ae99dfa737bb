package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"DriveDNA/mailer"
	"DriveDNA/models"
)

// 第一張訂單的編號
const firstOrderNumber = 1001

// 顧客可自行取消訂單的時限,從下單時間起算
const cancelWindow = 12 * time.Hour

const orderCounterID = 1

// 取得下一個訂單編號,必須在建立訂單的交易內呼叫。
// 以UPDATE原子遞增計數器並持有列鎖直到交易結束,
// 確保編號在並行下單時不重複且嚴格遞增
func NextOrderNumber(tx *gorm.DB) (uint, error) {
	increment := func() (uint, error) {
		result := tx.Model(&models.OrderCounter{}).
			Where("id = ?", orderCounterID).
			Update("last_number", gorm.Expr("last_number + 1"))
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected == 0 {
			return 0, gorm.ErrRecordNotFound
		}

		var counter models.OrderCounter
		if err := tx.First(&counter, orderCounterID).Error; err != nil {
			return 0, err
		}
		return counter.LastNumber, nil
	}

	number, err := increment()
	if err == nil {
		return number, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	//計數器尚未建立,從既有訂單的最大編號接續
	var lastNumber sql.NullInt64
	if err := tx.Model(&models.Order{}).
		Select("MAX(order_number)").
		Scan(&lastNumber).Error; err != nil {
		return 0, err
	}

	counter := models.OrderCounter{ID: orderCounterID, LastNumber: firstOrderNumber}
	if lastNumber.Valid {
		counter.LastNumber = uint(lastNumber.Int64) + 1
	}
	if err := tx.Create(&counter).Error; err != nil {
		//其他交易已搶先建立計數器,改走原子遞增
		return increment()
	}

	return counter.LastNumber, nil
}

// 將訂單內容轉成通知信的商品列表,商品名稱從目錄補查
func orderItemsHTML(db *gorm.DB, items []models.OrderItem) string {
	var builder strings.Builder
	for _, item := range items {
		name := fmt.Sprintf("商品 #%d", item.ProductID)
		var product models.Product
		if err := db.First(&product, item.ProductID).Error; err == nil {
			name = product.Name
		}
		fmt.Fprintf(&builder,
			"<ul><li><strong>%s</strong><br>數量: %d<br>價格: Rs. %d</li></ul>",
			name, item.Quantity, item.Price)
	}
	return builder.String()
}

// 送出訂單並清除該使用者的購物車
func CreateOrderHandler(c *gin.Context, db *gorm.DB, sender mailer.Sender, adminEmail string) {
	var orderReq struct {
		UserID    uint   `json:"userId" binding:"required"`
		UserName  string `json:"userName" binding:"required"`
		UserEmail string `json:"userEmail" binding:"required"`
		Items     []struct {
			ProductID uint `json:"productId" binding:"required"`
			Quantity  uint `json:"quantity" binding:"required"`
			Price     uint `json:"price"`
		} `json:"items"`
		Address    models.OrderAddress `json:"address"`
		SubTotal   uint                `json:"subTotal"`
		Shipping   uint                `json:"shipping"`
		Tax        uint                `json:"tax"`
		GrandTotal uint                `json:"grandTotal"`
	}

	if err := c.ShouldBindJSON(&orderReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	if len(orderReq.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "訂單內沒有商品",
		})
		return
	}

	newOrder := models.Order{
		UserID:      orderReq.UserID,
		UserName:    orderReq.UserName,
		UserEmail:   orderReq.UserEmail,
		OrderStatus: models.OrderStatusPlaced,
		Address:     orderReq.Address,
		SubTotal:    orderReq.SubTotal,
		Shipping:    orderReq.Shipping,
		Tax:         orderReq.Tax,
		GrandTotal:  orderReq.GrandTotal,
	}

	//確認每個商品都存在;價格採用呼叫端的快照,不回查目錄
	for _, item := range orderReq.Items {
		var count int64
		if err := db.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Count(&count).Error; err != nil {
			log.Printf("查詢商品失敗 productID=%d: %v", item.ProductID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "訂單建立失敗",
			})
			return
		}
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "訂單包含不存在的商品",
			})
			return
		}

		newOrder.Items = append(newOrder.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	tx := db.Begin()
	if tx.Error != nil {
		log.Printf("開啟資料庫事務失敗: %v", tx.Error)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "訂單建立失敗",
		})
		return
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	orderNumber, err := NextOrderNumber(tx)
	if err != nil {
		tx.Rollback()
		log.Printf("取得訂單編號失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "訂單建立失敗",
		})
		return
	}
	newOrder.OrderNumber = orderNumber

	if err := tx.Create(&newOrder).Error; err != nil {
		tx.Rollback()
		log.Printf("提交訂單失敗 orderNumber=%d: %v", orderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "訂單建立失敗",
		})
		return
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		log.Printf("提交事務失敗 orderNumber=%d: %v", orderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "訂單建立失敗",
		})
		return
	}

	//訂單已提交,清除購物車失敗只記錄、不影響回應
	if err := db.Where("user_id = ?", orderReq.UserID).
		Delete(&models.CartItem{}).Error; err != nil {
		log.Printf("清除購物車失敗 userID=%d: %v", orderReq.UserID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "訂單已成功送出",
		"order":   newOrder,
	})

	//通知信不等待寄送結果
	itemsHTML := orderItemsHTML(db, newOrder.Items)
	sender.Send(mailer.Message{
		To:      adminEmail,
		Subject: "收到新訂單",
		HTML: fmt.Sprintf(
			"<h3>收到新訂單</h3><p><strong>訂單編號:</strong> %d</p><p><strong>姓名:</strong> %s</p><p><strong>信箱:</strong> %s</p>%s<h4>總計: Rs. %d</h4>",
			newOrder.OrderNumber, newOrder.UserName, newOrder.UserEmail, itemsHTML, newOrder.GrandTotal),
	})
	sender.Send(mailer.Message{
		To:      newOrder.UserEmail,
		Subject: "您的訂單已成立",
		HTML: fmt.Sprintf(
			"<p>%s 您好,</p><p>感謝您的訂購,您的訂單 <strong>#%d</strong> 已成功建立,明細如下:</p>%s<h4>總計: Rs. %d</h4><p>出貨後將另行通知,如有任何問題歡迎與我們聯繫。</p>",
			newOrder.UserName, newOrder.OrderNumber, itemsHTML, newOrder.GrandTotal),
	})
}

// 顧客取消訂單,僅限下單後12小時內
func CancelOrderHandler(c *gin.Context, db *gorm.DB, sender mailer.Sender, adminEmail string) {
	orderID := c.Param("orderId")

	var order models.Order
	err := db.Preload("Items").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "找不到此訂單",
			})
			return
		}
		log.Printf("查詢訂單失敗 orderID=%s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "取消訂單失敗",
		})
		return
	}

	//已取消或已送達的訂單不可再由顧客取消
	if order.OrderStatus != models.OrderStatusPlaced {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "此訂單已取消或已送達,無法取消",
		})
		return
	}

	if time.Since(order.CreatedAt) > cancelWindow {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "訂單僅能在下單後12小時內取消",
		})
		return
	}

	now := time.Now()
	err = db.Model(&order).Updates(map[string]interface{}{
		"order_status": models.OrderStatusCancelled,
		"cancelled_at": now,
	}).Error
	if err != nil {
		log.Printf("取消訂單失敗 orderID=%s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "取消訂單失敗",
		})
		return
	}
	order.OrderStatus = models.OrderStatusCancelled
	order.CancelledAt = &now

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "訂單已成功取消",
	})

	itemsHTML := orderItemsHTML(db, order.Items)
	sender.Send(mailer.Message{
		To:      adminEmail,
		Subject: "訂單已取消",
		HTML: fmt.Sprintf(
			"<h3>訂單已取消</h3><p><strong>訂單編號:</strong> %d</p><p><strong>姓名:</strong> %s</p><p><strong>信箱:</strong> %s</p>%s<p><strong>狀態:</strong> 已取消</p>",
			order.OrderNumber, order.UserName, order.UserEmail, itemsHTML),
	})
	sender.Send(mailer.Message{
		To:      order.UserEmail,
		Subject: "您的訂單已取消",
		HTML: fmt.Sprintf(
			"<p>%s 您好,</p><p>您的訂單 <strong>#%d</strong> 已依您的要求取消。</p>%s<p>如款項已付清,退款將依退款政策退回原付款方式。如有任何問題歡迎與我們聯繫。</p>",
			order.UserName, order.OrderNumber, itemsHTML),
	})
}

// 管理員變更訂單狀態,不檢查原狀態(管理端覆寫,不受顧客取消規則限制)
func UpdateOrderStatusHandler(c *gin.Context, db *gorm.DB, sender mailer.Sender) {
	orderID := c.Param("id")

	var statusReq struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&statusReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	switch statusReq.Status {
	case models.OrderStatusPlaced, models.OrderStatusCancelled, models.OrderStatusDelivered:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "不支援的訂單狀態",
		})
		return
	}

	var order models.Order
	err := db.Preload("Items").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "找不到此訂單",
			})
			return
		}
		log.Printf("查詢訂單失敗 orderID=%s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "更新訂單失敗",
		})
		return
	}

	updates := map[string]interface{}{
		"order_status": statusReq.Status,
	}
	if statusReq.Status == models.OrderStatusCancelled {
		updates["cancelled_at"] = time.Now()
	}

	if err := db.Model(&order).Updates(updates).Error; err != nil {
		log.Printf("更新訂單狀態失敗 orderID=%s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "更新訂單失敗",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("訂單已更新為 %s", statusReq.Status),
	})

	//只有送達才通知顧客
	if statusReq.Status == models.OrderStatusDelivered {
		itemsHTML := orderItemsHTML(db, order.Items)
		sender.Send(mailer.Message{
			To:      order.UserEmail,
			Subject: "您的訂單已送達",
			HTML: fmt.Sprintf(
				"<p>%s 您好,</p><p>您的訂單 <strong>#%d</strong> 已送達。</p><h4>訂單明細:</h4>%s<h4>總計: Rs. %d</h4><p>感謝您的購買,如有任何問題歡迎與我們聯繫。</p>",
				order.UserName, order.OrderNumber, itemsHTML, order.GrandTotal),
		})
	}
}

// 查詢使用者的訂單列表,由新到舊
func GetUserOrdersHandler(c *gin.Context, db *gorm.DB) {
	var orders []models.Order
	err := db.
		Where("user_id = ?", c.Param("userId")).
		Order("created_at DESC").
		Preload("Items").
		Preload("Items.Product").
		Find(&orders).Error
	if err != nil {
		log.Printf("查詢訂單列表失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢訂單列表失敗",
		})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// 查詢所有訂單,由新到舊,含商品與使用者資料
func GetAllOrdersHandler(c *gin.Context, db *gorm.DB) {
	var orders []models.Order
	err := db.
		Order("created_at DESC").
		Preload("Items").
		Preload("Items.Product").
		Preload("User").
		Find(&orders).Error
	if err != nil {
		log.Printf("查詢所有訂單失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查詢訂單列表失敗",
		})
		return
	}

	c.JSON(http.StatusOK, orders)
}
