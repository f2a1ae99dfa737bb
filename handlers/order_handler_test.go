package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DriveDNA/models"
)

type orderResponse struct {
	Success bool
	Message string
	Order   models.Order
}

func orderBody(userID uint, product models.Product) map[string]interface{} {
	return map[string]interface{}{
		"userId":    userID,
		"userName":  "王小明",
		"userEmail": fmt.Sprintf("user%d@example.com", userID),
		"items": []map[string]interface{}{
			{"productId": product.ID, "quantity": 2, "price": 500},
		},
		"address": map[string]interface{}{
			"name":    "王小明",
			"phone":   "0912345678",
			"street":  "中山路100號",
			"city":    "台北",
			"pincode": "110",
			"upi":     "upi-123",
		},
		"subTotal":   1000,
		"shipping":   50,
		"tax":        50,
		"grandTotal": 1100,
	}
}

func (e *testEnv) placeOrder(t *testing.T, userID uint, product models.Product) models.Order {
	t.Helper()

	recorder := e.request(t, http.MethodPost, "/create", orderBody(userID, product), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp orderResponse
	decodeJSON(t, recorder, &resp)
	require.True(t, resp.Success)
	return resp.Order
}

func TestCreateOrderScenario(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "行車紀錄器", 500)

	//使用者1和使用者2各有一筆購物車資料
	require.NoError(t, env.db.Create(&models.CartItem{UserID: 1, ProductID: product.ID, Quantity: 1}).Error)
	require.NoError(t, env.db.Create(&models.CartItem{UserID: 2, ProductID: product.ID, Quantity: 3}).Error)

	recorder := env.request(t, http.MethodPost, "/create", orderBody(1, product), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp orderResponse
	decodeJSON(t, recorder, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, uint(1001), resp.Order.OrderNumber)
	assert.Equal(t, models.OrderStatusPlaced, resp.Order.OrderStatus)
	assert.Equal(t, uint(1100), resp.Order.GrandTotal)
	assert.Nil(t, resp.Order.CancelledAt)

	//訂單已持久化且包含價格快照
	var saved models.Order
	require.NoError(t, env.db.Preload("Items").First(&saved, resp.Order.ID).Error)
	assert.Equal(t, uint(1001), saved.OrderNumber)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, product.ID, saved.Items[0].ProductID)
	assert.Equal(t, uint(2), saved.Items[0].Quantity)
	assert.Equal(t, uint(500), saved.Items[0].Price)
	assert.Equal(t, "台北", saved.Address.City)

	//只清除下單者的購物車
	var count int64
	require.NoError(t, env.db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, env.db.Model(&models.CartItem{}).Where("user_id = ?", 2).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	//一封給管理員、一封給顧客
	messages := env.sender.sent()
	require.Len(t, messages, 2)
	assert.Equal(t, testAdminEmail, messages[0].To)
	assert.Equal(t, "user1@example.com", messages[1].To)
	for _, msg := range messages {
		assert.Contains(t, msg.HTML, "1001")
		assert.Contains(t, msg.HTML, product.Name)
	}
}

func TestCreateOrderEmptyItems(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]interface{}{
		"userId":    1,
		"userName":  "王小明",
		"userEmail": "user1@example.com",
		"items":     []map[string]interface{}{},
	}
	recorder := env.request(t, http.MethodPost, "/create", body, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.sender.sent())
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]interface{}{
		"userId":    1,
		"userName":  "王小明",
		"userEmail": "user1@example.com",
		"items": []map[string]interface{}{
			{"productId": 999, "quantity": 1, "price": 100},
		},
	}
	recorder := env.request(t, http.MethodPost, "/create", body, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.sender.sent())
}

func TestCreateOrderSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "胎壓偵測器", 800)

	for i := 0; i < 5; i++ {
		order := env.placeOrder(t, uint(i+1), product)
		assert.Equal(t, uint(1001+i), order.OrderNumber)
	}
}

func TestCreateOrderConcurrentUniqueNumbers(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "車用吸塵器", 600)

	const n = 10
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recorder := env.request(t, http.MethodPost, "/create", orderBody(uint(i+1), product), nil)
			codes[i] = recorder.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}

	//編號不重複且從1001起連續遞增
	var numbers []uint
	require.NoError(t, env.db.Model(&models.Order{}).Order("order_number").Pluck("order_number", &numbers).Error)
	require.Len(t, numbers, n)
	for i, number := range numbers {
		assert.Equal(t, uint(1001+i), number)
	}
}

func TestCreateOrderSeedsFromExistingOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "機油", 450)

	//既有訂單的最大編號為2005,計數器尚未建立
	require.NoError(t, env.db.Create(&models.Order{
		OrderNumber: 2005,
		UserID:      9,
		OrderStatus: models.OrderStatusPlaced,
	}).Error)

	order := env.placeOrder(t, 1, product)
	assert.Equal(t, uint(2006), order.OrderNumber)
}

func TestCancelOrderScenario(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "雨刷", 300)
	order := env.placeOrder(t, 1, product)
	env.sender.reset()

	recorder := env.request(t, http.MethodPut, fmt.Sprintf("/order/cancel/%d", order.ID), nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var saved models.Order
	require.NoError(t, env.db.First(&saved, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, saved.OrderStatus)
	require.NotNil(t, saved.CancelledAt)
	assert.False(t, saved.CancelledAt.Before(saved.CreatedAt))

	messages := env.sender.sent()
	require.Len(t, messages, 2)
	assert.Equal(t, testAdminEmail, messages[0].To)
	assert.Equal(t, "user1@example.com", messages[1].To)
	assert.Contains(t, messages[1].Subject, "取消")
}

func TestCancelOrderWindowExpired(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "雨刷", 300)
	order := env.placeOrder(t, 1, product)
	env.sender.reset()

	//將下單時間往前撥超過12小時
	require.NoError(t, env.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("created_at", time.Now().Add(-13*time.Hour)).Error)

	recorder := env.request(t, http.MethodPut, fmt.Sprintf("/order/cancel/%d", order.ID), nil, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "12小時"))

	var saved models.Order
	require.NoError(t, env.db.First(&saved, order.ID).Error)
	assert.Equal(t, models.OrderStatusPlaced, saved.OrderStatus)
	assert.Nil(t, saved.CancelledAt)
	assert.Empty(t, env.sender.sent())
}

func TestCancelOrderNotFound(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.request(t, http.MethodPut, "/order/cancel/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCancelOrderAlreadyTerminal(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "腳踏墊", 250)
	order := env.placeOrder(t, 1, product)
	env.sender.reset()

	require.NoError(t, env.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("order_status", models.OrderStatusDelivered).Error)

	recorder := env.request(t, http.MethodPut, fmt.Sprintf("/order/cancel/%d", order.ID), nil, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var saved models.Order
	require.NoError(t, env.db.First(&saved, order.ID).Error)
	assert.Equal(t, models.OrderStatusDelivered, saved.OrderStatus)
	assert.Empty(t, env.sender.sent())
}

func TestUpdateOrderStatusDelivered(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "避光墊", 350)
	order := env.placeOrder(t, 1, product)
	env.sender.reset()

	recorder := env.request(t, http.MethodPut, fmt.Sprintf("/admin/order/status/%d", order.ID),
		map[string]interface{}{"status": "Delivered"}, env.adminHeaders(t))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var saved models.Order
	require.NoError(t, env.db.First(&saved, order.ID).Error)
	assert.Equal(t, models.OrderStatusDelivered, saved.OrderStatus)
	assert.Nil(t, saved.CancelledAt)

	//送達時只通知顧客一次
	messages := env.sender.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, "user1@example.com", messages[0].To)
	assert.Contains(t, messages[0].Subject, "送達")
}

func TestUpdateOrderStatusCancelledSetsTimestamp(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "避光墊", 350)
	order := env.placeOrder(t, 1, product)
	env.sender.reset()

	recorder := env.request(t, http.MethodPut, fmt.Sprintf("/admin/order/status/%d", order.ID),
		map[string]interface{}{"status": "Cancelled"}, env.adminHeaders(t))
	require.Equal(t, http.StatusOK, recorder.Code)

	var saved models.Order
	require.NoError(t, env.db.First(&saved, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, saved.OrderStatus)
	assert.NotNil(t, saved.CancelledAt)

	//非送達狀態不寄送通知
	assert.Empty(t, env.sender.sent())
}

func TestUpdateOrderStatusInvalid(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "避光墊", 350)
	order := env.placeOrder(t, 1, product)

	recorder := env.request(t, http.MethodPut, fmt.Sprintf("/admin/order/status/%d", order.ID),
		map[string]interface{}{"status": "Shipped"}, env.adminHeaders(t))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.request(t, http.MethodPut, "/admin/order/status/999",
		map[string]interface{}{"status": "Delivered"}, env.adminHeaders(t))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestUpdateOrderStatusRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	//未登入
	recorder := env.request(t, http.MethodPut, "/admin/order/status/1",
		map[string]interface{}{"status": "Delivered"}, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	//一般使用者
	recorder = env.request(t, http.MethodPut, "/admin/order/status/1",
		map[string]interface{}{"status": "Delivered"},
		map[string]string{"Authorization": "Bearer " + env.userToken(t, 1)})
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestGetUserOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "香氛", 150)

	first := env.placeOrder(t, 5, product)
	env.placeOrder(t, 5, product)
	env.placeOrder(t, 6, product)

	//確保排序結果穩定
	require.NoError(t, env.db.Model(&models.Order{}).
		Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	recorder := env.request(t, http.MethodGet, "/orders/user/5", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var orders []models.Order
	decodeJSON(t, recorder, &orders)
	require.Len(t, orders, 2)
	assert.Equal(t, uint(1002), orders[0].OrderNumber) //新的在前
	assert.Equal(t, uint(1001), orders[1].OrderNumber)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, product.Name, orders[0].Items[0].Product.Name)
}

func TestGetAllOrdersAdmin(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "香氛", 150)
	env.placeOrder(t, 5, product)
	env.placeOrder(t, 6, product)

	recorder := env.request(t, http.MethodGet, "/admin/order", nil, env.adminHeaders(t))
	require.Equal(t, http.StatusOK, recorder.Code)

	var orders []models.Order
	decodeJSON(t, recorder, &orders)
	assert.Len(t, orders, 2)

	//沒有admin權限則拒絕
	recorder = env.request(t, http.MethodGet, "/admin/order", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
