package handlers_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"DriveDNA/config"
	"DriveDNA/jwt"
	"DriveDNA/mailer"
	"DriveDNA/models"
	"DriveDNA/routers"
)

const testAdminEmail = "admin@drivedna.test"

var (
	testKeys     *jwt.Keys
	testKeysOnce sync.Once
	testDBSeq    int64
)

// 記錄寄送內容的測試用Sender
type fakeSender struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (f *fakeSender) Send(msg mailer.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeSender) sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.messages...)
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
}

type testEnv struct {
	db     *gorm.DB
	rdb    *redis.Client
	sender *fakeSender
	router *gin.Engine
	keys   *jwt.Keys
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	//每個測試使用獨立的in-memory資料庫
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	//SQLite同時只允許一個寫入者,序列化連線避免鎖衝突
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Review{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
	))

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testKeysOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKeys = jwt.NewKeys(key)
	})

	db := newTestDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sender := &fakeSender{}

	var cfg config.Config
	cfg.SMTP.AdminEmail = testAdminEmail
	cfg.Server.BaseURL = "http://localhost:5000"
	cfg.Server.FrontendURL = "http://localhost:3000"

	router := routers.SetupRouters(db, rdb, sender, testKeys, cfg)
	require.NotNil(t, router)

	return &testEnv{db: db, rdb: rdb, sender: sender, router: router, keys: testKeys}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), out))
}

func (e *testEnv) adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	token := e.adminToken(t)
	return map[string]string{"Authorization": "Bearer " + token}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.keys.GenerateToken(1, "admin", timeAfterHour())
	require.NoError(t, err)
	return token
}

func (e *testEnv) userToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := e.keys.GenerateToken(userID, "user", timeAfterHour())
	require.NoError(t, err)
	return token
}

func timeAfterHour() int64 {
	return time.Now().Add(time.Hour).Unix()
}

func (e *testEnv) createCategory(t *testing.T, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, e.db.Create(&category).Error)
	return category
}

func (e *testEnv) createProduct(t *testing.T, name string, price uint) models.Product {
	t.Helper()
	category := e.createCategory(t, name+"的分類")
	product := models.Product{
		Name:       name,
		Price:      price,
		CategoryID: category.ID,
		InStock:    true,
	}
	require.NoError(t, e.db.Create(&product).Error)
	return product
}
