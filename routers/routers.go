package routers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"DriveDNA/config"
	"DriveDNA/handlers"
	"DriveDNA/jwt"
	"DriveDNA/mailer"
	"DriveDNA/middleware"
)

func SetupRouters(db *gorm.DB, rdb *redis.Client, sender mailer.Sender, keys *jwt.Keys, cfg config.Config) *gin.Engine {
	//建立Gin路由器
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Authorization")
		c.Next()
	})
	err := router.SetTrustedProxies(nil)
	if err != nil {
		return nil
	}

	router.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	//檢查狀態
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "app is working")
	})
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	//使用中間件解析登入資訊
	router.Use(middleware.AuthMiddleware(keys))
	{
		//註冊帳號
		router.POST("/usersignup", func(context *gin.Context) {
			handlers.SignUpHandler(context, db, sender, cfg.Server.BaseURL)
		})
		//驗證信箱
		router.GET("/verify-email", func(context *gin.Context) {
			handlers.VerifyEmailHandler(context, db, cfg.Server.FrontendURL)
		})
		//使用者登入
		router.POST("/userlogin", func(context *gin.Context) {
			handlers.UserLoginHandler(context, db, keys)
		})
		//管理員登入
		router.POST("/login", func(context *gin.Context) {
			handlers.AdminLoginHandler(context, db, keys)
		})
		//查詢使用者資料
		router.GET("/user-by-id/:id", func(context *gin.Context) {
			handlers.GetUserByIDHandler(context, db)
		})

		//新增分類
		router.POST("/category", func(context *gin.Context) {
			handlers.CreateCategoryHandler(context, db)
		})
		//查詢分類列表
		router.GET("/category", func(context *gin.Context) {
			handlers.GetCategoryListHandler(context, db)
		})
		//刪除分類及其下商品
		router.DELETE("/category/:id", func(context *gin.Context) {
			handlers.DeleteCategoryHandler(context, db, rdb)
		})

		//新增商品
		router.POST("/addproduct", func(context *gin.Context) {
			handlers.CreateProductHandler(context, db, rdb)
		})
		//查詢商品列表
		router.GET("/products", func(context *gin.Context) {
			handlers.GetProductListHandler(context, db, rdb)
		})
		//搜尋商品
		router.GET("/products/search", func(context *gin.Context) {
			handlers.SearchProductsHandler(context, db)
		})
		//搜尋建議
		router.GET("/search/suggest", func(context *gin.Context) {
			handlers.SuggestProductsHandler(context, db)
		})
		//查詢分類下的商品
		router.GET("/products/:categoryId", func(context *gin.Context) {
			handlers.GetProductsByCategoryHandler(context, db)
		})
		//查詢商品詳細資料
		router.GET("/product/:id", func(context *gin.Context) {
			handlers.GetProductDataHandler(context, db)
		})
		//切換商品庫存狀態
		router.PUT("/product/stock/:id", func(context *gin.Context) {
			handlers.ToggleProductStockHandler(context, db, rdb)
		})
		//修改商品
		router.PUT("/product/:id", func(context *gin.Context) {
			handlers.UpdateProductHandler(context, db, rdb)
		})
		//刪除商品
		router.DELETE("/product/:id", func(context *gin.Context) {
			handlers.DeleteProductHandler(context, db, rdb)
		})

		//新增商品至購物車
		router.POST("/cart/add", func(context *gin.Context) {
			handlers.AddToCartHandler(context, db)
		})
		//查詢購物車
		router.GET("/cart/:userId", func(context *gin.Context) {
			handlers.GetCartHandler(context, db)
		})
		//刪除購物車商品
		router.DELETE("/cart/item/:id", func(context *gin.Context) {
			handlers.DeleteCartItemHandler(context, db)
		})

		//查詢首頁評價
		router.GET("/review/top", func(context *gin.Context) {
			handlers.GetTopReviewsHandler(context, db)
		})
		//新增評價
		router.POST("/review/add", func(context *gin.Context) {
			handlers.AddReviewHandler(context, db)
		})
		//查詢商品評價
		router.GET("/review/product/:productId", func(context *gin.Context) {
			handlers.GetProductReviewsHandler(context, db)
		})

		//送出訂單並清除購物車
		router.POST("/create", func(context *gin.Context) {
			handlers.CreateOrderHandler(context, db, sender, cfg.SMTP.AdminEmail)
		})
		//顧客取消訂單
		router.PUT("/order/cancel/:orderId", func(context *gin.Context) {
			handlers.CancelOrderHandler(context, db, sender, cfg.SMTP.AdminEmail)
		})
		//查詢使用者的訂單列表
		router.GET("/orders/user/:userId", func(context *gin.Context) {
			handlers.GetUserOrdersHandler(context, db)
		})

		////需要admin身分,使用中間件檢查admin權限
		adminRequired := router.Group("/admin")
		adminRequired.Use(middleware.CheckAdminPermissionMiddleware())
		{
			//查詢所有訂單
			adminRequired.GET("/order", func(context *gin.Context) {
				handlers.GetAllOrdersHandler(context, db)
			})
			//管理員變更訂單狀態
			adminRequired.PUT("/order/status/:id", func(context *gin.Context) {
				handlers.UpdateOrderStatusHandler(context, db, sender)
			})
		}
	}

	return router
}
