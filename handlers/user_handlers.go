package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"DriveDNA/jwt"
	"DriveDNA/mailer"
	"DriveDNA/models"
)

// 檢查信箱是否合法
func ValidateEmail(email string) bool {
	pattern := "^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\\.[a-zA-Z0-9-.]+$"
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

// 檢查密碼是否合法
func ValidatePassword(password string) bool {
	if len(password) < 8 || len(password) > 50 {
		return false
	}

	var (
		isUpper   = false
		isLower   = false
		isNumber  = false
		isSpecial = false
		isSpace   = false
	)

	for _, s := range password {
		switch {
		case unicode.IsSpace(s):
			isSpace = true
		case unicode.IsUpper(s):
			isUpper = true
		case unicode.IsLower(s):
			isLower = true
		case unicode.IsDigit(s):
			isNumber = true
		case unicode.IsPunct(s) || unicode.IsSymbol(s):
			isSpecial = true
		default:
		}
	}

	return isUpper && isLower && isNumber && isSpecial && !isSpace
}

// 檢查Email是否重複
func IsUserEmailExists(db *gorm.DB, email string) (bool, error) {
	var user models.User
	err := db.First(&user, "Email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil //信箱沒重複,不代表錯誤
		}
		return false, err //有錯誤
	}
	return true, nil //信箱重複
}

// 註冊使用者帳戶並寄送驗證信
func SignUpHandler(c *gin.Context, db *gorm.DB, sender mailer.Sender, baseURL string) {
	var signUpReq struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&signUpReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	if !ValidateEmail(signUpReq.Email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "註冊失敗:不合法的信箱",
		})
		return
	}

	if !ValidatePassword(signUpReq.Password) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "註冊失敗:不合法的密碼",
		})
		return
	}

	exists, err := IsUserEmailExists(db, signUpReq.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "註冊失敗:檢查信箱失敗",
			"error":   err.Error(),
		})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "註冊失敗:信箱已被使用",
		})
		return
	}

	//將密碼Hash
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(signUpReq.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "無法生成Hashed密碼",
			"error":   err.Error(),
		})
		return
	}

	newUser := models.User{
		Name:              signUpReq.Name,
		Email:             signUpReq.Email,
		Password:          string(hashedPassword),
		IsVerified:        false,
		VerificationToken: uuid.NewString(),
	}

	if err := db.Create(&newUser).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "無法儲存使用者資料至資料庫",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "請至信箱收取驗證信",
		"result": gin.H{
			"id":    newUser.ID,
			"name":  newUser.Name,
			"email": newUser.Email,
		},
	})

	verifyLink := fmt.Sprintf("%s/verify-email?token=%s", baseURL, newUser.VerificationToken)
	sender.Send(mailer.Message{
		To:      newUser.Email,
		Subject: "請驗證您的信箱",
		HTML: fmt.Sprintf(
			"<p>%s 您好,</p><p>請點擊以下連結驗證您的信箱:</p><a href=\"%s\">驗證信箱</a><p>如果您沒有註冊帳號,請忽略這封信。</p>",
			newUser.Name, verifyLink),
	})
}

// 驗證信箱並導回前端
func VerifyEmailHandler(c *gin.Context, db *gorm.DB, frontendURL string) {
	token := c.Query("token")
	if token == "" {
		c.String(http.StatusBadRequest, "無效或過期的驗證連結")
		return
	}

	var user models.User
	err := db.First(&user, "verification_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.String(http.StatusBadRequest, "無效或過期的驗證連結")
			return
		}
		log.Printf("查詢驗證Token失敗: %v", err)
		c.String(http.StatusInternalServerError, "驗證失敗")
		return
	}

	err = db.Model(&user).Updates(map[string]interface{}{
		"is_verified":        true,
		"verification_token": "",
	}).Error
	if err != nil {
		log.Printf("更新驗證狀態失敗 userID=%d: %v", user.ID, err)
		c.String(http.StatusInternalServerError, "驗證失敗")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/verify-success?id=%d", frontendURL, user.ID))
}

// 使用者登入,僅限已驗證信箱的帳號
func UserLoginHandler(c *gin.Context, db *gorm.DB, keys *jwt.Keys) {
	var loginReq struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	var user models.User
	err := db.First(&user, "Email = ?", loginReq.Email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "找不到此帳號",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "資料庫錯誤",
			"error":   err.Error(),
		})
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginReq.Password))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "密碼錯誤",
		})
		return
	}

	//尚未驗證信箱則拒絕登入
	if !user.IsVerified {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "請先驗證您的信箱",
		})
		return
	}

	tokenExpiredTime := time.Now().Add(time.Hour * 24)
	token, err := keys.GenerateToken(user.ID, "user", tokenExpiredTime.Unix())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "生成JWT Token錯誤",
			"error":   err.Error(),
		})
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "成功登入",
		"result":  user,
	})
}

// 管理員登入
func AdminLoginHandler(c *gin.Context, db *gorm.DB, keys *jwt.Keys) {
	var loginReq struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	var admin models.Admin
	err := db.First(&admin, "Email = ?", loginReq.Email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "找不到管理員帳號",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "資料庫錯誤",
			"error":   err.Error(),
		})
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(loginReq.Password))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "密碼錯誤",
		})
		return
	}

	tokenExpiredTime := time.Now().Add(time.Hour * 24)
	token, err := keys.GenerateToken(admin.ID, "admin", tokenExpiredTime.Unix())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "生成JWT Token錯誤",
			"error":   err.Error(),
		})
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "成功登入",
		"admin":   admin,
	})
}

// 以ID查詢使用者資料,不含密碼
func GetUserByIDHandler(c *gin.Context, db *gorm.DB) {
	var user models.User
	err := db.First(&user, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "找不到此使用者",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "資料庫錯誤",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}
