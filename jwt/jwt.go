package jwt

import (
	"crypto/rsa"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// 簽發與驗證Token用的金鑰組,啟動時讀取一次
type Keys struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

func NewKeys(private *rsa.PrivateKey) *Keys {
	return &Keys{
		private: private,
		public:  &private.PublicKey,
	}
}

// 從PEM檔讀取金鑰組
func LoadKeys(privateKeyPath, publicKeyPath string) (*Keys, error) {
	privateBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, err
	}
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privateBytes)
	if err != nil {
		return nil, err
	}

	publicBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicBytes)
	if err != nil {
		return nil, err
	}

	return &Keys{private: private, public: public}, nil
}

// 生成JWT Token
func (k *Keys) GenerateToken(userID uint, role string, expTime int64) (string, error) {
	token := jwt.New(jwt.SigningMethodRS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["userID"] = userID
	claims["role"] = role
	claims["exp"] = expTime

	tokenString, err := token.SignedString(k.private)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// 驗證JWT Token並回傳UserID和角色
func (k *Keys) VerifyToken(tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return k.public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return 0, "", err
	}

	if !token.Valid {
		return 0, "", jwt.ErrTokenSignatureInvalid
	}

	claims := token.Claims.(jwt.MapClaims)
	userID := uint(claims["userID"].(float64))
	role := claims["role"].(string)

	return userID, role, nil
}
