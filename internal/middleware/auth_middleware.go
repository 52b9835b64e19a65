package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/utils"
)

// 認証ミドルウェア
// 検証に通ったらユーザーIDをコンテキストに保存し、
// 生のトークンもrequest contextに載せてゲートウェイへの転送に使う

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. ヘッダーから Authorization を取得
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証トークンが必要です"})
			c.Abort()
			return
		}

		// 2. トークンを検証
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "無効なトークンです"})
			c.Abort()
			return
		}

		// 3. 成功！ユーザーIDとトークンを保存（後でハンドラーとゲートウェイで使う）
		c.Set("userID", claims.UserID)
		c.Request = c.Request.WithContext(gateway.WithToken(c.Request.Context(), tokenString))
		c.Next()
	}
}

// OptionalAuth: トークンがあれば使うが、無くても通す（一覧や詳細の閲覧用）
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			// 無効なトークンなら未ログイン扱いで通す
			c.Next()
			return
		}

		c.Set("userID", claims.UserID)
		c.Request = c.Request.WithContext(gateway.WithToken(c.Request.Context(), tokenString))
		c.Next()
	}
}

// bearerToken: "Bearer <token>" 形式のヘッダーからトークンを取り出す
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
