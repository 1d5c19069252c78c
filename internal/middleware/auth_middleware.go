package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// parseBearerToken 从Authorization头解析"Bearer [token]"并验签，
// 成功返回claims。头缺失和token无效是两种失败，调用方区别处理
func parseBearerToken(c *gin.Context) (jwt.MapClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errors.New("请求未包含授权令牌")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("授权令牌格式不正确")
	}

	secretKey := []byte(os.Getenv("JWT_SECRET_KEY"))
	// 解析Token，返回加密前的token（Header.Payload.Signature），附带valid判断是否有效
	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		// 确保签名方法是对称加密族
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("无效的授权令牌")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("无效的授权令牌")
	}
	return claims, nil
}

func setAuthContext(c *gin.Context, claims jwt.MapClaims) {
	c.Set("userID", claims["user_id"])
	c.Set("username", claims["username"])
	c.Set("role", claims["role"])
}

// AuthMiddleware 只放行带有效token的请求。
// 流程：1、取Authorization头 2、验证"Bearer [token]" 3、验签 4、用户信息放入context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearerToken(c)
		if err != nil {
			// 立刻Abort，阻止后续处理器执行
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setAuthContext(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware 匿名可访问的路由用。不带Authorization头按匿名放行；
// 带了头但token无效仍然401，避免前端拿着过期token却看到匿名视图
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, err := parseBearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setAuthContext(c, claims)
		c.Next()
	}
}
