package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signTestToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  float64(42),
		"username": "alice",
		"role":     "member",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("签发测试token失败: %v", err)
	}
	return signed
}

// probe路由把context里的认证结果原样吐出来
func newProbeRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", mw, func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": c.MustGet("role")})
	})
	return r
}

func doProbe(t *testing.T, r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	return body
}

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	r := newProbeRouter(AuthMiddleware())

	// 没有令牌、格式不对、签名不对，全都挡在外面
	for name, header := range map[string]string{
		"缺少令牌":  "",
		"格式不正确": "Token abc",
		"签名不匹配": "Bearer " + signTestToken(t, "wrong-secret"),
	} {
		if w := doProbe(t, r, header); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}

	w := doProbe(t, r, "Bearer "+signTestToken(t, testSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["user_id"] != float64(42) {
		t.Errorf("user_id = %v, want 42", body["user_id"])
	}
	if body["role"] != "member" {
		t.Errorf("role = %v, want member", body["role"])
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	r := newProbeRouter(AuthMiddleware())

	claims := jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("签发测试token失败: %v", err)
	}
	if w := doProbe(t, r, "Bearer "+expired); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", w.Code)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	r := newProbeRouter(OptionalAuthMiddleware())

	// 不带令牌按匿名放行
	w := doProbe(t, r, "")
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous: status = %d, want 200", w.Code)
	}
	if body := decodeBody(t, w); body["anonymous"] != true {
		t.Errorf("anonymous body = %v, want anonymous=true", body)
	}

	// 带了有效令牌就进入登录视角
	w = doProbe(t, r, "Bearer "+signTestToken(t, testSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
	if body := decodeBody(t, w); body["user_id"] != float64(42) {
		t.Errorf("user_id = %v, want 42", body["user_id"])
	}

	// 带了令牌但无效仍要401，不能降级成匿名视角
	if w := doProbe(t, r, "Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: status = %d, want 401", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.MustGet("requestID")})
	})

	// 不带头就生成一个新ID并回写
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got == "" {
		t.Error("response missing X-Request-ID")
	}

	// 网关带了ID就沿用
	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(HeaderRequestID, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}
