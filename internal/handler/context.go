package handler

import "github.com/gin-gonic/gin"

// jwt.MapClaims中的数字会被解析为float64，context取回的值要先断言再转uint64
func currentUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return uint64(f), true
}

// viewerFromContext 可选认证的路由用，匿名访客返回nil
func viewerFromContext(c *gin.Context) *uint64 {
	id, ok := currentUserID(c)
	if !ok {
		return nil
	}
	return &id
}
