package handler

import (
	"errors"
	"net/http"

	"Vega_PT/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 定义了标准的API错误响应结构
type ErrorResponse struct {
	Error string `json:"error"`
}

// sendErrorResponse 是一个辅助函数，用于发送标准格式的错误响应
func sendErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

// statusForServiceError 业务错误到HTTP状态码的映射，没列到的一律按500
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, service.ErrTorrentNotFound),
		errors.Is(err, service.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrContentEmpty),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrInvalidVote):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrLoginFailed):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrInfoHashTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sendServiceError 业务错误的文案直接面向前端，内部错误不外泄细节
func sendServiceError(c *gin.Context, err error) {
	code := statusForServiceError(err)
	if code == http.StatusInternalServerError {
		sendErrorResponse(c, code, "服务器内部错误")
		return
	}
	sendErrorResponse(c, code, err.Error())
}
