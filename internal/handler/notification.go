package handler

import (
	"net/http"
	"strconv"

	"Vega_PT/internal/dto"
	"Vega_PT/internal/repository"
	"Vega_PT/pkg/logger"

	"github.com/gin-gonic/gin"
)

type NotificationHandler interface {
	ListNotifications(c *gin.Context)
	MarkNotificationRead(c *gin.Context)
}

// 通知的读和标记没有业务规则，handler直接持有repo
type notificationHandler struct {
	NotificationRepo repository.NotificationRepository
}

func NewNotificationHandler(notificationRepo repository.NotificationRepository) NotificationHandler {
	return &notificationHandler{NotificationRepo: notificationRepo}
}

// 通知列表：按时间倒序分页，顺带返回未读总数
func (h *notificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, err := h.NotificationRepo.ListByUserID(userID, (page-1)*pageSize, pageSize)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("获取通知列表失败")
		sendErrorResponse(c, http.StatusInternalServerError, "获取通知列表失败")
		return
	}
	unread, err := h.NotificationRepo.CountUnread(userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("统计未读通知失败")
		sendErrorResponse(c, http.StatusInternalServerError, "获取通知列表失败")
		return
	}

	response := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		response = append(response, dto.ToNotificationResponse(&notifications[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取通知列表成功",
		"data": gin.H{
			"notifications": response,
			"unread_count":  unread,
		},
	})
}

// 标记已读：repo层带userID条件防止越权，影响0行视作通知不存在
func (h *notificationHandler) MarkNotificationRead(c *gin.Context) {
	notificationID, err := strconv.ParseUint(c.Param("notification_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的通知ID")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return
	}

	rows, err := h.NotificationRepo.MarkRead(notificationID, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", notificationID).Error("标记通知已读失败")
		sendErrorResponse(c, http.StatusInternalServerError, "标记已读失败")
		return
	}
	if rows == 0 {
		sendErrorResponse(c, http.StatusNotFound, "通知不存在")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已标记为已读"})
}
