package dto

import (
	"time"

	"Vega_PT/internal/model"
)

type NotificationResponse struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Type      string    `json:"type"`
	TorrentID uint64    `json:"torrent_id"`
	CommentID uint64    `json:"comment_id"`
	IsRead    bool      `json:"is_read"`
	Actor     UserInfo  `json:"actor"`
}

func ToNotificationResponse(notification *model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        notification.ID,
		CreatedAt: notification.CreatedAt,
		Type:      notification.Type,
		TorrentID: notification.TorrentID,
		CommentID: notification.CommentID,
		IsRead:    notification.IsRead,
	}
	if notification.Actor.ID != 0 {
		resp.Actor = toUserInfo(notification.Actor)
	}
	return resp
}
