package repository

import (
	"Vega_PT/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	// 按时间倒序分页拉取某用户的通知
	ListByUserID(userID uint64, offset, limit int) ([]model.Notification, error)
	CountUnread(userID uint64) (int64, error)
	// 标记已读，带userID条件防止越权，返回影响行数
	MarkRead(notificationID, userID uint64) (int64, error)

	WithTx(tx *gorm.DB) NotificationRepository
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	return r.db.Create(notification).Error
}

func (r *notificationRepository) ListByUserID(userID uint64, offset, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.
		Preload("Actor").
		Where("user_id = ?", userID).
		Offset(offset).
		Limit(limit).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(notificationID, userID uint64) (int64, error) {
	result := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		UpdateColumn("is_read", true)
	return result.RowsAffected, result.Error
}
