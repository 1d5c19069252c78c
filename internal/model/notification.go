package model

// 站内通知类型
const (
	NotifyCommentOnTorrent = "comment_torrent" // 有人评论了你发布的种子
	NotifyReplyToComment   = "reply_comment"   // 有人回复了你的评论
)

// Notification 由consumer消费MQ事件后落库，EventID用于消费端幂等去重
type Notification struct {
	BaseModel
	EventID   string `gorm:"size:36;uniqueIndex;not null"`
	UserID    uint64 `gorm:"not null;index"` // 接收者
	ActorID   uint64 `gorm:"not null"`       // 触发者
	Type      string `gorm:"size:32;not null"`
	TorrentID uint64 `gorm:"not null"`
	CommentID uint64 `gorm:"not null"`
	IsRead    bool   `gorm:"not null;default:false"`

	Actor User `gorm:"foreignKey:ActorID"`
}
