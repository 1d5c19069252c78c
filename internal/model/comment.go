package model

// Comment 评论一经创建不可编辑，内容在入库前已做纯文本清洗
type Comment struct {
	BaseModel
	TorrentID uint64 `gorm:"not null;index"`
	UserID    uint64 `gorm:"not null;index"`
	Content   string `gorm:"type:text;not null"`
	// ParentID为nil表示楼层评论（root），否则指向被回复的评论
	ParentID *uint64 `gorm:"index"`
	// RootID冗余记录所在楼层的root评论ID，root自身为nil；
	// 取整页楼层的全部后代时按该列一次查出，不用递归
	RootID *uint64 `gorm:"index"`
	// Depth是距root的真实层数（root为0），与展示层数无关
	Depth         int     `gorm:"not null;default:0"`
	ReplyToUserID *uint64 // 被回复评论的作者，拍平展示时前端据此标注"回复@xx"

	User        User `gorm:"foreignKey:UserID"`
	ReplyToUser User `gorm:"foreignKey:ReplyToUserID"`
}

func (Comment) TableName() string {
	return "comments"
}
