package model

// Torrent 种子的展示元数据，做种/下载状态不在本服务范围内
type Torrent struct {
	BaseModel
	UploaderID  uint64 `gorm:"not null;index"` // 发布者ID，评论区据此标记楼主
	Title       string `gorm:"not null"`
	InfoHash    string `gorm:"size:40;uniqueIndex;not null"` // BT info-hash，十六进制字符串
	Description string `gorm:"type:text"`
	FileSize    int64  `gorm:"not null;default:0"` // 字节数
	Category    string `gorm:"size:32;index"`
	// 评论总数为冗余计数，由consumer消费评论事件后更新，展示用途，不参与分页计算
	CommentCount uint64 `gorm:"default:0"`

	Uploader User `gorm:"foreignKey:UploaderID;references:ID"`
}
