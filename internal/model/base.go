package model

import (
	"time"

	"gorm.io/gorm"
)

// gorm.Model的主键是uint，全站主键统一为uint64，所以自定义基础结构体
type BaseModel struct {
	ID        uint64 `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
