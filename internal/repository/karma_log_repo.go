package repository

import (
	"Vega_PT/internal/model"

	"gorm.io/gorm"
)

// 积分流水是只追加的账本，没有查询接口，对账直接查库
type KarmaLogRepository interface {
	Create(log *model.KarmaLog) error

	WithTx(tx *gorm.DB) KarmaLogRepository
}

type karmaLogRepository struct {
	db *gorm.DB
}

func NewKarmaLogRepository(db *gorm.DB) KarmaLogRepository {
	return &karmaLogRepository{db: db}
}

func (r *karmaLogRepository) WithTx(tx *gorm.DB) KarmaLogRepository {
	return &karmaLogRepository{db: tx}
}

func (r *karmaLogRepository) Create(log *model.KarmaLog) error {
	return r.db.Create(log).Error
}
