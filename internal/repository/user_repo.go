package repository

import (
	"Vega_PT/internal/model"

	"gorm.io/gorm"
)

// 用户仓库接口：注册插入、按用户名/ID查找、积分结算
type UserRepository interface {
	Create(user *model.User) error
	FindByUsername(username string) (*model.User, error)
	FindByID(userID uint64) (*model.User, error)
	// 原子调整积分，delta可为负
	IncrementKarma(userID uint64, delta int) error

	WithTx(tx *gorm.DB) UserRepository
}

// 数据库接口封装
type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

// 用户插入表
func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// 根据用户名找用户
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var result model.User
	err := r.db.Where("username = ?", username).First(&result).Error
	if err != nil {
		return nil, err // 如果有错（包括没找到），直接返回
	}
	return &result, nil
}

func (r *userRepository) FindByID(userID uint64) (*model.User, error) {
	var result model.User
	err := r.db.First(&result, userID).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UPDATE `users` SET `karma` = `karma` + ? WHERE id = ?
func (r *userRepository) IncrementKarma(userID uint64, delta int) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("karma", gorm.Expr("karma + ?", delta)).Error
}
