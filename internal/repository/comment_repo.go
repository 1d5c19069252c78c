package repository

import (
	"Vega_PT/internal/model"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(commentID uint64) (*model.Comment, error)

	// 分页获取种子的楼层评论（parent_id为NULL的root评论）
	GetRootsByTorrentID(torrentID uint64, offset, limit int, order string) ([]model.Comment, error)
	// 楼层评论总数，分页元信息只统计root，不含回复
	CountRootsByTorrentID(torrentID uint64) (int64, error)
	// 按root_id一次取出整页楼层的全部后代回复
	GetRepliesByRootIDs(rootIDs []uint64) ([]model.Comment, error)

	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// WithTx 返回一个新的、使用事务的 commentRepository 实例
func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{
		db: tx,
	}
}

// Create 方法对事务和非事务场景通用
func (r *commentRepository) Create(comment *model.Comment) error {
	return r.db.Create(comment).Error
}

// 利用commentID找comment，并把User和ReplyToUser一并Preload出来
func (r *commentRepository) FindByID(commentID uint64) (*model.Comment, error) {
	var result model.Comment
	err := r.db.Preload("User").Preload("ReplyToUser").First(&result, commentID).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// 分页获取一个种子下的楼层评论，order只允许asc/desc，楼层内回复不在这里查
func (r *commentRepository) GetRootsByTorrentID(torrentID uint64, offset, limit int, order string) ([]model.Comment, error) {
	if order != "asc" {
		order = "desc"
	}
	var comments []model.Comment
	err := r.db.
		Preload("User").
		Where("torrent_id = ? AND parent_id IS NULL", torrentID).
		Offset(offset).
		Limit(limit).
		Order("created_at " + order).
		Order("id " + order).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountRootsByTorrentID(torrentID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).
		Where("torrent_id = ? AND parent_id IS NULL", torrentID).
		Count(&count).Error
	return count, err
}

// 根据一批root评论ID，取出这些楼层下的全部回复（任意深度，靠root_id冗余列）
func (r *commentRepository) GetRepliesByRootIDs(rootIDs []uint64) ([]model.Comment, error) {
	var replies []model.Comment
	err := r.db.
		Preload("User").
		Preload("ReplyToUser").
		Where("root_id IN (?)", rootIDs).
		Order("created_at asc").
		Order("id asc").
		Find(&replies).Error
	return replies, err
}
