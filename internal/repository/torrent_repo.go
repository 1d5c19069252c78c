package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"Vega_PT/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TorrentRepository interface {
	Create(torrent *model.Torrent) error
	FindLatest(limit int) ([]model.Torrent, error)
	FindByID(torrentID uint64) (*model.Torrent, error)
	// 带锁的查找
	FindByIDForUpdate(torrentID uint64) (*model.Torrent, error)
	// 冗余评论计数，consumer消费评论事件后调用
	IncrementCommentCount(torrentID uint64) error

	GetTorrentCache(torrentID uint64) (*model.Torrent, error)
	SetTorrentCache(torrent *model.Torrent) error

	WithTx(tx *gorm.DB) TorrentRepository
}

type torrentRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewTorrentRepository(db *gorm.DB, rdb *redis.Client) TorrentRepository {
	return &torrentRepository{
		db:  db,
		rdb: rdb,
	}
}

func (r *torrentRepository) WithTx(tx *gorm.DB) TorrentRepository {
	return &torrentRepository{
		db:  tx,
		rdb: r.rdb,
	}
}

func (r *torrentRepository) Create(torrent *model.Torrent) error {
	return r.db.Create(torrent).Error
}

// 按发布时间倒序查询最新种子
func (r *torrentRepository) FindLatest(limit int) ([]model.Torrent, error) {
	var torrents []model.Torrent
	err := r.db.Preload("Uploader").Order("created_at desc").Limit(limit).Find(&torrents).Error
	if err != nil {
		return nil, err
	}
	return torrents, nil
}

// 先读缓存，未命中回源MySQL并写回
func (r *torrentRepository) FindByID(torrentID uint64) (*model.Torrent, error) {
	torrent, err := r.GetTorrentCache(torrentID)
	if err == nil && torrent != nil {
		return torrent, nil
	}

	var dbTorrent model.Torrent
	err = r.db.Preload("Uploader").First(&dbTorrent, torrentID).Error
	if err != nil {
		return nil, err
	}

	_ = r.SetTorrentCache(&dbTorrent)

	return &dbTorrent, nil
}

func (r *torrentRepository) FindByIDForUpdate(torrentID uint64) (*model.Torrent, error) {
	var torrent model.Torrent
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&torrent, torrentID).Error
	return &torrent, err
}

func (r *torrentRepository) IncrementCommentCount(torrentID uint64) error {
	// UPDATE `torrents` SET `comment_count` = `comment_count` + 1 WHERE id = ?
	return r.db.Model(&model.Torrent{}).Where("id = ?", torrentID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
}

func (r *torrentRepository) keyTorrentInfo(torrentID uint64) string {
	return fmt.Sprintf("torrent:info:%d", torrentID)
}

// 从Redis缓存中取单个种子信息，缓存不存在返回(nil, nil)
func (r *torrentRepository) GetTorrentCache(torrentID uint64) (*model.Torrent, error) {
	key := r.keyTorrentInfo(torrentID)
	torrentJSON, err := r.rdb.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var torrent model.Torrent
	if err := json.Unmarshal([]byte(torrentJSON), &torrent); err != nil {
		return nil, err
	}
	return &torrent, nil
}

// 序列化后SET进Redis，过期时间带随机抖动防止缓存雪崩
func (r *torrentRepository) SetTorrentCache(torrent *model.Torrent) error {
	key := r.keyTorrentInfo(torrent.ID)
	torrentJSON, err := json.Marshal(torrent)
	if err != nil {
		return err
	}
	expiration := time.Minute*5 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(context.Background(), key, torrentJSON, expiration).Err()
}
