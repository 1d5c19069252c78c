package service

import (
	"errors"
	"fmt"
	"strings"

	"Vega_PT/internal/model"
	"Vega_PT/internal/repository"
	"Vega_PT/pkg/logger"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type TorrentService interface {
	PublishTorrent(uploaderID uint64, title, infoHash, description, category string, fileSize int64) (*model.Torrent, error)
	GetFeed(limit int) ([]model.Torrent, error)

	GetTorrentByID(torrentID uint64) (*model.Torrent, error)
}

type torrentService struct {
	sf singleflight.Group

	torrentRepo repository.TorrentRepository
}

func NewTorrentService(torrentRepo repository.TorrentRepository) TorrentService {
	return &torrentService{
		torrentRepo: torrentRepo,
	}
}

// PublishTorrent info-hash统一小写存储，撞唯一索引说明种子已被发布过
func (s *torrentService) PublishTorrent(uploaderID uint64, title, infoHash, description, category string, fileSize int64) (*model.Torrent, error) {
	newTorrent := &model.Torrent{
		UploaderID:  uploaderID,
		Title:       title,
		InfoHash:    strings.ToLower(infoHash),
		Description: description,
		Category:    category,
		FileSize:    fileSize,
	}
	err := s.torrentRepo.Create(newTorrent)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, ErrInfoHashTaken
		}
		return nil, err
	}
	return newTorrent, nil
}

// 获取最新种子Feed流
func (s *torrentService) GetFeed(limit int) ([]model.Torrent, error) {
	// 限制limit范围
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	torrents, err := s.torrentRepo.FindLatest(limit)
	if err != nil {
		return nil, err
	}

	return torrents, nil
}

// 根据torrentID查种子：1、查Redis缓存 2、未命中走SingleFlight回源，
// 并发的同key查询合并成一次数据库访问
func (s *torrentService) GetTorrentByID(torrentID uint64) (*model.Torrent, error) {
	torrent, err := s.torrentRepo.GetTorrentCache(torrentID)
	if err == nil && torrent != nil {
		return torrent, nil
	}
	// 不是缓存未命中，而是Redis本身出错，记日志后照常回源
	if err != nil {
		logger.Log.WithError(err).WithField("torrent_id", torrentID).Warn("种子缓存读取失败，回源MySQL")
	}

	// FindByID内部会把回源结果写回缓存
	key := fmt.Sprintf("get_torrent_%d", torrentID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.torrentRepo.FindByID(torrentID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTorrentNotFound
		}
		return nil, err
	}
	return result.(*model.Torrent), nil
}
