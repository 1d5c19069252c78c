package dto

import (
	"time"

	"Vega_PT/internal/model"
)

type TorrentResponse struct {
	ID           uint64    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	InfoHash     string    `json:"info_hash"`
	Description  string    `json:"description"`
	FileSize     int64     `json:"file_size"`
	Category     string    `json:"category"`
	CommentCount uint64    `json:"comment_count"`
	Uploader     struct {
		ID       uint64 `json:"id"`
		Username string `json:"username"`
	} `json:"uploader"`
}

// ToTorrentResponse 把DB模型转换为API响应模型，正确利用preload返回的数据
func ToTorrentResponse(torrent *model.Torrent) TorrentResponse {
	resp := TorrentResponse{
		ID:           torrent.ID,
		CreatedAt:    torrent.CreatedAt,
		Title:        torrent.Title,
		InfoHash:     torrent.InfoHash,
		Description:  torrent.Description,
		FileSize:     torrent.FileSize,
		Category:     torrent.Category,
		CommentCount: torrent.CommentCount,
	}
	// 检查Uploader是否被成功preload
	if torrent.Uploader.ID != 0 {
		resp.Uploader.ID = torrent.Uploader.ID
		resp.Uploader.Username = torrent.Uploader.Username
	} else {
		// 没有preload就只带ID
		resp.Uploader.ID = torrent.UploaderID
	}
	return resp
}
