package handler

import (
	"net/http"
	"strconv"

	"Vega_PT/internal/dto"
	"Vega_PT/internal/service"
	"Vega_PT/pkg/logger"

	"github.com/gin-gonic/gin"
)

type TorrentHandler interface {
	PublishTorrent(c *gin.Context)

	GetTorrentByID(c *gin.Context)
	GetFeed(c *gin.Context)
}

type torrentHandler struct {
	TorrentService service.TorrentService
}

func NewTorrentHandler(torrentService service.TorrentService) TorrentHandler {
	return &torrentHandler{TorrentService: torrentService}
}

type PublishTorrentRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	InfoHash    string `json:"info_hash" binding:"required,infohash"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"max=32"`
	FileSize    int64  `json:"file_size" binding:"min=0"`
}

// 发布种子：1、Body校验（info-hash格式在binding层拦住） 2、context取userID 3、service落库并返回
func (h *torrentHandler) PublishTorrent(c *gin.Context) {
	var req PublishTorrentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("发布种子参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return
	}

	logCtx := logger.Log.WithField("uploader_id", userID)
	logCtx.Info("开始处理发布种子请求")

	torrent, err := h.TorrentService.PublishTorrent(userID, req.Title, req.InfoHash, req.Description, req.Category, req.FileSize)
	if err != nil {
		logCtx.WithError(err).Warn("发布种子失败")
		sendServiceError(c, err)
		return
	}
	logCtx.WithField("torrent_id", torrent.ID).Info("种子发布成功")

	c.JSON(http.StatusCreated, gin.H{
		"message": "种子发布成功",
		"data":    dto.ToTorrentResponse(torrent),
	})
}

func (h *torrentHandler) GetTorrentByID(c *gin.Context) {
	torrentID, err := strconv.ParseUint(c.Param("torrent_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的种子ID")
		return
	}
	logCtx := logger.Log.WithField("torrent_id", torrentID)
	torrent, err := h.TorrentService.GetTorrentByID(torrentID)
	if err != nil {
		logCtx.WithError(err).Warn("查找种子失败")
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToTorrentResponse(torrent)})
}

// 获取最新种子Feed流：1、请求附上用户IP便于溯源 2、service层取最新发布 3、dto转换后返回
func (h *torrentHandler) GetFeed(c *gin.Context) {
	logCtx := logger.Log.WithField("ip", c.ClientIP())

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	torrents, err := h.TorrentService.GetFeed(limit)
	if err != nil {
		logCtx.WithError(err).Error("获取Feed流失败")
		sendErrorResponse(c, http.StatusInternalServerError, "获取种子列表失败")
		return
	}

	response := make([]dto.TorrentResponse, 0, len(torrents))
	for i := range torrents {
		response = append(response, dto.ToTorrentResponse(&torrents[i]))
	}

	logCtx.WithField("count", len(response)).Info("成功获取Feed流")
	c.JSON(http.StatusOK, gin.H{
		"message": "成功获取种子列表",
		"data":    response,
	})
}
