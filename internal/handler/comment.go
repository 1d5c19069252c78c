package handler

import (
	"net/http"
	"strconv"

	"Vega_PT/internal/dto"
	"Vega_PT/internal/service"
	"Vega_PT/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CommentHandler interface {
	CreateCommentForTorrent(c *gin.Context)
	CreateReplyForComment(c *gin.Context)

	GetComments(c *gin.Context)
}

type commentHandler struct {
	CommentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) CommentHandler {
	return &commentHandler{CommentService: commentService}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
	// 带parent_id就是楼内回复，父评论必须属于同一个种子
	ParentID *uint64 `json:"parent_id"`
}

type CreateReplyRequest struct {
	Content string `json:"content" binding:"required"`
}

// 种子评论：1、解析URL中的torrentID参数 2、解析Body并校验content 3、从context取userID（jwt） 4、创建评论并返回
func (h *commentHandler) CreateCommentForTorrent(c *gin.Context) {
	torrentID, err := strconv.ParseUint(c.Param("torrent_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的种子ID")
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	// 理论上中间件会拦截，但防御性编程是好习惯
	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("torrent_id", torrentID)
	logCtx.Info("开始创建评论")
	comment, err := h.CommentService.CreateComment(userID, torrentID, req.Content, req.ParentID)
	if err != nil {
		logCtx.WithError(err).Warn("创建评论失败")
		sendServiceError(c, err)
		return
	}
	logCtx.WithField("comment_id", comment.ID).Info("评论创建成功")
	c.JSON(http.StatusCreated, gin.H{
		"message": "评论成功",
		"data":    dto.ToCommentCreatedResponse(comment),
	})
}

// 回复评论：1、解析URL中的commentID参数 2、解析Body 3、从context取userID 4、创建回复，种子ID从父评论带出
func (h *commentHandler) CreateReplyForComment(c *gin.Context) {
	parentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的父评论ID")
		return
	}

	var req CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("回复参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("parent_id", parentID)
	logCtx.Info("开始创建回复")
	reply, err := h.CommentService.CreateReply(userID, parentID, req.Content)
	if err != nil {
		logCtx.WithError(err).Warn("创建回复失败")
		sendServiceError(c, err)
		return
	}
	logCtx.WithField("reply_id", reply.ID).Info("回复创建成功")
	c.JSON(http.StatusCreated, gin.H{
		"message": "回复成功",
		"data":    dto.ToCommentCreatedResponse(reply),
	})
}

// 获取种子的评论区：1、解析URL中的torrentID 2、从查询参数取分页和排序，提供默认值
// 3、从context取可选的viewer身份 4、service组装整页评论树返回
func (h *commentHandler) GetComments(c *gin.Context) {
	torrentID, err := strconv.ParseUint(c.Param("torrent_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的种子ID")
		return
	}

	// 在URL的查询参数里找这些键，没找到就用默认值
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	order := c.DefaultQuery("order", "desc")

	// 匿名访客也能看评论区，登录用户能看到自己投过的票
	viewerID := viewerFromContext(c)

	commentPage, err := h.CommentService.GetCommentPage(torrentID, viewerID, page, pageSize, order)
	if err != nil {
		logger.Log.WithError(err).WithField("torrent_id", torrentID).Warn("获取评论区失败")
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取评论列表成功",
		"data":    dto.ToCommentPageResponse(commentPage),
	})
}
