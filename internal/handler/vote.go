package handler

import (
	"net/http"
	"strconv"

	"Vega_PT/internal/model"
	"Vega_PT/internal/service"
	"Vega_PT/pkg/logger"

	"github.com/gin-gonic/gin"
)

type VoteHandler interface {
	CastVote(c *gin.Context)
}

type voteHandler struct {
	VoteService service.VoteService
}

func NewVoteHandler(voteService service.VoteService) VoteHandler {
	return &voteHandler{VoteService: voteService}
}

type CastVoteRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// VoteResultResponse 投票后评论的最新聚合
type VoteResultResponse struct {
	CommentID     uint64 `json:"comment_id"`
	UpvoteCount   int    `json:"upvote_count"`
	DownvoteCount int    `json:"downvote_count"`
	Score         int    `json:"score"`
	ViewerVote    string `json:"viewer_vote"`
}

// 评论投票：1、解析URL中的commentID 2、Body里的direction只接受up/down
// 3、从context取userID 4、service按状态迁移表落票，返回最新聚合。
// 同方向重复投是撤销，反方向是改票，语义由service保证，接口无需区分
func (h *voteHandler) CastVote(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的评论ID")
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("投票参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	direction, ok := model.ParseVoteDirection(req.Direction)
	if !ok {
		sendErrorResponse(c, http.StatusBadRequest, "无效的投票方向")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return
	}

	logCtx := logger.Log.WithField("user_id", userID).
		WithField("comment_id", commentID).
		WithField("direction", req.Direction)

	agg, err := h.VoteService.CastVote(userID, commentID, direction)
	if err != nil {
		logCtx.WithError(err).Warn("投票失败")
		sendServiceError(c, err)
		return
	}
	logCtx.WithField("viewer_vote", agg.ViewerVote.Label()).Info("投票成功")

	c.JSON(http.StatusOK, gin.H{
		"message": "投票成功",
		"data": VoteResultResponse{
			CommentID:     commentID,
			UpvoteCount:   agg.UpvoteCount,
			DownvoteCount: agg.DownvoteCount,
			Score:         agg.Score(),
			ViewerVote:    agg.ViewerVote.Label(),
		},
	})
}
