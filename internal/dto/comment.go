package dto

import (
	"time"

	"Vega_PT/internal/model"
	"Vega_PT/internal/service"
)

// UserInfo 是在DTO中使用的、简化的用户信息
type UserInfo struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Badge    string `json:"badge"`
}

// CommentNodeResponse 渲染树节点的响应结构，Replies递归嵌套。
// depth是展示层号，parent_id是真实父评论，拍平的节点两者对不上是正常的
type CommentNodeResponse struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Depth     int       `json:"depth"`
	ParentID  *uint64   `json:"parent_id,omitempty"`

	UpvoteCount   int    `json:"upvote_count"`
	DownvoteCount int    `json:"downvote_count"`
	Score         int    `json:"score"`
	ViewerVote    string `json:"viewer_vote"`

	IsUploader bool      `json:"is_uploader"`
	Author     UserInfo  `json:"author"`
	ReplyTo    *UserInfo `json:"reply_to,omitempty"`

	Replies []CommentNodeResponse `json:"replies"`
}

// CommentPageResponse 一页评论树加分页元信息，总数只统计楼层
type CommentPageResponse struct {
	Comments   []CommentNodeResponse `json:"comments"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalRoots int64                 `json:"total_roots"`
	TotalPages int                   `json:"total_pages"`
	Order      string                `json:"order"`
}

// CommentCreatedResponse 新建评论/回复的响应结构
type CommentCreatedResponse struct {
	ID        uint64    `json:"id"`
	TorrentID uint64    `json:"torrent_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ParentID  *uint64   `json:"parent_id,omitempty"`
	RootID    *uint64   `json:"root_id,omitempty"`
	Depth     int       `json:"depth"`
	Author    UserInfo  `json:"author"`
	ReplyTo   *UserInfo `json:"reply_to,omitempty"`
}

func toUserInfo(user model.User) UserInfo {
	return UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Badge:    string(model.BadgeForRole(user.Role)),
	}
}

func ToCommentNodeResponse(node *service.CommentNode) CommentNodeResponse {
	comment := node.Comment
	resp := CommentNodeResponse{
		ID:            comment.ID,
		Content:       comment.Content,
		CreatedAt:     comment.CreatedAt,
		Depth:         node.Depth,
		ParentID:      comment.ParentID,
		UpvoteCount:   node.UpvoteCount,
		DownvoteCount: node.DownvoteCount,
		Score:         node.Score,
		ViewerVote:    node.ViewerVote.Label(),
		IsUploader:    node.IsUploader,
		Replies:       make([]CommentNodeResponse, 0, len(node.Children)),
	}
	// 安全地填充作者信息，preload失败时不给前端半截数据
	if comment.User.ID != 0 {
		resp.Author = toUserInfo(comment.User)
		resp.Author.Badge = string(node.AuthorBadge)
	}
	// 安全地填充被回复者信息
	if comment.ReplyToUserID != nil && comment.ReplyToUser.ID != 0 {
		replyTo := toUserInfo(comment.ReplyToUser)
		resp.ReplyTo = &replyTo
	}
	for _, child := range node.Children {
		resp.Replies = append(resp.Replies, ToCommentNodeResponse(child))
	}
	return resp
}

func ToCommentPageResponse(page *service.CommentPage) CommentPageResponse {
	resp := CommentPageResponse{
		Comments:   make([]CommentNodeResponse, 0, len(page.Nodes)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalRoots: page.TotalRoots,
		TotalPages: page.TotalPages,
		Order:      page.Order,
	}
	for _, node := range page.Nodes {
		resp.Comments = append(resp.Comments, ToCommentNodeResponse(node))
	}
	return resp
}

func ToCommentCreatedResponse(comment *model.Comment) *CommentCreatedResponse {
	resp := &CommentCreatedResponse{
		ID:        comment.ID,
		TorrentID: comment.TorrentID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		ParentID:  comment.ParentID,
		RootID:    comment.RootID,
		Depth:     comment.Depth,
	}
	if comment.User.ID != 0 {
		resp.Author = toUserInfo(comment.User)
	}
	if comment.ReplyToUserID != nil && comment.ReplyToUser.ID != 0 {
		replyTo := toUserInfo(comment.ReplyToUser)
		resp.ReplyTo = &replyTo
	}
	return resp
}
