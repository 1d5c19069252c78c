package service

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"Vega_PT/internal/config"
	"Vega_PT/internal/model"
	"Vega_PT/internal/repository"
	"Vega_PT/pkg/logger"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const (
	QueueCommentEvent = "vega.comment_event.queue"
)

// CommentEventMessage 评论/回复事件，consumer据此发站内通知、更新种子评论计数
type CommentEventMessage struct {
	EventID     string `json:"event_id"`
	CommentID   uint64 `json:"comment_id"`
	TorrentID   uint64 `json:"torrent_id"`
	ActorID     uint64 `json:"actor_id"`
	RecipientID uint64 `json:"recipient_id"`
	Kind        string `json:"kind"` // model.NotifyCommentOnTorrent / model.NotifyReplyToComment
}

// CommentPage 一页组装完的评论树。TotalRoots/TotalPages只统计楼层，不含回复
type CommentPage struct {
	Nodes      []*CommentNode
	Page       int
	PageSize   int
	TotalRoots int64
	TotalPages int
	Order      string
}

type CommentService interface {
	// 在种子下发表评论，parentID为nil是楼层评论，否则是对该评论的回复；
	// parentID指向不存在的评论或其他种子下的评论时返回ErrInvalidParent
	CreateComment(authorID, torrentID uint64, content string, parentID *uint64) (*model.Comment, error)
	// 直接对某条评论回复，种子从父评论带出
	CreateReply(authorID, parentCommentID uint64, content string) (*model.Comment, error)
	// 组装一页评论树，viewerID为nil表示匿名访客
	GetCommentPage(torrentID uint64, viewerID *uint64, page, pageSize int, order string) (*CommentPage, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	torrentRepo repository.TorrentRepository
	voteService VoteService

	publisher EventPublisher
	sanitizer *bluemonday.Policy
	cfg       *config.Config
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	torrentRepo repository.TorrentRepository,
	voteService VoteService,
	publisher EventPublisher,
	cfg *config.Config,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		torrentRepo: torrentRepo,
		voteService: voteService,
		publisher:   publisher,
		// 评论是纯文本，标签一律剥掉
		sanitizer: bluemonday.StrictPolicy(),
		cfg:       cfg,
	}
}

func (s *commentService) CreateComment(authorID, torrentID uint64, content string, parentID *uint64) (*model.Comment, error) {
	var parent *model.Comment
	if parentID != nil {
		found, err := s.commentRepo.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, err
		}
		if found.TorrentID != torrentID {
			return nil, ErrInvalidParent
		}
		parent = found
	}
	return s.create(authorID, torrentID, content, parent)
}

func (s *commentService) CreateReply(authorID, parentCommentID uint64, content string) (*model.Comment, error) {
	parent, err := s.commentRepo.FindByID(parentCommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidParent
		}
		return nil, err
	}
	return s.create(authorID, parent.TorrentID, content, parent)
}

// create 楼层评论和回复共用的落库路径：清洗校验 -> 建行 -> 发事件 -> 带关联重查。
// 回复深度不设上限，展示层数由组树时的拍平规则控制
func (s *commentService) create(authorID, torrentID uint64, content string, parent *model.Comment) (*model.Comment, error) {
	if authorID == 0 {
		return nil, ErrUnauthenticated
	}
	cleaned, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}
	torrent, err := s.torrentRepo.FindByID(torrentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTorrentNotFound
		}
		return nil, err
	}

	newComment := &model.Comment{
		TorrentID: torrentID,
		UserID:    authorID,
		Content:   cleaned,
	}
	recipientID := torrent.UploaderID
	kind := model.NotifyCommentOnTorrent
	if parent != nil {
		fillReplyLineage(newComment, parent)
		recipientID = parent.UserID
		kind = model.NotifyReplyToComment
	}

	if err := s.commentRepo.Create(newComment); err != nil {
		return nil, err
	}

	s.publishCommentEvent(newComment, recipientID, kind)

	// 创建成功后带着User/ReplyToUser再查一遍，给上层完整对象
	return s.commentRepo.FindByID(newComment.ID)
}

// fillReplyLineage 从父评论推导回复的谱系字段：
// root_id统一指向楼层root（父是root时就是父自己），depth是真实层数
func fillReplyLineage(reply *model.Comment, parent *model.Comment) {
	rootID := parent.ID
	if parent.RootID != nil {
		rootID = *parent.RootID
	}
	reply.ParentID = &parent.ID
	reply.RootID = &rootID
	reply.Depth = parent.Depth + 1
	reply.ReplyToUserID = &parent.UserID
}

// cleanContent 剥标签、去首尾空白，再做空值和长度校验（按字符数不是字节数）
func (s *commentService) cleanContent(content string) (string, error) {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if cleaned == "" {
		return "", ErrContentEmpty
	}
	if utf8.RuneCountInString(cleaned) > s.cfg.CommentMaxLength {
		return "", ErrContentTooLong
	}
	return cleaned, nil
}

// GetCommentPage 评论区读路径：
// 1、按楼层分页查roots 2、按root_id整批查后代 3、组树+拍平
// 4、整片森林的投票聚合一次批量取 5、标注楼主和作者身份
func (s *commentService) GetCommentPage(torrentID uint64, viewerID *uint64, page, pageSize int, order string) (*CommentPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.CommentPageSize
	}
	if pageSize > s.cfg.CommentMaxPageSize {
		pageSize = s.cfg.CommentMaxPageSize
	}
	if order != "asc" {
		order = "desc"
	}

	torrent, err := s.torrentRepo.FindByID(torrentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTorrentNotFound
		}
		return nil, err
	}

	totalRoots, err := s.commentRepo.CountRootsByTorrentID(torrentID)
	if err != nil {
		return nil, err
	}
	result := &CommentPage{
		Nodes:      []*CommentNode{},
		Page:       page,
		PageSize:   pageSize,
		TotalRoots: totalRoots,
		TotalPages: int((totalRoots + int64(pageSize) - 1) / int64(pageSize)),
		Order:      order,
	}

	roots, err := s.commentRepo.GetRootsByTorrentID(torrentID, (page-1)*pageSize, pageSize, order)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		// 页码越界不算错误，空列表带上分页元信息返回
		return result, nil
	}

	rootIDs := make([]uint64, 0, len(roots))
	for i := range roots {
		rootIDs = append(rootIDs, roots[i].ID)
	}
	replies, err := s.commentRepo.GetRepliesByRootIDs(rootIDs)
	if err != nil {
		return nil, err
	}

	forest := buildCommentForest(roots, replies)

	aggs, err := s.voteService.AggregateForComments(collectCommentIDs(forest), viewerID)
	if err != nil {
		return nil, err
	}
	annotateForest(forest, aggs, torrent.UploaderID)

	result.Nodes = forest
	return result, nil
}

// 评论事件异步投递，失败只记日志：评论已落库，缺的是通知和冗余计数
func (s *commentService) publishCommentEvent(comment *model.Comment, recipientID uint64, kind string) {
	msg := CommentEventMessage{
		EventID:     uuid.NewString(),
		CommentID:   comment.ID,
		TorrentID:   comment.TorrentID,
		ActorID:     comment.UserID,
		RecipientID: recipientID,
		Kind:        kind,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Log.WithError(err).Error("评论事件序列化失败")
		return
	}
	if err := s.publisher.Publish(QueueCommentEvent, body); err != nil {
		logger.Log.WithError(err).
			WithField("comment_id", comment.ID).
			Error("评论事件投递失败，该事件的通知与计数更新将缺失")
	}
}
