package service

import (
	"encoding/json"
	"errors"

	"Vega_PT/internal/data"
	"Vega_PT/internal/model"
	"Vega_PT/internal/repository"
	"Vega_PT/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// 遵循：项目名.业务领域.实体/功能
	QueueVoteEvent = "vega.vote_event.queue"
)

// VoteEventMessage 投票状态变化事件，consumer据此结算积分
type VoteEventMessage struct {
	EventID   string `json:"event_id"`
	CommentID uint64 `json:"comment_id"`
	TorrentID uint64 `json:"torrent_id"`
	VoterID   uint64 `json:"voter_id"`
	AuthorID  uint64 `json:"author_id"`
	Old       string `json:"old"` // none/up/down
	New       string `json:"new"`
}

// VoteAggregate 单条评论面向某个viewer的投票聚合
type VoteAggregate struct {
	UpvoteCount   int
	DownvoteCount int
	ViewerVote    model.VoteDirection
}

func (a VoteAggregate) Score() int {
	return a.UpvoteCount - a.DownvoteCount
}

type VoteService interface {
	// 批量取一批评论的投票聚合。viewerID为nil表示匿名访客，ViewerVote一律none；
	// 请求里的每个commentID都保证出现在结果里，没有投票记录的取零值
	AggregateForComments(commentIDs []uint64, viewerID *uint64) (map[uint64]VoteAggregate, error)
	// 按状态迁移表投票：同方向撤销、反方向改票、未投则新增，
	// 落库成功后返回该评论最新的聚合
	CastVote(voterID, commentID uint64, requested model.VoteDirection) (*VoteAggregate, error)
}

type voteService struct {
	voteRepo    repository.VoteRepository
	commentRepo repository.CommentRepository
	uow         data.UnitOfWork

	publisher EventPublisher
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	commentRepo repository.CommentRepository,
	uow data.UnitOfWork,
	publisher EventPublisher,
) VoteService {
	return &voteService{
		voteRepo:    voteRepo,
		commentRepo: commentRepo,
		uow:         uow,
		publisher:   publisher,
	}
}

// 聚合读路径：先读Redis计数缓存，未命中的回源MySQL并回填；
// viewer自己的投票单独一条IN查询
func (s *voteService) AggregateForComments(commentIDs []uint64, viewerID *uint64) (map[uint64]VoteAggregate, error) {
	result := make(map[uint64]VoteAggregate, len(commentIDs))
	for _, id := range commentIDs {
		result[id] = VoteAggregate{ViewerVote: model.VoteNone}
	}
	if len(commentIDs) == 0 {
		return result, nil
	}

	cached, missing, err := s.voteRepo.GetCachedCounts(commentIDs)
	if err != nil {
		// Redis故障时整批回源MySQL，读路径不跟着缓存一起挂
		logger.Log.WithError(err).Warn("投票计数缓存读取失败，整批回源MySQL")
		cached = nil
		missing = commentIDs
	}
	for id, counts := range cached {
		result[id] = VoteAggregate{UpvoteCount: counts.Upvotes, DownvoteCount: counts.Downvotes}
	}

	if len(missing) > 0 {
		dbCounts, err := s.voteRepo.CountsByCommentIDs(missing)
		if err != nil {
			return nil, err
		}
		backfill := make(map[uint64]repository.VoteCounts, len(missing))
		for _, id := range missing {
			counts := dbCounts[id] // 一票未得的评论取零值
			result[id] = VoteAggregate{UpvoteCount: counts.Upvotes, DownvoteCount: counts.Downvotes}
			backfill[id] = counts
		}
		if err := s.voteRepo.SetCachedCounts(backfill); err != nil {
			logger.Log.WithError(err).Warn("投票计数缓存回填失败")
		}
	}

	if viewerID != nil && *viewerID != 0 {
		votes, err := s.voteRepo.ListByVoterForComments(*viewerID, commentIDs)
		if err != nil {
			return nil, err
		}
		for _, vote := range votes {
			agg := result[vote.CommentID]
			agg.ViewerVote = model.VoteDirection(vote.Value)
			result[vote.CommentID] = agg
		}
	}

	return result, nil
}

// 投票写路径：迁移和计数在同一个事务里完成，提交后才更新缓存、发事件。
// 聚合结果直接返回给调用方，不经过缓存
func (s *voteService) CastVote(voterID, commentID uint64, requested model.VoteDirection) (*VoteAggregate, error) {
	if voterID == 0 {
		return nil, ErrUnauthenticated
	}
	if requested != model.VoteUp && requested != model.VoteDown {
		return nil, ErrInvalidVote
	}
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	agg, old, err := s.applyVote(voterID, commentID, requested)
	if err != nil && isDuplicateEntry(err) {
		// 两个"首投"并发撞了唯一索引，输家按已有记录重走一遍状态迁移，
		// 效果等同于两次请求先后到达
		agg, old, err = s.applyVote(voterID, commentID, requested)
	}
	if err != nil {
		return nil, err
	}

	cacheUpdate := map[uint64]repository.VoteCounts{
		commentID: {Upvotes: agg.UpvoteCount, Downvotes: agg.DownvoteCount},
	}
	if err := s.voteRepo.SetCachedCounts(cacheUpdate); err != nil {
		logger.Log.WithError(err).WithField("comment_id", commentID).Warn("投票计数写缓存失败")
	}

	s.publishVoteEvent(comment, voterID, old, agg.ViewerVote)

	return agg, nil
}

// applyVote 在一个事务里完成 读当前票(FOR UPDATE) -> 查迁移表 -> 增/删/改 -> 重新聚合，
// 同一用户对同一评论的并发投票在存储层被行锁串行化
func (s *voteService) applyVote(voterID, commentID uint64, requested model.VoteDirection) (*VoteAggregate, model.VoteDirection, error) {
	var (
		agg VoteAggregate
		old model.VoteDirection
	)
	err := s.uow.Execute(func(repos *data.TransactionalRepositories) error {
		existing, err := repos.VoteRepo.FindByCommentAndVoterForUpdate(commentID, voterID)
		switch {
		case err == nil:
			old = model.VoteDirection(existing.Value)
		case errors.Is(err, gorm.ErrRecordNotFound):
			old = model.VoteNone
		default:
			return err
		}

		next := model.NextVoteState(old, requested)
		switch {
		case next == model.VoteNone:
			// 迁移表保证走到这里old一定不是none，existing一定存在
			if err := repos.VoteRepo.DeleteByID(existing.ID); err != nil {
				return err
			}
		case old == model.VoteNone:
			newVote := &model.Vote{CommentID: commentID, UserID: voterID, Value: int8(next)}
			if err := repos.VoteRepo.Create(newVote); err != nil {
				return err
			}
		default:
			if err := repos.VoteRepo.UpdateValue(existing.ID, int8(next)); err != nil {
				return err
			}
		}

		counts, err := repos.VoteRepo.CountsByCommentIDs([]uint64{commentID})
		if err != nil {
			return err
		}
		agg = VoteAggregate{
			UpvoteCount:   counts[commentID].Upvotes,
			DownvoteCount: counts[commentID].Downvotes,
			ViewerVote:    next,
		}
		return nil
	})
	if err != nil {
		return nil, old, err
	}
	return &agg, old, nil
}

// 投票事件异步投递，失败只记日志：票本身已落库，缺的是积分流水
func (s *voteService) publishVoteEvent(comment *model.Comment, voterID uint64, old, next model.VoteDirection) {
	msg := VoteEventMessage{
		EventID:   uuid.NewString(),
		CommentID: comment.ID,
		TorrentID: comment.TorrentID,
		VoterID:   voterID,
		AuthorID:  comment.UserID,
		Old:       old.Label(),
		New:       next.Label(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Log.WithError(err).Error("投票事件序列化失败")
		return
	}
	if err := s.publisher.Publish(QueueVoteEvent, body); err != nil {
		logger.Log.WithError(err).
			WithField("comment_id", comment.ID).
			WithField("voter_id", voterID).
			Error("投票事件投递失败，该事件的积分结算将缺失")
	}
}
