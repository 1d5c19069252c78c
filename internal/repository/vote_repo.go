package repository

import (
	"context"
	"strconv"

	"Vega_PT/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	keyCommentUpvoteHash   = "comment:upvote_counts"
	keyCommentDownvoteHash = "comment:downvote_counts"
)

// VoteCounts 单条评论的票数统计
type VoteCounts struct {
	Upvotes   int
	Downvotes int
}

type VoteRepository interface {
	Create(vote *model.Vote) error
	// 查某用户对某评论的投票记录，没有则返回gorm.ErrRecordNotFound
	FindByCommentAndVoter(commentID, voterID uint64) (*model.Vote, error)
	// 带排他锁的查找，同一用户对同一评论的并发改票在存储层串行化
	FindByCommentAndVoterForUpdate(commentID, voterID uint64) (*model.Vote, error)
	UpdateValue(voteID uint64, value int8) error
	DeleteByID(voteID uint64) error

	// 批量查某用户在一批评论上的投票
	ListByVoterForComments(voterID uint64, commentIDs []uint64) ([]model.Vote, error)
	// 从MySQL聚合一批评论的赞/踩计数，没有投票记录的评论不会出现在结果里
	CountsByCommentIDs(commentIDs []uint64) (map[uint64]VoteCounts, error)

	// Redis计数缓存，两个哈希表分别存赞和踩，field是commentID
	GetCachedCounts(commentIDs []uint64) (map[uint64]VoteCounts, []uint64, error)
	SetCachedCounts(counts map[uint64]VoteCounts) error

	WithTx(tx *gorm.DB) VoteRepository
}

type voteRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewVoteRepository(db *gorm.DB, rdb *redis.Client) VoteRepository {
	return &voteRepository{
		db:  db,
		rdb: rdb,
	}
}

func (r *voteRepository) WithTx(tx *gorm.DB) VoteRepository {
	return &voteRepository{
		db:  tx,
		rdb: r.rdb,
	}
}

func (r *voteRepository) Create(vote *model.Vote) error {
	return r.db.Create(vote).Error
}

func (r *voteRepository) FindByCommentAndVoter(commentID, voterID uint64) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.Where("comment_id = ? AND user_id = ?", commentID, voterID).First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// SELECT ... FOR UPDATE，锁的生命周期与包裹它的事务绑定
func (r *voteRepository) FindByCommentAndVoterForUpdate(commentID, voterID uint64) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("comment_id = ? AND user_id = ?", commentID, voterID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) UpdateValue(voteID uint64, value int8) error {
	return r.db.Model(&model.Vote{}).Where("id = ?", voteID).UpdateColumn("value", value).Error
}

func (r *voteRepository) DeleteByID(voteID uint64) error {
	// 撤票是物理删除，软删除会撞联合唯一索引
	return r.db.Unscoped().Delete(&model.Vote{}, voteID).Error
}

func (r *voteRepository) ListByVoterForComments(voterID uint64, commentIDs []uint64) ([]model.Vote, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var votes []model.Vote
	err := r.db.
		Where("user_id = ? AND comment_id IN (?)", voterID, commentIDs).
		Find(&votes).Error
	return votes, err
}

// 一条GROUP BY把整批评论的赞/踩数查出来
func (r *voteRepository) CountsByCommentIDs(commentIDs []uint64) (map[uint64]VoteCounts, error) {
	result := make(map[uint64]VoteCounts, len(commentIDs))
	if len(commentIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		CommentID uint64
		Ups       int
		Downs     int
	}
	err := r.db.Model(&model.Vote{}).
		Select("comment_id, SUM(value = 1) AS ups, SUM(value = -1) AS downs").
		Where("comment_id IN (?)", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.CommentID] = VoteCounts{Upvotes: row.Ups, Downvotes: row.Downs}
	}
	return result, nil
}

// 批量读计数缓存，返回命中的计数和未命中的commentID列表；
// 赞和踩总是成对写入，任一哈希缺field就按未命中处理
func (r *voteRepository) GetCachedCounts(commentIDs []uint64) (map[uint64]VoteCounts, []uint64, error) {
	hit := make(map[uint64]VoteCounts, len(commentIDs))
	if len(commentIDs) == 0 {
		return hit, nil, nil
	}

	fields := make([]string, len(commentIDs))
	for i, id := range commentIDs {
		fields[i] = strconv.FormatUint(id, 10)
	}

	pipe := r.rdb.Pipeline()
	upCmd := pipe.HMGet(context.Background(), keyCommentUpvoteHash, fields...)
	downCmd := pipe.HMGet(context.Background(), keyCommentDownvoteHash, fields...)
	if _, err := pipe.Exec(context.Background()); err != nil {
		return nil, nil, err
	}

	ups := upCmd.Val()
	downs := downCmd.Val()
	var missing []uint64
	for i, id := range commentIDs {
		upStr, upOK := ups[i].(string)
		downStr, downOK := downs[i].(string)
		if !upOK || !downOK {
			missing = append(missing, id)
			continue
		}
		up, err1 := strconv.Atoi(upStr)
		down, err2 := strconv.Atoi(downStr)
		if err1 != nil || err2 != nil {
			missing = append(missing, id)
			continue
		}
		hit[id] = VoteCounts{Upvotes: up, Downvotes: down}
	}
	return hit, missing, nil
}

// 以MySQL聚合结果为准整体覆盖写入，不做增量，避免与写路径竞争时计数漂移
func (r *voteRepository) SetCachedCounts(counts map[uint64]VoteCounts) error {
	if len(counts) == 0 {
		return nil
	}
	pipe := r.rdb.Pipeline()
	for id, c := range counts {
		field := strconv.FormatUint(id, 10)
		pipe.HSet(context.Background(), keyCommentUpvoteHash, field, c.Upvotes)
		pipe.HSet(context.Background(), keyCommentDownvoteHash, field, c.Downvotes)
	}
	_, err := pipe.Exec(context.Background())
	return err
}
