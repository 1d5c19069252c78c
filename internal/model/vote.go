package model

// VoteDirection 投票状态三值：未投、赞成、反对
type VoteDirection int8

const (
	VoteNone VoteDirection = 0
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

// voteTransitions 状态迁移表：同方向重复投票即撤销，反方向即改票
var voteTransitions = map[[2]VoteDirection]VoteDirection{
	{VoteNone, VoteUp}:   VoteUp,
	{VoteNone, VoteDown}: VoteDown,
	{VoteUp, VoteUp}:     VoteNone,
	{VoteUp, VoteDown}:   VoteDown,
	{VoteDown, VoteUp}:   VoteUp,
	{VoteDown, VoteDown}: VoteNone,
}

// NextVoteState 查表得到目标状态，requested必须是VoteUp或VoteDown
func NextVoteState(current, requested VoteDirection) VoteDirection {
	next, ok := voteTransitions[[2]VoteDirection{current, requested}]
	if !ok {
		return current
	}
	return next
}

// ParseVoteDirection 只接受协议里的"up"/"down"两个取值
func ParseVoteDirection(s string) (VoteDirection, bool) {
	switch s {
	case "up":
		return VoteUp, true
	case "down":
		return VoteDown, true
	}
	return VoteNone, false
}

// Label 序列化用的文本形式，VoteNone输出"none"
func (d VoteDirection) Label() string {
	switch d {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	}
	return "none"
}

// VoteDirectionFromLabel 是Label的逆映射，事件消费端还原状态用，
// 和ParseVoteDirection的区别是接受"none"
func VoteDirectionFromLabel(label string) (VoteDirection, bool) {
	switch label {
	case "none":
		return VoteNone, true
	case "up":
		return VoteUp, true
	case "down":
		return VoteDown, true
	}
	return VoteNone, false
}

// 用户与评论的投票关系，联合唯一索引保证一人对一条评论至多一票
type Vote struct {
	BaseModel
	CommentID uint64 `gorm:"not null;uniqueIndex:idx_comment_voter"`
	UserID    uint64 `gorm:"not null;uniqueIndex:idx_comment_voter"`
	Value     int8   `gorm:"not null"` // 1赞成，-1反对，撤销即删行
}

func (Vote) TableName() string {
	return "votes"
}
