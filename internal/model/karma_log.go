package model

// KarmaLog 积分流水，(event_id, user_id)联合唯一：
// 同一事件可能同时调整作者和投票人两个账户，但对单个账户只结算一次
type KarmaLog struct {
	BaseModel
	EventID string `gorm:"size:36;uniqueIndex:idx_event_user;not null"`
	UserID  uint64 `gorm:"uniqueIndex:idx_event_user;not null"`
	Delta   int    `gorm:"not null"`
	Reason  string `gorm:"size:64;not null"`
}

func (KarmaLog) TableName() string {
	return "karma_logs"
}

// 积分结算原因
const (
	KarmaReasonVoteReceived = "vote_received" // 作者账户，被赞/被踩
	KarmaReasonVoteCast     = "vote_cast"     // 投票人账户，投反对票的代价
)

// 单个投票状态对两个账户的积分贡献：
// 赞给作者+1；踩给作者-3，投票人自己也-1
func voteKarmaContribution(d VoteDirection) (author, voter int) {
	switch d {
	case VoteUp:
		return 1, 0
	case VoteDown:
		return -3, -1
	default:
		return 0, 0
	}
}

// KarmaDeltasForVoteChange 投票从old变为next时两个账户的净调整。
// 贡献差刚好覆盖撤销和改票，不需要枚举所有迁移组合
func KarmaDeltasForVoteChange(old, next VoteDirection) (authorDelta, voterDelta int) {
	oldAuthor, oldVoter := voteKarmaContribution(old)
	nextAuthor, nextVoter := voteKarmaContribution(next)
	return nextAuthor - oldAuthor, nextVoter - oldVoter
}
