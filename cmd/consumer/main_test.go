package main

import (
	"testing"

	"Vega_PT/internal/model"
	"Vega_PT/internal/service"
)

func TestKarmaAdjustmentsFor(t *testing.T) {
	t.Parallel()

	msg := service.VoteEventMessage{AuthorID: 2, VoterID: 3}

	// 赞只动作者
	adjustments := karmaAdjustmentsFor(msg, 1, 0)
	if len(adjustments) != 1 {
		t.Fatalf("len(adjustments) = %d, want 1", len(adjustments))
	}
	if adjustments[0].userID != 2 || adjustments[0].delta != 1 || adjustments[0].reason != model.KarmaReasonVoteReceived {
		t.Errorf("adjustment = %+v, want author +1 vote_received", adjustments[0])
	}

	// 踩动两个账户
	adjustments = karmaAdjustmentsFor(msg, -3, -1)
	if len(adjustments) != 2 {
		t.Fatalf("len(adjustments) = %d, want 2", len(adjustments))
	}
	if adjustments[0].userID != 2 || adjustments[0].delta != -3 {
		t.Errorf("author adjustment = %+v, want (2, -3)", adjustments[0])
	}
	if adjustments[1].userID != 3 || adjustments[1].delta != -1 || adjustments[1].reason != model.KarmaReasonVoteCast {
		t.Errorf("voter adjustment = %+v, want (3, -1, vote_cast)", adjustments[1])
	}

	// 状态没变不动账
	if got := karmaAdjustmentsFor(msg, 0, 0); len(got) != 0 {
		t.Errorf("no-op adjustments = %d, want 0", len(got))
	}
}

func TestKarmaAdjustmentsForSelfVote(t *testing.T) {
	t.Parallel()

	// 自己踩自己的评论：作者-3和投票人-1合并成一条-4的流水，
	// 否则同一(event_id, user_id)插两行会撞唯一索引
	self := service.VoteEventMessage{AuthorID: 2, VoterID: 2}
	adjustments := karmaAdjustmentsFor(self, -3, -1)
	if len(adjustments) != 1 {
		t.Fatalf("len(adjustments) = %d, want 1", len(adjustments))
	}
	if adjustments[0].userID != 2 || adjustments[0].delta != -4 {
		t.Errorf("merged adjustment = %+v, want (2, -4)", adjustments[0])
	}
}
