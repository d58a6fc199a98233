package models

import (
	"gorm.io/datatypes"
)

// Poll holds its option labels and the aggregated counts side by side; the
// counts slice always has the same length as the options slice and only
// moves when a PollVote insert succeeds.
type Poll struct {
	BaseModel

	Question  string                      `json:"question"`
	Options   datatypes.JSONSlice[string] `json:"options"`
	Counts    datatypes.JSONSlice[int64]  `json:"counts"`
	IsClosed  bool                        `json:"is_closed"`
	AccountID uint                        `json:"account_id"`
	Account   Account                     `json:"account"`

	Votes []PollVote `json:"votes" gorm:"foreignKey:PollID"`
}

// PollVote is the vote ledger. The composite unique index is the actual
// double-vote guard; application-level pre-checks are only a shortcut.
type PollVote struct {
	BaseModel

	PollID      uint `json:"poll_id" gorm:"uniqueIndex:idx_poll_votes_poll_account"`
	AccountID   uint `json:"account_id" gorm:"uniqueIndex:idx_poll_votes_poll_account"`
	OptionIndex int  `json:"option_index"`
}

// PollSummary is the broadcast- and snapshot-safe projection of a poll,
// stripped of anything caller specific.
type PollSummary struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Counts   []int64  `json:"counts"`
	IsClosed bool     `json:"is_closed"`
}

// PollView is the per-caller projection: a summary plus the viewer's own
// vote, so the client can lock its ballot locally.
type PollView struct {
	PollSummary

	OwnVote *int `json:"own_vote"`
}

func (p Poll) Summary() PollSummary {
	return PollSummary{
		ID:       p.ID,
		Question: p.Question,
		Options:  []string(p.Options),
		Counts:   []int64(p.Counts),
		IsClosed: p.IsClosed,
	}
}
