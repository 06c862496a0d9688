package models

import "time"

// MaxPollOptions is the number of option inputs offered by the create form.
const MaxPollOptions = 4

// MaxPollOptionLength bounds a single option's text.
const MaxPollOptionLength = 100

// Poll belongs to exactly one post of category poll.
type Poll struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex" json:"post_id"`
	Options   []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options"`
	CreatedAt time.Time    `json:"created_at"`

	// Computed per viewer.
	TotalVotes    int64 `gorm:"-" json:"total_votes"`
	HasVoted      bool  `gorm:"-" json:"has_voted"`
	VotedOptionID *uint `gorm:"-" json:"voted_option_id,omitempty"`
}

// PollOption is one answer of a poll, kept in submission order.
type PollOption struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PollID   uint   `gorm:"not null;index" json:"poll_id"`
	Text     string `gorm:"size:255;not null" json:"text"`
	Position int    `gorm:"not null;default:0" json:"position"`

	VotesCount  int64 `gorm:"-" json:"votes_count"`
	VotePercent int   `gorm:"-" json:"vote_percent"`
}

// PollVote is a user's single vote in a poll. PollID is denormalised from the
// option so the storage layer can enforce one vote per user per poll.
type PollVote struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_poll_votes_user_option;uniqueIndex:idx_poll_votes_user_poll" json:"user_id"`
	OptionID  uint       `gorm:"not null;uniqueIndex:idx_poll_votes_user_option;index" json:"option_id"`
	PollID    uint       `gorm:"not null;uniqueIndex:idx_poll_votes_user_poll;index" json:"poll_id"`
	Option    PollOption `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// ApplyResults fills per-option counts and integer percentages.
// Percentages are 0 when the poll has no votes.
func (p *Poll) ApplyResults(counts map[uint]int64) {
	var total int64
	for i := range p.Options {
		p.Options[i].VotesCount = counts[p.Options[i].ID]
		total += p.Options[i].VotesCount
	}
	p.TotalVotes = total
	for i := range p.Options {
		if total == 0 {
			p.Options[i].VotePercent = 0
			continue
		}
		p.Options[i].VotePercent = int(p.Options[i].VotesCount * 100 / total)
	}
}
