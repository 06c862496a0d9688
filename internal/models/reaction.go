package models

import "time"

// ReactionType is one of the fixed motorsport reactions.
type ReactionType string

const (
	ReactionFastestLap   ReactionType = "fastest_lap"
	ReactionPush         ReactionType = "push"
	ReactionTeamOrders   ReactionType = "team_orders"
	ReactionChampionMove ReactionType = "champion_move"
)

var reactionLabels = map[ReactionType]string{
	ReactionFastestLap:   "🔥 Fastest Lap",
	ReactionPush:         "🏎️ Push Push",
	ReactionTeamOrders:   "😤 Team Orders",
	ReactionChampionMove: "🏆 Champion Move",
}

// ReactionTypes returns every reaction type in display order.
func ReactionTypes() []ReactionType {
	return []ReactionType{ReactionFastestLap, ReactionPush, ReactionTeamOrders, ReactionChampionMove}
}

// Valid reports whether r is a known reaction type.
func (r ReactionType) Valid() bool {
	_, ok := reactionLabels[r]
	return ok
}

// Label returns the display label, emoji included.
func (r ReactionType) Label() string {
	return reactionLabels[r]
}

// ReactionChoices returns the reaction buttons in display order.
func ReactionChoices() []Choice {
	out := make([]Choice, 0, len(reactionLabels))
	for _, r := range ReactionTypes() {
		out = append(out, Choice{Value: string(r), Label: r.Label()})
	}
	return out
}

// EmptyReactionCounts returns a count map with every reaction type at zero.
func EmptyReactionCounts() map[ReactionType]int64 {
	counts := make(map[ReactionType]int64, len(reactionLabels))
	for _, r := range ReactionTypes() {
		counts[r] = 0
	}
	return counts
}

// Reaction records one user's reaction to one post. A user holds at most
// one reaction per post.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reactions_user_post" json:"user_id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reactions_user_post;index" json:"post_id"`
	Type      ReactionType `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}
