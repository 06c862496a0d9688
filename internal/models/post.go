package models

import "time"

// Category classifies a post.
type Category string

const (
	CategoryRaceUpdate Category = "race_update"
	CategoryNews       Category = "news"
	CategoryOpinion    Category = "opinion"
	CategoryMeme       Category = "meme"
	CategoryPoll       Category = "poll"
)

// DefaultCategory is applied when a form omits the category.
const DefaultCategory = CategoryOpinion

// MaxPostTextLength is the maximum post length in characters.
const MaxPostTextLength = 240

var categoryLabels = map[Category]string{
	CategoryRaceUpdate: "Race Update",
	CategoryNews:       "Breaking News",
	CategoryOpinion:    "Opinion",
	CategoryMeme:       "Meme",
	CategoryPoll:       "Poll",
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryRaceUpdate, CategoryNews, CategoryOpinion, CategoryMeme, CategoryPoll}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable name of the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Choice is a value/label pair rendered into select inputs.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CategoryChoices returns the category select options.
func CategoryChoices() []Choice {
	out := make([]Choice, 0, len(categoryLabels))
	for _, c := range Categories() {
		out = append(out, Choice{Value: string(c), Label: c.Label()})
	}
	return out
}

// Post is a short message, optionally tagged with a team and a driver.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	UserID   uint     `gorm:"not null;index" json:"user_id"`
	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Text     string   `gorm:"size:240;not null" json:"text"`
	Photo    string   `gorm:"size:255" json:"photo,omitempty"`
	Category Category `gorm:"size:20;not null;default:opinion;index" json:"category"`
	TeamID   *uint    `gorm:"index" json:"team_id,omitempty"`
	Team     *Team    `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL" json:"team,omitempty"`
	DriverID *uint    `gorm:"index" json:"driver_id,omitempty"`
	Driver   *Driver  `gorm:"foreignKey:DriverID;constraint:OnDelete:SET NULL" json:"driver,omitempty"`
	Poll     *Poll    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"poll,omitempty"`

	// Computed at query time, never persisted.
	PhotoURL       string                 `gorm:"-" json:"photo_url,omitempty"`
	CategoryLabel  string                 `gorm:"-" json:"category_label"`
	ReactionCounts map[ReactionType]int64 `gorm:"-" json:"reaction_counts"`
	TotalReactions int64                  `gorm:"-" json:"total_reactions"`
	MyReaction     ReactionType           `gorm:"-" json:"my_reaction,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPoll reports whether the post carries a poll.
func (p *Post) IsPoll() bool {
	return p.Category == CategoryPoll
}
