package repository

import (
	"context"
	"errors"

	"paddock/internal/database"
	"paddock/internal/models"

	"gorm.io/gorm"
)

// ErrReactionExists is returned when a concurrent request already created the
// user's reaction to the post.
var ErrReactionExists = errors.New("reaction already exists")

// ReactionRepository defines persistence operations for reactions.
type ReactionRepository interface {
	Find(ctx context.Context, userID, postID uint) (*models.Reaction, error)
	Create(ctx context.Context, reaction *models.Reaction) error
	UpdateType(ctx context.Context, id uint, rt models.ReactionType) error
	Delete(ctx context.Context, id uint) error
	CountsByPost(ctx context.Context, postIDs []uint) (map[uint]map[models.ReactionType]int64, error)
	UserReactions(ctx context.Context, userID uint, postIDs []uint) (map[uint]models.ReactionType, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository returns a new ReactionRepository implementation.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Find returns the user's reaction to the post, or nil when there is none.
func (r *reactionRepository) Find(ctx context.Context, userID, postID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	if err := r.db.WithContext(ctx).Create(reaction).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrReactionExists
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reactionRepository) UpdateType(ctx context.Context, id uint, rt models.ReactionType) error {
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).Where("id = ?", id).Update("type", rt).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reactionRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Reaction{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CountsByPost returns per-type counts for each post. Every requested post
// gets a full map, zeros included.
func (r *reactionRepository) CountsByPost(ctx context.Context, postIDs []uint) (map[uint]map[models.ReactionType]int64, error) {
	out := make(map[uint]map[models.ReactionType]int64, len(postIDs))
	for _, id := range postIDs {
		out[id] = models.EmptyReactionCounts()
	}
	if len(postIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		PostID uint
		Type   models.ReactionType
		Cnt    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("post_id, type, COUNT(*) AS cnt").
		Where("post_id IN ?", postIDs).
		Group("post_id, type").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.PostID][row.Type] = row.Cnt
	}
	return out, nil
}

// UserReactions maps post ID to the user's reaction type for the given posts.
func (r *reactionRepository) UserReactions(ctx context.Context, userID uint, postIDs []uint) (map[uint]models.ReactionType, error) {
	out := make(map[uint]models.ReactionType)
	if userID == 0 || len(postIDs) == 0 {
		return out, nil
	}

	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, reaction := range reactions {
		out[reaction.PostID] = reaction.Type
	}
	return out, nil
}
