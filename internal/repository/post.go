package repository

import (
	"context"
	"errors"
	"time"

	"paddock/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedFilter narrows the feed. Nil fields are not applied.
type FeedFilter struct {
	Category *models.Category
	TeamID   *uint
	DriverID *uint
}

// ProfileStats aggregates a user's posting history.
type ProfileStats struct {
	TotalPosts     int64
	TotalPolls     int64
	TotalReactions int64
	FavoriteTeam   string
	FavoriteDriver string
	CategoryCounts map[models.Category]int64
	RecentPosts    int64
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreateWithPoll(ctx context.Context, post *models.Post, options []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter FeedFilter) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	ProfileStats(ctx context.Context, userID uint, since time.Time) (*ProfileStats, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// CreateWithPoll writes the post and, for poll posts, its poll and options
// in one transaction. Options keep their submission order.
func (r *postRepository) CreateWithPoll(ctx context.Context, post *models.Post, options []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if post.Category != models.CategoryPoll {
			return nil
		}

		poll := &models.Poll{PostID: post.ID}
		for i, text := range options {
			poll.Options = append(poll.Options, models.PollOption{Text: text, Position: i})
		}
		if err := tx.Create(poll).Error; err != nil {
			return err
		}
		post.Poll = poll
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func withPostDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Team").
		Preload("Driver").
		Preload("Poll").
		Preload("Poll.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		})
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withPostDetails(readDB(r.db).WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter FeedFilter) ([]*models.Post, error) {
	q := withPostDetails(readDB(r.db).WithContext(ctx))
	if filter.Category != nil {
		q = q.Where("posts.category = ?", *filter.Category)
	}
	if filter.TeamID != nil {
		q = q.Where("posts.team_id = ?", *filter.TeamID)
	}
	if filter.DriverID != nil {
		q = q.Where("posts.driver_id = ?", *filter.DriverID)
	}

	var posts []*models.Post
	if err := newestFirst(q).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := newestFirst(withPostDetails(readDB(r.db).WithContext(ctx))).
		Where("posts.user_id = ?", userID).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update saves the editable fields. When the post is no longer a poll its
// poll, options and votes are removed in the same transaction.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
			"text":       post.Text,
			"category":   post.Category,
			"team_id":    post.TeamID,
			"driver_id":  post.DriverID,
			"photo":      post.Photo,
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", post.ID)
		}
		if post.Category != models.CategoryPoll {
			if err := deletePollsTx(tx, post.ID); err != nil {
				return err
			}
			post.Poll = nil
		}
		return nil
	})
	return wrapTxError(err)
}

// Delete removes the post with its votes, options, poll and reactions.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePollsTx(tx, id); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	return wrapTxError(err)
}

func deletePollsTx(tx *gorm.DB, postID uint) error {
	var pollIDs []uint
	if err := tx.Model(&models.Poll{}).Where("post_id = ?", postID).Pluck("id", &pollIDs).Error; err != nil {
		return err
	}
	if len(pollIDs) == 0 {
		return nil
	}
	if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollVote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollOption{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", pollIDs).Delete(&models.Poll{}).Error
}

func wrapTxError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

type nameCount struct {
	Name string
	Cnt  int64
}

// ProfileStats computes the profile statistics for userID. Favourites are the
// team and driver tagged most often, ties broken by name.
func (r *postRepository) ProfileStats(ctx context.Context, userID uint, since time.Time) (*ProfileStats, error) {
	db := readDB(r.db).WithContext(ctx)
	stats := &ProfileStats{CategoryCounts: make(map[models.Category]int64)}

	var byCategory []struct {
		Category models.Category
		Cnt      int64
	}
	if err := db.Model(&models.Post{}).
		Select("category, COUNT(*) AS cnt").
		Where("user_id = ?", userID).
		Group("category").
		Scan(&byCategory).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range byCategory {
		stats.CategoryCounts[row.Category] = row.Cnt
		stats.TotalPosts += row.Cnt
	}
	stats.TotalPolls = stats.CategoryCounts[models.CategoryPoll]

	if err := db.Model(&models.Reaction{}).
		Joins("JOIN posts ON posts.id = reactions.post_id").
		Where("posts.user_id = ?", userID).
		Count(&stats.TotalReactions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	var team nameCount
	if err := db.Table("posts").
		Select("teams.name AS name, COUNT(*) AS cnt").
		Joins("JOIN teams ON teams.id = posts.team_id").
		Where("posts.user_id = ?", userID).
		Group("teams.id, teams.name").
		Order("cnt DESC").Order("teams.name ASC").
		Limit(1).
		Scan(&team).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stats.FavoriteTeam = team.Name

	var driver nameCount
	if err := db.Table("posts").
		Select("drivers.name AS name, COUNT(*) AS cnt").
		Joins("JOIN drivers ON drivers.id = posts.driver_id").
		Where("posts.user_id = ?", userID).
		Group("drivers.id, drivers.name").
		Order("cnt DESC").Order("drivers.name ASC").
		Limit(1).
		Scan(&driver).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stats.FavoriteDriver = driver.Name

	if err := db.Model(&models.Post{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&stats.RecentPosts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return stats, nil
}
