package service

import (
	"context"
	"time"

	"paddock/internal/models"
	"paddock/internal/repository"

	"github.com/dustin/go-humanize"
)

const (
	noFavorite     = "None yet"
	recentActivity = 7 * 24 * time.Hour
)

// CategoryCount is one row of the profile's post breakdown.
type CategoryCount struct {
	Category models.Category `json:"category"`
	Label    string          `json:"label"`
	Count    int64           `json:"count"`
}

// Profile is a user's page with their posts and posting statistics.
type Profile struct {
	User            *models.User    `json:"profile_user"`
	Posts           []*models.Post  `json:"posts"`
	TotalPosts      int64           `json:"total_posts"`
	TotalPolls      int64           `json:"total_polls"`
	TotalReactions  int64           `json:"total_reactions"`
	FavoriteTeam    string          `json:"favorite_team"`
	FavoriteDriver  string          `json:"favorite_driver"`
	PostBreakdown   []CategoryCount `json:"post_breakdown"`
	RecentActivity  int64           `json:"recent_activity"`
	MemberSince     time.Time       `json:"member_since"`
	MemberSinceText string          `json:"member_since_text"`
}

type ProfileService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	posts    *PostService
	now      func() time.Time
}

func NewProfileService(userRepo repository.UserRepository, postRepo repository.PostRepository, posts *PostService) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		postRepo: postRepo,
		posts:    posts,
		now:      time.Now,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, username string, viewerID uint) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByUser(ctx, user.ID, viewerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats, err := s.postRepo.ProfileStats(ctx, user.ID, now.Add(-recentActivity))
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		User:            user,
		Posts:           posts,
		TotalPosts:      stats.TotalPosts,
		TotalPolls:      stats.TotalPolls,
		TotalReactions:  stats.TotalReactions,
		FavoriteTeam:    orNone(stats.FavoriteTeam),
		FavoriteDriver:  orNone(stats.FavoriteDriver),
		RecentActivity:  stats.RecentPosts,
		MemberSince:     user.CreatedAt,
		MemberSinceText: humanize.RelTime(user.CreatedAt, now, "ago", "from now"),
	}
	for _, c := range models.Categories() {
		profile.PostBreakdown = append(profile.PostBreakdown, CategoryCount{
			Category: c,
			Label:    c.Label(),
			Count:    stats.CategoryCounts[c],
		})
	}
	return profile, nil
}

func orNone(name string) string {
	if name == "" {
		return noFavorite
	}
	return name
}
