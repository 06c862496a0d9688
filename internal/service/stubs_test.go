package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paddock/internal/models"
	"paddock/internal/notifications"
	"paddock/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createWithPollFn func(context.Context, *models.Post, []string) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	listFn           func(context.Context, repository.FeedFilter) ([]*models.Post, error)
	listByUserFn     func(context.Context, uint) ([]*models.Post, error)
	updateFn         func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
	profileStatsFn   func(context.Context, uint, time.Time) (*repository.ProfileStats, error)
}

func (s *postRepoStub) CreateWithPoll(ctx context.Context, post *models.Post, options []string) error {
	return s.createWithPollFn(ctx, post, options)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.FeedFilter) ([]*models.Post, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ProfileStats(ctx context.Context, userID uint, since time.Time) (*repository.ProfileStats, error) {
	return s.profileStatsFn(ctx, userID, since)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createWithPollFn: func(_ context.Context, p *models.Post, _ []string) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Category: models.CategoryOpinion}, nil
		},
		listFn:       func(_ context.Context, _ repository.FeedFilter) ([]*models.Post, error) { return nil, nil },
		listByUserFn: func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		profileStatsFn: func(_ context.Context, _ uint, _ time.Time) (*repository.ProfileStats, error) {
			return &repository.ProfileStats{CategoryCounts: map[models.Category]int64{}}, nil
		},
	}
}

// reactionRepoStub is a stub for repository.ReactionRepository.
type reactionRepoStub struct {
	findFn          func(context.Context, uint, uint) (*models.Reaction, error)
	createFn        func(context.Context, *models.Reaction) error
	updateTypeFn    func(context.Context, uint, models.ReactionType) error
	deleteFn        func(context.Context, uint) error
	countsByPostFn  func(context.Context, []uint) (map[uint]map[models.ReactionType]int64, error)
	userReactionsFn func(context.Context, uint, []uint) (map[uint]models.ReactionType, error)
}

func (s *reactionRepoStub) Find(ctx context.Context, userID, postID uint) (*models.Reaction, error) {
	return s.findFn(ctx, userID, postID)
}
func (s *reactionRepoStub) Create(ctx context.Context, r *models.Reaction) error {
	return s.createFn(ctx, r)
}
func (s *reactionRepoStub) UpdateType(ctx context.Context, id uint, rt models.ReactionType) error {
	return s.updateTypeFn(ctx, id, rt)
}
func (s *reactionRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *reactionRepoStub) CountsByPost(ctx context.Context, ids []uint) (map[uint]map[models.ReactionType]int64, error) {
	return s.countsByPostFn(ctx, ids)
}
func (s *reactionRepoStub) UserReactions(ctx context.Context, userID uint, ids []uint) (map[uint]models.ReactionType, error) {
	return s.userReactionsFn(ctx, userID, ids)
}

func noopReactionRepo() *reactionRepoStub {
	return &reactionRepoStub{
		findFn:       func(_ context.Context, _, _ uint) (*models.Reaction, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.Reaction) error { return nil },
		updateTypeFn: func(_ context.Context, _ uint, _ models.ReactionType) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		countsByPostFn: func(_ context.Context, _ []uint) (map[uint]map[models.ReactionType]int64, error) {
			return map[uint]map[models.ReactionType]int64{}, nil
		},
		userReactionsFn: func(_ context.Context, _ uint, _ []uint) (map[uint]models.ReactionType, error) {
			return map[uint]models.ReactionType{}, nil
		},
	}
}

// pollRepoStub is a stub for repository.PollRepository.
type pollRepoStub struct {
	getOptionFn         func(context.Context, uint) (*models.PollOption, error)
	hasVotedInPollFn    func(context.Context, uint, uint) (bool, error)
	voteFn              func(context.Context, *models.PollVote) error
	votedPollIDsFn      func(context.Context, uint, []uint) (map[uint]uint, error)
	enrichWithResultsFn func(context.Context, []*models.Poll, uint) error
}

func (s *pollRepoStub) GetOption(ctx context.Context, id uint) (*models.PollOption, error) {
	return s.getOptionFn(ctx, id)
}
func (s *pollRepoStub) HasVotedInPoll(ctx context.Context, userID, pollID uint) (bool, error) {
	return s.hasVotedInPollFn(ctx, userID, pollID)
}
func (s *pollRepoStub) Vote(ctx context.Context, v *models.PollVote) error {
	return s.voteFn(ctx, v)
}
func (s *pollRepoStub) VotedPollIDs(ctx context.Context, userID uint, ids []uint) (map[uint]uint, error) {
	return s.votedPollIDsFn(ctx, userID, ids)
}
func (s *pollRepoStub) EnrichWithResults(ctx context.Context, polls []*models.Poll, userID uint) error {
	return s.enrichWithResultsFn(ctx, polls, userID)
}

func noopPollRepo() *pollRepoStub {
	return &pollRepoStub{
		getOptionFn: func(_ context.Context, id uint) (*models.PollOption, error) {
			return &models.PollOption{ID: id, PollID: 1}, nil
		},
		hasVotedInPollFn:    func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		voteFn:              func(_ context.Context, _ *models.PollVote) error { return nil },
		votedPollIDsFn:      func(_ context.Context, _ uint, _ []uint) (map[uint]uint, error) { return map[uint]uint{}, nil },
		enrichWithResultsFn: func(_ context.Context, _ []*models.Poll, _ uint) error { return nil },
	}
}

// publisherStub records published feed events.
type publisherStub struct {
	mu     sync.Mutex
	events []notifications.FeedEvent
	err    error
}

func (p *publisherStub) PublishFeedEvent(_ context.Context, e notifications.FeedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *publisherStub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR
// and returns its field errors.
func assertValidationError(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "expected NOT_FOUND, got %v", err)
}

func uintPtr(v uint) *uint { return &v }
