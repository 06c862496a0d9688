package repository

import (
	"context"

	"paddock/internal/database"
	"paddock/internal/models"

	"gorm.io/gorm"
)

// PollRepository defines persistence operations for polls and votes.
type PollRepository interface {
	GetOption(ctx context.Context, optionID uint) (*models.PollOption, error)
	HasVotedInPoll(ctx context.Context, userID, pollID uint) (bool, error)
	Vote(ctx context.Context, vote *models.PollVote) error
	VotedPollIDs(ctx context.Context, userID uint, pollIDs []uint) (map[uint]uint, error)
	EnrichWithResults(ctx context.Context, polls []*models.Poll, userID uint) error
}

type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository returns a new PollRepository implementation.
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) GetOption(ctx context.Context, optionID uint) (*models.PollOption, error) {
	var option models.PollOption
	if err := r.db.WithContext(ctx).First(&option, optionID).Error; err != nil {
		return nil, notFoundOr(err, "Poll option", optionID)
	}
	return &option, nil
}

func (r *pollRepository) HasVotedInPoll(ctx context.Context, userID, pollID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PollVote{}).
		Where("user_id = ? AND poll_id = ?", userID, pollID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Vote records the vote. The unique indexes turn a second vote in the same
// poll into ErrAlreadyVoted even under concurrent requests.
func (r *pollRepository) Vote(ctx context.Context, vote *models.PollVote) error {
	if err := r.db.WithContext(ctx).Omit("Option").Create(vote).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.ErrAlreadyVoted
		}
		return models.NewInternalError(err)
	}
	return nil
}

// VotedPollIDs maps poll ID to the option the user picked, for the polls the
// user has voted in.
func (r *pollRepository) VotedPollIDs(ctx context.Context, userID uint, pollIDs []uint) (map[uint]uint, error) {
	out := make(map[uint]uint)
	if userID == 0 || len(pollIDs) == 0 {
		return out, nil
	}

	var votes []models.PollVote
	err := r.db.WithContext(ctx).
		Select("poll_id, option_id").
		Where("user_id = ? AND poll_id IN ?", userID, pollIDs).
		Find(&votes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, v := range votes {
		out[v.PollID] = v.OptionID
	}
	return out, nil
}

// EnrichWithResults fills vote counts, percentages, totals and the viewer's
// vote on each poll. userID 0 is an anonymous viewer.
func (r *pollRepository) EnrichWithResults(ctx context.Context, polls []*models.Poll, userID uint) error {
	if len(polls) == 0 {
		return nil
	}

	pollIDs := make([]uint, 0, len(polls))
	for _, p := range polls {
		pollIDs = append(pollIDs, p.ID)
	}

	var rows []struct {
		OptionID uint
		Cnt      int64
	}
	err := r.db.WithContext(ctx).Model(&models.PollVote{}).
		Select("option_id, COUNT(*) AS cnt").
		Where("poll_id IN ?", pollIDs).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Cnt
	}

	voted, err := r.VotedPollIDs(ctx, userID, pollIDs)
	if err != nil {
		return err
	}

	for _, p := range polls {
		p.ApplyResults(counts)
		if optionID, ok := voted[p.ID]; ok {
			p.HasVoted = true
			id := optionID
			p.VotedOptionID = &id
		} else {
			p.HasVoted = false
			p.VotedOptionID = nil
		}
	}
	return nil
}
