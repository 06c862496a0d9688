package service

import (
	"context"
	"errors"
	"log/slog"

	"paddock/internal/middleware"
	"paddock/internal/models"
	"paddock/internal/notifications"
	"paddock/internal/observability"
	"paddock/internal/repository"
)

type PollService struct {
	pollRepo  repository.PollRepository
	publisher FeedPublisher
}

func NewPollService(pollRepo repository.PollRepository, publisher FeedPublisher) *PollService {
	return &PollService{pollRepo: pollRepo, publisher: publisher}
}

// Vote records the user's vote for optionID. A user votes once per poll; a
// second vote anywhere in the same poll returns models.ErrAlreadyVoted and
// changes nothing.
func (s *PollService) Vote(ctx context.Context, userID, optionID uint) (*models.PollVote, error) {
	option, err := s.pollRepo.GetOption(ctx, optionID)
	if err != nil {
		return nil, err
	}

	voted, err := s.pollRepo.HasVotedInPoll(ctx, userID, option.PollID)
	if err != nil {
		return nil, err
	}
	if voted {
		observability.PollVotes.WithLabelValues("duplicate").Inc()
		return nil, models.ErrAlreadyVoted
	}

	vote := &models.PollVote{UserID: userID, OptionID: option.ID, PollID: option.PollID}
	if err := s.pollRepo.Vote(ctx, vote); err != nil {
		if errors.Is(err, models.ErrAlreadyVoted) {
			observability.PollVotes.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	observability.PollVotes.WithLabelValues("accepted").Inc()
	middleware.Logger.InfoContext(ctx, "poll vote recorded",
		slog.Uint64("poll_id", uint64(option.PollID)),
		slog.Uint64("option_id", uint64(option.ID)),
	)
	publishFeedEvent(ctx, s.publisher, notifications.FeedEvent{
		Type:    notifications.EventPollVoted,
		UserID:  userID,
		Payload: map[string]any{"poll_id": option.PollID, "option_id": option.ID},
	})
	return vote, nil
}
