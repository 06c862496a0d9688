package service

import (
	"context"
	"errors"

	"paddock/internal/models"
	"paddock/internal/notifications"
	"paddock/internal/observability"
	"paddock/internal/repository"
)

// ReactionAction is what a toggle did to the user's reaction.
type ReactionAction string

const (
	ReactionCreated ReactionAction = "created"
	ReactionUpdated ReactionAction = "updated"
	ReactionRemoved ReactionAction = "removed"
)

// ReactionResult is the state of the post after a toggle.
type ReactionResult struct {
	PostID uint                          `json:"post_id"`
	Action ReactionAction                `json:"action"`
	Type   models.ReactionType           `json:"type,omitempty"`
	Counts map[models.ReactionType]int64 `json:"counts"`
	Total  int64                         `json:"total"`
}

type ReactionService struct {
	postRepo     repository.PostRepository
	reactionRepo repository.ReactionRepository
	publisher    FeedPublisher
}

func NewReactionService(
	postRepo repository.PostRepository,
	reactionRepo repository.ReactionRepository,
	publisher FeedPublisher,
) *ReactionService {
	return &ReactionService{
		postRepo:     postRepo,
		reactionRepo: reactionRepo,
		publisher:    publisher,
	}
}

// React toggles the user's reaction on a post. Reacting with the current type
// removes it, a different type replaces it, and no reaction creates one.
func (s *ReactionService) React(ctx context.Context, userID, postID uint, reactionType string) (*ReactionResult, error) {
	rt := models.ReactionType(reactionType)
	if !rt.Valid() {
		return nil, models.NewNotFoundError("Reaction type", reactionType)
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	result := &ReactionResult{PostID: postID}
	// A concurrent first reaction can win the insert; the retry then sees it.
	for attempt := 0; attempt < 2; attempt++ {
		action, err := s.toggle(ctx, userID, postID, rt)
		if errors.Is(err, repository.ErrReactionExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Action = action
		break
	}
	if result.Action == "" {
		return nil, models.NewInternalError(repository.ErrReactionExists)
	}
	if result.Action != ReactionRemoved {
		result.Type = rt
	}

	counts, err := s.reactionRepo.CountsByPost(ctx, []uint{postID})
	if err != nil {
		return nil, err
	}
	result.Counts = counts[postID]
	if result.Counts == nil {
		result.Counts = models.EmptyReactionCounts()
	}
	for _, n := range result.Counts {
		result.Total += n
	}

	observability.Reactions.WithLabelValues(string(result.Action)).Inc()
	publishFeedEvent(ctx, s.publisher, notifications.FeedEvent{
		Type:   notifications.EventReactionChanged,
		PostID: postID,
		UserID: userID,
		Payload: map[string]any{
			"action": result.Action,
			"counts": result.Counts,
		},
	})
	return result, nil
}

func (s *ReactionService) toggle(ctx context.Context, userID, postID uint, rt models.ReactionType) (ReactionAction, error) {
	existing, err := s.reactionRepo.Find(ctx, userID, postID)
	if err != nil {
		return "", err
	}
	switch {
	case existing == nil:
		if err := s.reactionRepo.Create(ctx, &models.Reaction{UserID: userID, PostID: postID, Type: rt}); err != nil {
			return "", err
		}
		return ReactionCreated, nil
	case existing.Type == rt:
		if err := s.reactionRepo.Delete(ctx, existing.ID); err != nil {
			return "", err
		}
		return ReactionRemoved, nil
	default:
		if err := s.reactionRepo.UpdateType(ctx, existing.ID, rt); err != nil {
			return "", err
		}
		return ReactionUpdated, nil
	}
}
