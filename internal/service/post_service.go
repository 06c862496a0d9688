package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"paddock/internal/middleware"
	"paddock/internal/models"
	"paddock/internal/notifications"
	"paddock/internal/observability"
	"paddock/internal/repository"
	"paddock/internal/validation"
)

// ErrInvalidPoll marks a create failure caused by the poll options. Handlers
// send the author back to the create form with the message.
var ErrInvalidPoll = errors.New("invalid poll options")

type PostService struct {
	postRepo     repository.PostRepository
	reactionRepo repository.ReactionRepository
	pollRepo     repository.PollRepository
	catalog      *CatalogService
	photos       *PhotoService
	publisher    FeedPublisher
}

// FeedInput carries the raw feed query. Unparseable filters are ignored.
type FeedInput struct {
	ViewerID uint
	Category string
	TeamID   string
	DriverID string
}

// FeedFilters echoes the filters that were applied.
type FeedFilters struct {
	Category string `json:"type,omitempty"`
	TeamID   *uint  `json:"team,omitempty"`
	DriverID *uint  `json:"driver,omitempty"`
}

// Feed is everything the feed page renders.
type Feed struct {
	Posts       []*models.Post        `json:"posts"`
	Filters     FeedFilters           `json:"filters"`
	Categories  []models.Choice       `json:"post_types"`
	Reactions   []models.Choice       `json:"reaction_types"`
	Teams       []models.Team         `json:"teams"`
	Drivers     []models.DriverOption `json:"drivers"`
	RaceWeekend bool                  `json:"race_weekend"`
}

type CreatePostInput struct {
	UserID      uint
	Form        validation.PostForm
	PollOptions []string
	Photo       *PhotoUpload
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Form        validation.PostForm
	Photo       *PhotoUpload
	RemovePhoto bool
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	reactionRepo repository.ReactionRepository,
	pollRepo repository.PollRepository,
	catalog *CatalogService,
	photos *PhotoService,
	publisher FeedPublisher,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		reactionRepo: reactionRepo,
		pollRepo:     pollRepo,
		catalog:      catalog,
		photos:       photos,
		publisher:    publisher,
	}
}

func (s *PostService) ListFeed(ctx context.Context, in FeedInput) (*Feed, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ListFeed")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	filter, applied := parseFeedFilter(in)

	var posts []*models.Post
	posts, err = s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err = s.decorate(ctx, posts, in.ViewerID); err != nil {
		return nil, err
	}

	feed := &Feed{
		Posts:      posts,
		Filters:    applied,
		Categories: models.CategoryChoices(),
		Reactions:  models.ReactionChoices(),
		Teams:      []models.Team{},
		Drivers:    []models.DriverOption{},
	}
	if s.catalog != nil {
		if feed.Teams, err = s.catalog.Teams(ctx); err != nil {
			return nil, err
		}
		if feed.Drivers, err = s.catalog.Drivers(ctx, nil); err != nil {
			return nil, err
		}
		if feed.RaceWeekend, err = s.catalog.RaceWeekend(ctx); err != nil {
			return nil, err
		}
	}
	return feed, nil
}

func parseFeedFilter(in FeedInput) (repository.FeedFilter, FeedFilters) {
	var filter repository.FeedFilter
	var applied FeedFilters

	// An unknown type still filters, so it matches no posts.
	if c := models.Category(strings.TrimSpace(in.Category)); c != "" {
		filter.Category = &c
		if c.Valid() {
			applied.Category = string(c)
		}
	}
	if id, ok := parseFilterID(in.TeamID); ok {
		filter.TeamID = &id
		applied.TeamID = &id
	}
	if id, ok := parseFilterID(in.DriverID); ok {
		filter.DriverID = &id
		applied.DriverID = &id
	}
	return filter, applied
}

func parseFilterID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetPost returns a single decorated post.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*models.Post{post}, viewerID); err != nil {
		return nil, err
	}
	return post, nil
}

// GetForAuthor returns the post only when userID wrote it. Other users get
// the same not-found error as for a missing post.
func (s *PostService) GetForAuthor(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// ListByUser returns the user's posts newest first, decorated for viewerID.
func (s *PostService) ListByUser(ctx context.Context, userID, viewerID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	form := in.Form
	fields := validation.ValidatePostForm(&form)
	if err = s.checkTags(ctx, &form, fields); err != nil {
		return nil, err
	}
	if err = fields.Err(); err != nil {
		return nil, err
	}

	var options []string
	if form.Category == models.CategoryPoll {
		var pollFields validation.FieldErrors
		options, pollFields = validation.CleanPollOptions(in.PollOptions)
		if len(pollFields) > 0 {
			err = pollError(pollFields)
			return nil, err
		}
	}

	var photoKey string
	if photoKey, err = s.savePhoto(ctx, in.Photo); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   in.UserID,
		Text:     form.Text,
		Category: form.Category,
		TeamID:   form.TeamID,
		DriverID: form.DriverID,
		Photo:    photoKey,
	}
	if err = s.postRepo.CreateWithPoll(ctx, post, options); err != nil {
		if photoKey != "" {
			s.photos.Delete(ctx, photoKey)
		}
		return nil, err
	}

	observability.PostsCreated.WithLabelValues(string(post.Category)).Inc()
	middleware.Logger.InfoContext(ctx, "post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("category", string(post.Category)),
	)
	publishFeedEvent(ctx, s.publisher, notifications.FeedEvent{
		Type:    notifications.EventPostCreated,
		PostID:  post.ID,
		UserID:  in.UserID,
		Payload: map[string]any{"category": post.Category},
	})

	return s.GetPost(ctx, post.ID, in.UserID)
}

func pollError(fields validation.FieldErrors) error {
	msg := "Please fill in poll options correctly."
	if m, ok := fields["options"]; ok {
		msg = m
	}
	appErr := models.NewFieldErrors(fields)
	appErr.Message = msg
	appErr.Err = ErrInvalidPoll
	return appErr
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetForAuthor(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}

	form := in.Form
	// An edit that leaves the category out keeps the current one.
	if strings.TrimSpace(string(form.Category)) == "" {
		form.Category = post.Category
	}
	fields := validation.ValidatePostForm(&form)
	if form.Category == models.CategoryPoll && !post.IsPoll() {
		fields.Add("category", "A post cannot be turned into a poll after it is published.")
	}
	if err := s.checkTags(ctx, &form, fields); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	newPhoto, err := s.savePhoto(ctx, in.Photo)
	if err != nil {
		return nil, err
	}
	oldPhoto := post.Photo
	switch {
	case newPhoto != "":
		post.Photo = newPhoto
	case in.RemovePhoto:
		post.Photo = ""
	}

	post.Text = form.Text
	post.Category = form.Category
	post.TeamID = form.TeamID
	post.DriverID = form.DriverID
	if err := s.postRepo.Update(ctx, post); err != nil {
		if newPhoto != "" {
			s.photos.Delete(ctx, newPhoto)
		}
		return nil, err
	}
	if oldPhoto != "" && oldPhoto != post.Photo && s.photos != nil {
		s.photos.Delete(ctx, oldPhoto)
	}

	publishFeedEvent(ctx, s.publisher, notifications.FeedEvent{
		Type:   notifications.EventPostUpdated,
		PostID: post.ID,
		UserID: in.UserID,
	})
	return s.GetPost(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.UserID != in.UserID {
		return models.NewNotFoundError("Post", in.PostID)
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	if post.Photo != "" && s.photos != nil {
		s.photos.Delete(ctx, post.Photo)
	}

	publishFeedEvent(ctx, s.publisher, notifications.FeedEvent{
		Type:   notifications.EventPostDeleted,
		PostID: post.ID,
		UserID: in.UserID,
	})
	return nil
}

func (s *PostService) checkTags(ctx context.Context, form *validation.PostForm, fields validation.FieldErrors) error {
	if s.catalog == nil || fields["team"] != "" || fields["driver"] != "" {
		return nil
	}
	tagFields, err := s.catalog.ValidateTags(ctx, form.TeamID, form.DriverID)
	if err != nil {
		return err
	}
	for k, v := range tagFields {
		fields.Add(k, v)
	}
	return nil
}

func (s *PostService) savePhoto(ctx context.Context, upload *PhotoUpload) (string, error) {
	if upload == nil || len(upload.Content) == 0 {
		return "", nil
	}
	if s.photos == nil {
		return "", models.NewValidationError("Photo uploads are not available")
	}
	key, err := s.photos.Save(ctx, *upload)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
			return "", models.NewFieldErrors(map[string]string{"photo": appErr.Message})
		}
		return "", err
	}
	return key, nil
}

// decorate attaches reaction counts, the viewer's reaction, poll results and
// photo URLs.
func (s *PostService) decorate(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	var polls []*models.Poll
	for _, p := range posts {
		ids = append(ids, p.ID)
		if p.Poll != nil {
			polls = append(polls, p.Poll)
		}
	}

	counts, err := s.reactionRepo.CountsByPost(ctx, ids)
	if err != nil {
		return err
	}
	mine := map[uint]models.ReactionType{}
	if viewerID != 0 {
		if mine, err = s.reactionRepo.UserReactions(ctx, viewerID, ids); err != nil {
			return err
		}
	}
	if len(polls) > 0 {
		if err := s.pollRepo.EnrichWithResults(ctx, polls, viewerID); err != nil {
			return err
		}
	}

	for _, p := range posts {
		p.CategoryLabel = p.Category.Label()
		p.ReactionCounts = counts[p.ID]
		if p.ReactionCounts == nil {
			p.ReactionCounts = models.EmptyReactionCounts()
		}
		p.TotalReactions = 0
		for _, n := range p.ReactionCounts {
			p.TotalReactions += n
		}
		p.MyReaction = mine[p.ID]
		if s.photos != nil {
			p.PhotoURL = s.photos.URL(p.Photo)
		}
	}
	return nil
}
