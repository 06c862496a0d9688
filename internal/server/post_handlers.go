package server

import (
	"errors"

	"paddock/internal/models"
	"paddock/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Feed handles GET /
// @Summary Motorsport feed
// @Description Newest posts first, optionally filtered by category, team and driver. Invalid filters are ignored.
// @Tags feed
// @Produce json
// @Param type query string false "Post category"
// @Param team query int false "Team ID"
// @Param driver query int false "Driver ID"
// @Success 200 {object} Page{context=service.Feed}
// @Router / [get]
func (s *Server) Feed(c *fiber.Ctx) error {
	feed, err := s.postService.ListFeed(c.UserContext(), service.FeedInput{
		ViewerID: s.viewerID(c),
		Category: c.Query("type"),
		TeamID:   c.Query("team"),
		DriverID: c.Query("driver"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, fiber.StatusOK, "feed", feed)
}

// CreatePostForm handles GET /create/
// @Summary Post creation form
// @Tags posts
// @Produce json
// @Success 200 {object} Page
// @Success 303 "Redirect to login"
// @Router /create/ [get]
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, fiber.StatusOK, postFormValues{Category: string(models.DefaultCategory)}, nil, nil)
}

// CreatePost handles POST /create/
// @Summary Publish a post
// @Description Creates a post with an optional photo and team/driver tags. Poll posts need at least two options.
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param text formData string true "Post text (max 240 characters)"
// @Param category formData string false "Post category"
// @Param team formData int false "Team ID"
// @Param driver formData int false "Driver ID"
// @Param photo formData file false "Photo"
// @Param option_1 formData string false "Poll option"
// @Param option_2 formData string false "Poll option"
// @Param option_3 formData string false "Poll option"
// @Param option_4 formData string false "Poll option"
// @Success 303 "Redirect to the feed"
// @Failure 400 {object} Page
// @Router /create/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, values := readPostForm(c)
	values.PollOptions = readPollOptions(c)

	photo, err := readPhoto(c, int64(s.maxUploadMB())*1024*1024)
	if err != nil {
		return s.respondError(c, err)
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      s.viewerID(c),
		Form:        form,
		PollOptions: values.PollOptions,
		Photo:       photo,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidPoll) {
			var appErr *models.AppError
			errors.As(err, &appErr)
			s.flash(c, LevelError, appErr.Message)
			return s.redirect(c, "/create/")
		}
		if fields, ok := fieldErrors(err); ok {
			return s.renderPostForm(c, fiber.StatusBadRequest, values, fields, nil)
		}
		return s.respondError(c, err)
	}

	return s.redirectToFeed(c)
}

// EditPostForm handles GET /:id/edit/
// @Summary Post edit form
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} Page
// @Failure 404 {object} models.ErrorResponse
// @Router /{id}/edit/ [get]
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetForAuthor(c.UserContext(), postID, s.viewerID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.renderPostForm(c, fiber.StatusOK, formValuesFromPost(post), nil, post)
}

// EditPost handles POST /:id/edit/
// @Summary Edit a post
// @Description Only the author may edit. Editing a poll into another category removes its poll.
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param category formData string false "Post category"
// @Param team formData int false "Team ID"
// @Param driver formData int false "Driver ID"
// @Param photo formData file false "Replacement photo"
// @Param remove_photo formData bool false "Remove the current photo"
// @Success 303 "Redirect to the feed"
// @Failure 400 {object} Page
// @Failure 404 {object} models.ErrorResponse
// @Router /{id}/edit/ [post]
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	form, values := readPostForm(c)

	photo, err := readPhoto(c, int64(s.maxUploadMB())*1024*1024)
	if err != nil {
		return s.respondError(c, err)
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:      s.viewerID(c),
		PostID:      postID,
		Form:        form,
		Photo:       photo,
		RemovePhoto: isChecked(c.FormValue("remove_photo")),
	})
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			post, getErr := s.postService.GetForAuthor(c.UserContext(), postID, s.viewerID(c))
			if getErr != nil {
				return s.respondError(c, getErr)
			}
			return s.renderPostForm(c, fiber.StatusBadRequest, values, fields, post)
		}
		return s.respondError(c, err)
	}

	return s.redirectToFeed(c)
}

// DeletePostConfirm handles GET /:id/delete/
// @Summary Post delete confirmation
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} Page
// @Failure 404 {object} models.ErrorResponse
// @Router /{id}/delete/ [get]
func (s *Server) DeletePostConfirm(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetForAuthor(c.UserContext(), postID, s.viewerID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, fiber.StatusOK, "post_confirm_delete", fiber.Map{"post": post})
}

// DeletePost handles POST /:id/delete/
// @Summary Delete a post
// @Description Only the author may delete. Reactions, the poll and its votes go with it.
// @Tags posts
// @Param id path int true "Post ID"
// @Success 303 "Redirect to the feed"
// @Failure 404 {object} models.ErrorResponse
// @Router /{id}/delete/ [post]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: s.viewerID(c),
		PostID: postID,
	}); err != nil {
		return s.respondError(c, err)
	}
	return s.redirectToFeed(c)
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, values postFormValues, fields map[string]string, post *models.Post) error {
	ctx := c.UserContext()
	teams, err := s.catalogService.Teams(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	drivers, err := s.catalogService.Drivers(ctx, nil)
	if err != nil {
		return s.respondError(c, err)
	}

	return s.render(c, status, "post_form", postFormContext{
		Form:          values,
		Errors:        fields,
		Post:          post,
		Categories:    models.CategoryChoices(),
		Teams:         teams,
		Drivers:       drivers,
		PollFields:    models.MaxPollOptions,
		MaxTextLength: models.MaxPostTextLength,
	})
}

func isChecked(v string) bool {
	switch v {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
