package server

import (
	"errors"
	"strconv"
	"strings"

	"paddock/internal/models"

	"github.com/gofiber/fiber/v2"
)

// React handles POST /react/:id/:type/
// @Summary Toggle a reaction
// @Description Adds, switches or removes the viewer's single reaction on a post.
// @Tags reactions
// @Produce json
// @Param id path int true "Post ID"
// @Param type path string true "Reaction type" Enums(push, fastest_lap, team_orders, champion_move)
// @Success 200 {object} service.ReactionResult "For XMLHttpRequest callers"
// @Success 303 "Redirect to the feed"
// @Failure 404 {object} models.ErrorResponse
// @Router /react/{id}/{type}/ [post]
func (s *Server) React(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.reactionService.React(c.UserContext(), s.viewerID(c), postID, c.Params("type"))
	if err != nil {
		return s.respondError(c, err)
	}

	if isXHR(c) {
		return c.JSON(result)
	}
	return s.redirectToFeed(c)
}

// VotePoll handles POST /poll/vote/:option_id/
// @Summary Vote in a poll
// @Description One vote per user per poll. A repeated vote is ignored with a notice.
// @Tags polls
// @Param option_id path int true "Poll option ID"
// @Success 303 "Redirect to the feed"
// @Failure 404 {object} models.ErrorResponse
// @Router /poll/vote/{option_id}/ [post]
func (s *Server) VotePoll(c *fiber.Ctx) error {
	optionID, err := s.parseID(c, "option_id")
	if err != nil {
		return nil
	}

	if _, err := s.pollService.Vote(c.UserContext(), s.viewerID(c), optionID); err != nil {
		if errors.Is(err, models.ErrAlreadyVoted) {
			s.flash(c, LevelInfo, models.ErrAlreadyVoted.Message)
			return s.redirectToFeed(c)
		}
		return s.respondError(c, err)
	}
	return s.redirectToFeed(c)
}

// DriversByTeam handles GET /api/drivers/
// @Summary Drivers of a team
// @Description Lists {id, name} for the drivers of team_id, or every driver when it is omitted.
// @Tags catalog
// @Produce json
// @Param team_id query int false "Team ID"
// @Success 200 {array} models.DriverOption
// @Failure 400 {object} models.ErrorResponse
// @Router /api/drivers/ [get]
func (s *Server) DriversByTeam(c *fiber.Ctx) error {
	var teamID *uint
	if raw := strings.TrimSpace(c.Query("team_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid team ID"))
		}
		v := uint(id)
		teamID = &v
	}

	drivers, err := s.catalogService.Drivers(c.UserContext(), teamID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(drivers)
}

// Profile handles GET /profile/:username/
// @Summary User profile
// @Description A user's posts with posting statistics.
// @Tags profile
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} Page{context=service.Profile}
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	viewer := s.viewerID(c)
	profile, err := s.profileService.GetProfile(c.UserContext(), c.Params("username"), viewer)
	if err != nil {
		return s.respondError(c, err)
	}

	if profile.User.ID != viewer {
		public := *profile.User
		public.Email = ""
		profile.User = &public
	}
	return s.render(c, fiber.StatusOK, "profile", profile)
}

func isXHR(c *fiber.Ctx) bool {
	return c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest"
}
