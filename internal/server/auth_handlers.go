package server

import (
	"errors"
	"log/slog"

	"paddock/internal/middleware"
	"paddock/internal/models"
	"paddock/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type registerContext struct {
	Form   fiber.Map         `json:"form"`
	Errors map[string]string `json:"errors,omitempty"`
}

type loginContext struct {
	Username string `json:"username"`
	Next     string `json:"next"`
	Error    string `json:"error,omitempty"`
}

// RegisterForm handles GET /register/
// @Summary Registration form
// @Tags auth
// @Produce json
// @Success 200 {object} Page
// @Router /register/ [get]
func (s *Server) RegisterForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "register", registerContext{
		Form: fiber.Map{"username": "", "email": ""},
	})
}

// Register handles POST /register/
// @Summary Create an account
// @Description Creates the user, signs them in and redirects to the feed.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password1 formData string true "Password"
// @Param password2 formData string true "Password confirmation"
// @Success 303 "Redirect to the feed with the session cookie set"
// @Failure 400 {object} Page
// @Router /register/ [post]
func (s *Server) Register(c *fiber.Ctx) error {
	form := validation.RegisterForm{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}

	user, err := s.authService.Register(c.UserContext(), form)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			return s.render(c, fiber.StatusBadRequest, "register", registerContext{
				Form:   fiber.Map{"username": form.Username, "email": form.Email},
				Errors: fields,
			})
		}
		return s.respondError(c, err)
	}

	if err := s.startSession(c, user); err != nil {
		return s.respondError(c, err)
	}
	s.flash(c, LevelSuccess, "Welcome to the paddock, "+user.Username+"!")
	return s.redirectToFeed(c)
}

// LoginForm handles GET /login/
// @Summary Login form
// @Tags auth
// @Produce json
// @Param next query string false "Where to go after signing in"
// @Success 200 {object} Page
// @Router /login/ [get]
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", loginContext{Next: safeNext(c.Query("next"))})
}

// Login handles POST /login/
// @Summary Sign in
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next formData string false "Where to go after signing in"
// @Success 303 "Redirect with the session cookie set"
// @Failure 400 {object} Page
// @Router /login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := safeNext(c.FormValue("next", c.Query("next")))

	user, err := s.authService.Login(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeUnauthorized {
			return s.render(c, fiber.StatusBadRequest, "login", loginContext{
				Username: username,
				Next:     next,
				Error:    appErr.Message,
			})
		}
		return s.respondError(c, err)
	}

	if err := s.startSession(c, user); err != nil {
		return s.respondError(c, err)
	}
	return s.redirect(c, next)
}

// Logout handles POST /logout/
// @Summary Sign out
// @Description Revokes the current session token and clears the cookie.
// @Tags auth
// @Success 303 "Redirect to the feed"
// @Router /logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := s.sessionToken(c)
	if err := s.authService.Logout(c.UserContext(), token); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session revocation failed", slog.String("error", err.Error()))
	}
	s.clearSessionCookie(c)
	s.flash(c, LevelInfo, "You have been signed out.")
	return s.redirectToFeed(c)
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, expires, err := s.authService.IssueSession(user)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token, expires)
	middleware.Logger.InfoContext(c.UserContext(), "session started",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)
	return nil
}
