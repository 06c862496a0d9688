package server

import (
	"context"
	"net/url"
	"strings"
	"time"

	"paddock/internal/middleware"
	"paddock/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "session"
	loginPath     = "/login/"
)

// LoadSession resolves the viewer from the session cookie or a Bearer token.
// Anonymous requests pass through untouched; a stale cookie is cleared.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, fromCookie := s.sessionToken(c)
		if token == "" {
			return c.Next()
		}

		session, err := s.authService.VerifySession(c.UserContext(), token)
		if err != nil {
			if fromCookie {
				s.clearSessionCookie(c)
			}
			return c.Next()
		}

		c.Locals("userID", session.UserID)
		c.Locals("session", session)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, session.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// LoginRequired sends anonymous visitors to the login page, remembering where
// they were headed.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.viewerID(c) != 0 {
			return c.Next()
		}
		return c.Redirect(loginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
	}
}

// AnonymousOnly bounces signed-in users away from the login and register pages.
func (s *Server) AnonymousOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.viewerID(c) != 0 {
			return s.redirectToFeed(c)
		}
		return c.Next()
	}
}

func (s *Server) sessionToken(c *fiber.Ctx) (string, bool) {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		parts := strings.Split(auth, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1], false
		}
	}
	return c.Cookies(sessionCookie), true
}

// viewerID returns the signed-in user, or 0 for anonymous visitors.
func (s *Server) viewerID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func (s *Server) currentSession(c *fiber.Ctx) *service.Session {
	session, _ := c.Locals("session").(*service.Session)
	return session
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// safeNext accepts only local absolute paths as post-login destinations.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	if next == loginPath || strings.HasPrefix(next, loginPath+"?") {
		return "/"
	}
	return next
}
