package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"paddock/internal/middleware"
	"paddock/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const flashCookie = "flash"

// Message levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

// Message is a one-shot notice shown on the next rendered page.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Viewer identifies the signed-in user on every page.
type Viewer struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Page is the render envelope handed to the presentation layer.
type Page struct {
	View     string    `json:"view"`
	Context  any       `json:"context"`
	Messages []Message `json:"messages"`
	User     *Viewer   `json:"user,omitempty"`
}

// render answers with a page envelope, draining any pending flash messages.
func (s *Server) render(c *fiber.Ctx, status int, view string, ctx any, extra ...Message) error {
	messages := append(s.consumeFlash(c), extra...)
	page := Page{
		View:     view,
		Context:  ctx,
		Messages: messages,
	}
	if session := s.currentSession(c); session != nil {
		page.User = &Viewer{ID: session.UserID, Username: session.Username}
	}
	return c.Status(status).JSON(page)
}

// flash queues a message for the next page the client renders.
func (s *Server) flash(c *fiber.Ctx, level, text string) {
	pending, _ := c.Locals("flash").([]Message)
	if pending == nil {
		pending = decodeFlash(c.Cookies(flashCookie))
	}
	pending = append(pending, Message{Level: level, Text: text})
	c.Locals("flash", pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) consumeFlash(c *fiber.Ctx) []Message {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return []Message{}
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return decodeFlash(raw)
}

func decodeFlash(raw string) []Message {
	messages := []Message{}
	if raw == "" {
		return messages
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return messages
	}
	if err := json.Unmarshal(data, &messages); err != nil {
		return []Message{}
	}
	return messages
}

func (s *Server) redirect(c *fiber.Ctx, path string) error {
	return c.Redirect(path, fiber.StatusSeeOther)
}

func (s *Server) redirectToFeed(c *fiber.Ctx) error {
	return s.redirect(c, "/")
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(humanizeParam(param), c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam turns a route param into a resource label: "id" -> "Post",
// "option_id" -> "Option".
func humanizeParam(param string) string {
	if param == "id" {
		return "Post"
	}
	name := strings.TrimSuffix(param, "_id")
	if name == "" {
		return param
	}
	return strings.ToUpper(name[:1]) + strings.ReplaceAll(name[1:], "_", " ")
}

// respondError reports a service error with the status matching its code.
// Internal details are logged and never sent to the client.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		if !models.HasCode(err, models.CodeInternal) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// fieldErrors extracts per-field form errors from a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return nil, false
	}
	if len(appErr.Fields) == 0 {
		return map[string]string{"__all__": appErr.Message}, true
	}
	return appErr.Fields, true
}
