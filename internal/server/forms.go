package server

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"paddock/internal/models"
	"paddock/internal/service"
	"paddock/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// postFormValues echoes a submitted post form back on re-render.
type postFormValues struct {
	Text        string   `json:"text"`
	Category    string   `json:"category"`
	Team        string   `json:"team"`
	Driver      string   `json:"driver"`
	PollOptions []string `json:"poll_options,omitempty"`
}

// postFormContext is the context of the create and edit views.
type postFormContext struct {
	Form          postFormValues        `json:"form"`
	Errors        map[string]string     `json:"errors,omitempty"`
	Post          *models.Post          `json:"post,omitempty"`
	Categories    []models.Choice       `json:"post_types"`
	Teams         []models.Team         `json:"teams"`
	Drivers       []models.DriverOption `json:"drivers"`
	PollFields    int                   `json:"poll_option_fields"`
	MaxTextLength int                   `json:"max_text_length"`
}

func readPostForm(c *fiber.Ctx) (validation.PostForm, postFormValues) {
	values := postFormValues{
		Text:     c.FormValue("text"),
		Category: strings.TrimSpace(c.FormValue("category")),
		Team:     strings.TrimSpace(c.FormValue("team")),
		Driver:   strings.TrimSpace(c.FormValue("driver")),
	}
	form := validation.PostForm{
		Text:     values.Text,
		Category: models.Category(values.Category),
		TeamID:   optionalID(values.Team),
		DriverID: optionalID(values.Driver),
	}
	return form, values
}

// optionalID parses an optional select value. Garbage maps to 0 so the form
// validator reports it.
func optionalID(raw string) *uint {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		zero := uint(0)
		return &zero
	}
	v := uint(id)
	return &v
}

func readPollOptions(c *fiber.Ctx) []string {
	options := make([]string, 0, models.MaxPollOptions)
	for i := 1; i <= models.MaxPollOptions; i++ {
		options = append(options, c.FormValue(fmt.Sprintf("option_%d", i)))
	}
	return options
}

// readPhoto returns the uploaded photo, or nil when none was sent.
func readPhoto(c *fiber.Ctx, maxBytes int64) (*service.PhotoUpload, error) {
	fh, err := c.FormFile("photo")
	if err != nil || fh == nil || fh.Size == 0 {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded photo: %w", err)
	}
	defer f.Close()

	// Read one byte past the limit so the photo service can reject the upload.
	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read uploaded photo: %w", err)
	}
	return &service.PhotoUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

func formValuesFromPost(post *models.Post) postFormValues {
	values := postFormValues{
		Text:     post.Text,
		Category: string(post.Category),
	}
	if post.TeamID != nil {
		values.Team = strconv.FormatUint(uint64(*post.TeamID), 10)
	}
	if post.DriverID != nil {
		values.Driver = strconv.FormatUint(uint64(*post.DriverID), 10)
	}
	return values
}
