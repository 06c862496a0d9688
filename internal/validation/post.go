package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"paddock/internal/models"
)

// ErrTooFewPollOptions is the message shown when a poll has fewer than two answers.
const ErrTooFewPollOptions = "Poll must have at least 2 options."

// PostForm is the submitted create/edit post form.
type PostForm struct {
	Text     string
	Category models.Category
	TeamID   *uint
	DriverID *uint
}

// ValidatePostForm checks the text, category and tag fields of a post form.
// An empty category is replaced by the default before checking.
func ValidatePostForm(form *PostForm) FieldErrors {
	errs := FieldErrors{}

	form.Text = strings.TrimSpace(form.Text)
	if form.Text == "" {
		errs.Add("text", "This field is required.")
	} else if n := utf8.RuneCountInString(form.Text); n > models.MaxPostTextLength {
		errs.Add("text", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", models.MaxPostTextLength, n))
	}

	if form.Category == "" {
		form.Category = models.DefaultCategory
	}
	if !form.Category.Valid() {
		errs.Add("category", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", form.Category))
	}

	if form.TeamID != nil && *form.TeamID == 0 {
		errs.Add("team", "Select a valid choice.")
	}
	if form.DriverID != nil && *form.DriverID == 0 {
		errs.Add("driver", "Select a valid choice.")
	}

	return errs
}

// CleanPollOptions trims the submitted option inputs, drops empty ones and
// checks that at least two remain. Only the first MaxPollOptions inputs count.
func CleanPollOptions(raw []string) ([]string, FieldErrors) {
	errs := FieldErrors{}
	if len(raw) > models.MaxPollOptions {
		raw = raw[:models.MaxPollOptions]
	}

	options := make([]string, 0, len(raw))
	for i, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if utf8.RuneCountInString(opt) > models.MaxPollOptionLength {
			errs.Add(fmt.Sprintf("option_%d", i+1),
				fmt.Sprintf("Ensure this value has at most %d characters.", models.MaxPollOptionLength))
			continue
		}
		options = append(options, opt)
	}

	if len(errs) == 0 && len(options) < 2 {
		errs.Add("options", ErrTooFewPollOptions)
	}
	return options, errs
}
