package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxUsernameLength = 150
	maxEmailLength    = 254
)

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterForm is the submitted registration form.
type RegisterForm struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// ValidateRegistration checks every field of the registration form.
func ValidateRegistration(form *RegisterForm) FieldErrors {
	errs := FieldErrors{}

	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))

	if msg := usernameProblem(form.Username); msg != "" {
		errs.Add("username", msg)
	}
	if msg := emailProblem(form.Email); msg != "" {
		errs.Add("email", msg)
	}

	if form.Password1 == "" {
		errs.Add("password1", "This field is required.")
	}
	if form.Password2 == "" {
		errs.Add("password2", "This field is required.")
	} else if form.Password1 != form.Password2 {
		errs.Add("password2", "The two password fields didn't match.")
	}
	if _, bad := errs["password1"]; !bad && form.Password1 != "" {
		if msg := passwordProblem(form.Password1, form.Username); msg != "" {
			errs.Add("password2", msg)
		}
	}

	return errs
}

func usernameProblem(username string) string {
	switch {
	case username == "":
		return "This field is required."
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return "Ensure this value has at most 150 characters."
	case !usernameRegex.MatchString(username):
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return ""
}

func emailProblem(email string) string {
	if email == "" {
		return "This field is required."
	}
	if len(email) > maxEmailLength {
		return "Ensure this value has at most 254 characters."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || strings.HasSuffix(email, ".") {
		return "Enter a valid email address."
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") {
		return "Enter a valid email address."
	}
	return ""
}

func passwordProblem(password, username string) string {
	n := utf8.RuneCountInString(password)
	switch {
	case n < minPasswordLength:
		return "This password is too short. It must contain at least 8 characters."
	case n > maxPasswordLength:
		return "This password is too long. It must contain at most 128 characters."
	case isAllDigits(password):
		return "This password is entirely numeric."
	case username != "" && strings.EqualFold(password, username):
		return "The password is too similar to the username."
	}
	return ""
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
