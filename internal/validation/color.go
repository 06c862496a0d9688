package validation

import (
	"fmt"
	"regexp"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateHexColor checks a #RRGGBB team colour.
func ValidateHexColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return fmt.Errorf("color %q must be a #RRGGBB hex value", color)
	}
	return nil
}
