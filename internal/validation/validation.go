// Package validation checks user-submitted forms before they reach the services.
package validation

import "paddock/internal/models"

// FieldErrors maps a form field to its first error message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Err converts the collected errors into a validation AppError, or nil when empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return models.NewFieldErrors(fe)
}
