package validation

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/parakeep/organizer/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Custom validators for enums. Registration should never fail in
	// normal operation.
	if err := Validate.RegisterValidation("para_category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register para_category validator: %v", err))
	}
	if err := Validate.RegisterValidation("note_path", validateNotePath); err != nil {
		panic(fmt.Sprintf("failed to register note_path validator: %v", err))
	}
}

// validateCategory validates that a string is a terminal PARA category
func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).IsTerminal()
}

// validateNotePath validates that a string is a vault-relative markdown path
func validateNotePath(fl validator.FieldLevel) bool {
	return ValidateNotePath(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateCategory validates a PARA category string value
func ValidateCategory(value string) error {
	if models.Category(value).IsTerminal() {
		return nil
	}
	return fmt.Errorf("invalid category: %s (must be 'Projects', 'Areas', 'Resources', or 'Archive')", value)
}

// ValidateNotePath validates a vault-relative note path: non-empty,
// markdown, and confined to the vault.
func ValidateNotePath(value string) error {
	if value == "" {
		return fmt.Errorf("note_path is required")
	}
	if strings.HasPrefix(value, "/") {
		return fmt.Errorf("note_path must be vault-relative, not absolute")
	}
	if value == ".." || strings.HasPrefix(value, "../") || strings.Contains(value, "/../") || strings.HasSuffix(value, "/..") {
		return fmt.Errorf("note_path must not escape the vault")
	}
	if !strings.EqualFold(path.Ext(value), ".md") {
		return fmt.Errorf("note_path must point to a markdown file")
	}
	return nil
}
