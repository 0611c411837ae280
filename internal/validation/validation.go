package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateLessonID checks that a lesson has a usable identifier
func ValidateLessonID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ValidationError{Field: "lesson", Message: "lesson id is required"}
	}
	return nil
}

// ValidateTranslation checks that a sentence carries a gloss
func ValidateTranslation(def string) error {
	if strings.TrimSpace(def) == "" {
		return ValidationError{Field: "def", Message: "translation is required"}
	}
	return nil
}

// ValidateWordCount checks that a sentence has something to drill
func ValidateWordCount(n int) error {
	if n == 0 {
		return ValidationError{Field: "words", Message: "sentence has no words"}
	}
	return nil
}

// ValidateWord checks a single character/pinyin pair. Punctuation has an
// empty pinyin and may span several glyphs; a drillable character may not.
func ValidateWord(character, pinyin string) error {
	if character == "" {
		return ValidationError{Field: "character", Message: "character is required"}
	}
	if pinyin != "" && utf8.RuneCountInString(character) != 1 {
		return ValidationError{Field: "character", Message: "character must be a single glyph"}
	}
	if pinyin != strings.TrimSpace(pinyin) {
		return ValidationError{Field: "pinyin", Message: "pinyin must not have surrounding whitespace"}
	}
	return nil
}
