package middleware

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const (
	maxQuestionLength = 20000
	maxTitleLength    = 256
	maxLanguageLength = 32
)

// ValidateQuestion checks the size and encoding of a question. Emptiness is
// the query pipeline's concern.
func ValidateQuestion(question string) error {
	if len(question) > maxQuestionLength {
		return errors.New("question exceeds maximum length")
	}
	if !utf8.ValidString(question) {
		return errors.New("question must be valid UTF-8")
	}
	return nil
}

// ValidateTitle validates a chat title.
func ValidateTitle(title string) error {
	if len(title) > maxTitleLength {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateLanguage accepts a language code such as "pt-BR" or a short name
// in any script, such as "Español" or "हिन्दी".
func ValidateLanguage(language string) error {
	if !utf8.ValidString(language) {
		return errors.New("language must be valid UTF-8")
	}
	if utf8.RuneCountInString(language) > maxLanguageLength {
		return errors.New("language exceeds maximum length")
	}
	for _, r := range language {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), r == '-', r == '_', r == ' ':
		default:
			return errors.New("language must be a language code or name")
		}
	}
	return nil
}
