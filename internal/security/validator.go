// Package security screens candidate input before it reaches the engine:
// length limits, HTML stripping and a prompt-injection pattern check.
package security

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"caseprep/internal/config"
	"caseprep/internal/domain"
)

// suspiciousPatterns flag likely instruction-override attempts. The check
// is intentionally coarse: a false positive costs the candidate a retype, a
// false negative costs the interview its grounding.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all)\s+instructions?`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`<\|.*?\|>`),
	regexp.MustCompile(`(?i)###\s*instruction`),
	regexp.MustCompile(`(?i)forget\s+everything`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)new\s+role`),
	regexp.MustCompile(`(?i)disregard`),
	regexp.MustCompile(`(?i)override`),
}

// Validator validates and sanitizes candidate messages.
type Validator struct {
	html      *bluemonday.Policy
	maxLength int
}

// NewValidator creates a validator with the configured message cap.
func NewValidator() *Validator {
	return &Validator{
		html:      bluemonday.StrictPolicy(),
		maxLength: config.MaxMessageLength,
	}
}

// ValidateMessage checks a candidate message and returns the sanitized
// form. On rejection the returned error is a domain.ValidationError whose
// message is safe to show to the candidate.
func (v *Validator) ValidateMessage(message string) (string, error) {
	if len(message) > v.maxLength {
		return "", &domain.ValidationError{
			Message: fmt.Sprintf("message too long (max %d characters)", v.maxLength),
		}
	}

	if strings.TrimSpace(message) == "" {
		return "", &domain.ValidationError{Message: "message cannot be empty"}
	}

	sanitized := v.Sanitize(message)
	if sanitized == "" {
		return "", &domain.ValidationError{Message: "message cannot be empty"}
	}

	if reason := detectInjection(sanitized); reason != "" {
		return "", &domain.ValidationError{Message: "message blocked: " + reason}
	}

	return sanitized, nil
}

// Sanitize strips HTML and collapses whitespace. The policy entity-escapes
// whatever it keeps, so the escaping is undone afterwards: apostrophes and
// ampersands in a plain answer must reach the log and the generation
// service unchanged.
func (v *Validator) Sanitize(text string) string {
	text = html.UnescapeString(v.html.Sanitize(text))
	return strings.Join(strings.Fields(text), " ")
}

// detectInjection returns a human-readable reason when text looks like a
// prompt-injection attempt, or "" when it is clean.
func detectInjection(text string) string {
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(text) {
			return "suspected instruction override"
		}
	}

	// Excessive special characters are another override tell.
	special, total := 0, 0
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total > 0 && float64(special)/float64(total) > 0.3 {
		return "excessive special characters"
	}

	return ""
}
