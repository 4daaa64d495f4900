// Package pii masks personal identifiers before text leaves the device or is
// written to logs.
package pii

import (
	"regexp"
	"strings"

	"github.com/yungbote/neurathon-mate/internal/domain"
)

const (
	EmailMask = "[EMAIL_REDACTED]"
	PhoneMask = "[PHONE_REDACTED]"
	NameMask  = "[USER]"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{10}\b`)
)

// Redact masks email addresses and ten digit phone numbers.
func Redact(text string) string {
	out := emailPattern.ReplaceAllString(text, EmailMask)
	return phonePattern.ReplaceAllString(out, PhoneMask)
}

// Clean redacts text and additionally masks the profile owner's name
// (case-insensitive, matched literally). It returns the identity-free
// context that may accompany the task upstream.
func Clean(profile domain.Profile, task string) (string, domain.SafeContext) {
	cleaned := Redact(task)
	if name := strings.TrimSpace(profile.Name); name != "" {
		namePattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
		cleaned = namePattern.ReplaceAllLiteralString(cleaned, NameMask)
	}
	return cleaned, domain.SafeContext{
		Needs:   profile.Preferences.StepGranularity,
		Avoid:   profile.Triggers,
		Visuals: profile.Preferences.VisualCues,
	}
}
