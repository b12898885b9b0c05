package resume

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	phoneSeparators = regexp.MustCompile(`[\s\-\(\)\.]`)
	phonePattern    = regexp.MustCompile(`^\+?\d{7,15}$`)
	emailPattern    = regexp.MustCompile(`^[\w\.\-\+]+@[\w\-]+\.[\w\-\.]+$`)
)

// ValidatePhone checks a phone number in common human formats such as
// "+1 (555) 123-4567" or "555-123-4567". The original value is returned
// unchanged when valid.
func ValidatePhone(value string) (string, error) {
	cleaned := phoneSeparators.ReplaceAllString(value, "")
	if !phonePattern.MatchString(cleaned) {
		return "", fmt.Errorf("invalid phone number %q, expected a format like +1 (555) 123-4567", value)
	}
	return value, nil
}

// validateEmail checks the address shape without attempting delivery.
func validateEmail(value string) error {
	if !emailPattern.MatchString(value) {
		return fmt.Errorf("invalid email address %q", value)
	}
	return nil
}

var (
	linkedinPath = regexp.MustCompile(`^/in/[\w\.\-]+/?$`)
	githubPath   = regexp.MustCompile(`^/[\w\.\-]+/?$`)
)

// NormalizeLinkedIn validates a LinkedIn profile reference and returns the
// full URL. Bare usernames and scheme-less URLs are normalized.
func NormalizeLinkedIn(value string) (string, error) {
	normalized := addScheme(value, "linkedin.com/in")

	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("invalid LinkedIn URL %q: %w", value, err)
	}

	host := parsed.Hostname()
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return "", fmt.Errorf("invalid LinkedIn URL %q, expected linkedin.com/in/username", value)
	}
	if !linkedinPath.MatchString(parsed.Path) {
		return "", fmt.Errorf("invalid LinkedIn URL %q, expected linkedin.com/in/username", value)
	}

	return normalized, nil
}

// NormalizeGitHub validates a GitHub profile reference and returns the
// full URL. Bare usernames and scheme-less URLs are normalized. Repository
// paths are rejected, only profile URLs are accepted.
func NormalizeGitHub(value string) (string, error) {
	normalized := addScheme(value, "github.com")

	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("invalid GitHub URL %q: %w", value, err)
	}

	host := parsed.Hostname()
	if host != "github.com" && !strings.HasSuffix(host, ".github.com") {
		return "", fmt.Errorf("invalid GitHub URL %q, expected github.com/username", value)
	}
	if !githubPath.MatchString(parsed.Path) {
		return "", fmt.Errorf("invalid GitHub URL %q, expected github.com/username", value)
	}

	return normalized, nil
}

// addScheme turns a bare username or scheme-less URL into a full https URL
// under the given profile base.
func addScheme(value, base string) string {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	if strings.ContainsAny(value, "/.") {
		return "https://" + value
	}
	return "https://" + base + "/" + value
}
