package validation

import (
	"net/url"
	"path"
	"strings"

	"github.com/nijaru/podcast-automation/errors"
)

const (
	maxFilenameLength  = 200
	defaultFilename    = "download"
	defaultURLFilename = "clubhouse_recording"
	invalidChars       = `<>:"/\|?*`
)

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(rawURL string) error {
	const op = "validation.ValidateURL"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must start with http or https")
	}

	if parsedURL.Host == "" {
		return errors.InvalidInput(op, nil, "URL must have a host")
	}

	return nil
}

// SanitizeFilename makes name safe to use as a single path component.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidChars, r) {
			return '_'
		}
		return r
	}, name)

	name = strings.Trim(name, ". ")

	if runes := []rune(name); len(runes) > maxFilenameLength {
		name = string(runes[:maxFilenameLength])
	}

	if name == "" {
		return defaultFilename
	}
	return name
}

// FilenameFromURL derives a file name from the last path segment of rawURL.
func FilenameFromURL(rawURL string) string {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return defaultURLFilename
	}

	base := path.Base(strings.TrimRight(parsedURL.Path, "/"))
	if base == "." || base == "/" || base == "" {
		return defaultURLFilename
	}

	return SanitizeFilename(base)
}

func EnsureExtension(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		return name
	}
	return name + ext
}
