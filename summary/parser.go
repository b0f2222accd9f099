package summary

import (
	"strings"

	"github.com/nijaru/podcast-automation/models"
)

type field int

const (
	noField field = iota
	youtubeTitle
	youtubeDescription
	spotifyTitle
	spotifyDescription
	tagsField
)

var labels = []struct {
	prefix string
	field  field
}{
	{"YOUTUBE_TITLE:", youtubeTitle},
	{"YOUTUBE_DESCRIPTION:", youtubeDescription},
	{"SPOTIFY_TITLE:", spotifyTitle},
	{"SPOTIFY_DESCRIPTION:", spotifyDescription},
	{"TAGS:", tagsField},
}

// ParseResponse reads a labelled model reply. A label line starts a field;
// following unlabelled lines continue it. Fields the reply leaves out keep
// their defaults.
func ParseResponse(text, fallbackTitle string, includeTags bool) models.Descriptions {
	result := models.NewDescriptions(fallbackTitle)

	current := noField
	var buf []string

	flush := func() {
		if current == noField || len(buf) == 0 {
			return
		}
		content := strings.Join(buf, "\n")
		switch current {
		case youtubeTitle:
			result.YouTubeTitle = strings.TrimSpace(content)
		case youtubeDescription:
			result.YouTubeDescription = strings.TrimSpace(content)
		case spotifyTitle:
			result.SpotifyTitle = strings.TrimSpace(content)
		case spotifyDescription:
			result.SpotifyDescription = strings.TrimSpace(content)
		case tagsField:
			result.Tags = ParseTags(content)
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		trimmed := strings.TrimSpace(line)
		next, content, ok := matchLabel(trimmed)
		if !ok {
			if current != noField {
				buf = append(buf, line)
			}
			continue
		}

		flush()
		current = next
		buf = buf[:0]
		if content != "" {
			buf = append(buf, content)
		}
	}
	flush()

	if !includeTags {
		result.Tags = []string{}
	}
	return result
}

func matchLabel(line string) (field, string, bool) {
	for _, l := range labels {
		if len(line) >= len(l.prefix) && strings.EqualFold(line[:len(l.prefix)], l.prefix) {
			return l.field, strings.TrimSpace(line[len(l.prefix):]), true
		}
	}
	return noField, "", false
}

// ParseTags accepts comma or newline separated tags, with or without '#'.
func ParseTags(text string) []string {
	tags := []string{}
	for _, tag := range strings.Split(strings.ReplaceAll(text, "\n", ","), ",") {
		tag = strings.TrimSpace(strings.Trim(strings.TrimSpace(tag), "#"))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
