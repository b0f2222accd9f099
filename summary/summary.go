package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/gemini"
	"github.com/nijaru/podcast-automation/models"
)

const (
	maxTranscriptChars = 10000
	temperature        = 0.7
	maxOutputTokens    = 4096
)

type Options struct {
	APIKey           string
	Model            string
	YouTubeMaxLength int
	SpotifyMaxLength int
	GenerateTags     bool
	MaxTags          int
}

type Service struct {
	NewGenerator gemini.Factory
	Logger       logrus.FieldLogger
}

func NewService() *Service {
	s := &Service{Logger: logrus.StandardLogger()}
	s.NewGenerator = s.newGenerator
	return s
}

func (s *Service) newGenerator(ctx context.Context, apiKey string) (gemini.Generator, error) {
	return gemini.NewGenerator(ctx, apiKey, s.Logger)
}

// Generate asks the model for platform copy and parses the labelled reply.
func (s *Service) Generate(ctx context.Context, transcript, title string, opts Options) (*models.Descriptions, error) {
	const op = "summary.Generate"

	if strings.TrimSpace(transcript) == "" {
		return nil, errors.InvalidInput(op, nil, "Transcript is empty")
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.InvalidInput(op, nil, "Episode title is empty")
	}

	apiKey, err := gemini.ResolveAPIKey(opts.APIKey)
	if err != nil {
		return nil, err
	}

	gen, err := s.NewGenerator(ctx, apiKey)
	if err != nil {
		return nil, errors.Configuration(op, err, "Failed to create Gemini client")
	}

	logger := s.Logger.WithFields(logrus.Fields{
		"title": title,
		"model": opts.Model,
	})
	logger.Info("Generating descriptions")

	text, err := gen.Generate(ctx, gemini.Request{
		Model:           opts.Model,
		Prompt:          BuildPrompt(transcript, title, opts),
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		if gemini.IsAuthError(err) {
			return nil, errors.Auth(op, err, "Gemini API key error")
		}
		return nil, errors.GenerationFailed(op, err, "Summary generation failed")
	}

	if strings.TrimSpace(text) == "" {
		return nil, errors.EmptyResult(op, nil, "Gemini returned empty response")
	}

	descriptions := ParseResponse(text, title, opts.GenerateTags)
	logger.WithField("tags", len(descriptions.Tags)).Info("Descriptions generated")
	return &descriptions, nil
}

// BuildPrompt embeds the first part of the transcript in the description
// template.
func BuildPrompt(transcript, title string, opts Options) string {
	if runes := []rune(transcript); len(runes) > maxTranscriptChars {
		transcript = string(runes[:maxTranscriptChars])
	}

	return fmt.Sprintf(`You are a podcast content assistant. Based on the following transcript, generate content for publishing this episode.

Episode Title: %s

Transcript:
%s

Please generate:

1. YOUTUBE_TITLE: A catchy, SEO-friendly title for YouTube (max 100 characters). Keep it engaging but informative.

2. YOUTUBE_DESCRIPTION: A comprehensive description for YouTube (max %d characters) that includes:
   - A brief summary of the episode (2-3 sentences)
   - Key topics discussed (bullet points)
   - Timestamps for major sections if identifiable
   - A call to action to subscribe

3. SPOTIFY_TITLE: The episode title for Spotify (can be same as original or slightly modified, max 100 characters)

4. SPOTIFY_DESCRIPTION: A description for Spotify (max %d characters) that includes:
   - A concise summary of the episode
   - Key takeaways
   - Keep it more conversational than YouTube

5. TAGS: %d relevant tags/keywords for discoverability (comma-separated)

Format your response exactly as follows:
YOUTUBE_TITLE: [title here]
YOUTUBE_DESCRIPTION: [description here]
SPOTIFY_TITLE: [title here]
SPOTIFY_DESCRIPTION: [description here]
TAGS: [tag1, tag2, tag3, ...]
`, title, transcript, opts.YouTubeMaxLength, opts.SpotifyMaxLength, opts.MaxTags)
}
