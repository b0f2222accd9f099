package transcription

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/audio"
	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/gemini"
)

const (
	temperature     = 0.1
	maxOutputTokens = 8192

	cleanupTimeout = 30 * time.Second
)

type Options struct {
	APIKey            string
	Language          string
	IncludeTimestamps bool
	Model             string
}

type ChunkOptions struct {
	Options
	ChunkMinutes int
	Delay        time.Duration
}

// AudioTool measures and cuts audio for chunked transcription.
type AudioTool interface {
	Duration(ctx context.Context, path string) (float64, error)
	Split(ctx context.Context, src, dst string, start, length float64) error
}

type TranscriptionService struct {
	NewGenerator gemini.Factory
	Audio        AudioTool
	SleepFunc    func(ctx context.Context, d time.Duration) error
	Logger       logrus.FieldLogger
}

func NewTranscriptionService(tool AudioTool) *TranscriptionService {
	s := &TranscriptionService{
		Audio:     tool,
		SleepFunc: sleep,
		Logger:    logrus.StandardLogger(),
	}
	s.NewGenerator = s.newGenerator
	return s
}

func (s *TranscriptionService) newGenerator(ctx context.Context, apiKey string) (gemini.Generator, error) {
	return gemini.NewGenerator(ctx, apiKey, s.Logger)
}

// Transcribe sends the whole file in one generation call.
func (s *TranscriptionService) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	const op = "transcription.Transcribe"

	if err := checkAudioFile(op, audioPath); err != nil {
		return "", err
	}

	apiKey, err := gemini.ResolveAPIKey(opts.APIKey)
	if err != nil {
		return "", err
	}

	gen, err := s.NewGenerator(ctx, apiKey)
	if err != nil {
		return "", errors.Configuration(op, err, "Failed to create Gemini client")
	}

	return s.transcribeFile(ctx, gen, audioPath, opts)
}

// TranscribeChunked splits audio longer than one chunk into consecutive
// segments and transcribes them one at a time. A failed segment becomes a
// placeholder instead of failing the whole transcript.
func (s *TranscriptionService) TranscribeChunked(ctx context.Context, audioPath string, opts ChunkOptions) (string, error) {
	const op = "transcription.TranscribeChunked"

	apiKey, err := gemini.ResolveAPIKey(opts.APIKey)
	if err != nil {
		return "", err
	}
	opts.APIKey = apiKey

	if err := checkAudioFile(op, audioPath); err != nil {
		return "", err
	}

	if opts.ChunkMinutes <= 0 {
		return "", errors.InvalidInput(op, nil, "Chunk length must be greater than 0")
	}

	duration, err := s.Audio.Duration(ctx, audioPath)
	if err != nil {
		return "", err
	}

	chunkSeconds := float64(opts.ChunkMinutes * 60)
	if duration <= chunkSeconds {
		return s.Transcribe(ctx, audioPath, opts.Options)
	}

	gen, err := s.NewGenerator(ctx, apiKey)
	if err != nil {
		return "", errors.Configuration(op, err, "Failed to create Gemini client")
	}

	tmpDir, err := os.MkdirTemp("", "podcast-chunks-")
	if err != nil {
		return "", errors.ExtractionFailed(op, err, "Failed to create temporary directory")
	}
	defer os.RemoveAll(tmpDir)

	numChunks := int(math.Ceil(duration / chunkSeconds))
	logger := s.Logger.WithFields(logrus.Fields{
		"input":    audioPath,
		"duration": duration,
		"chunks":   numChunks,
	})
	logger.Info("Transcribing in chunks")

	ext := filepath.Ext(audioPath)
	if ext == "" {
		ext = ".mp3"
	}

	parts := make([]string, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := float64(i) * chunkSeconds
		length := math.Min(chunkSeconds, duration-start)
		chunkPath := filepath.Join(tmpDir, fmt.Sprintf("chunk_%03d%s", i+1, ext))

		if err := s.Audio.Split(ctx, audioPath, chunkPath, start, length); err != nil {
			if errors.Is(err, errors.KindExtractionFailed) {
				return "", err
			}
			return "", errors.ExtractionFailed(op, err, fmt.Sprintf("Failed to split part %d", i+1))
		}

		text, err := s.transcribeFile(ctx, gen, chunkPath, opts.Options)
		switch {
		case ctx.Err() != nil:
			return "", errors.GenerationFailed(op, ctx.Err(), "Transcription cancelled")
		case err != nil:
			logger.WithError(err).WithField("part", i+1).Warn("Chunk transcription failed")
			text = fmt.Sprintf("[Transcription unavailable for part %d]", i+1)
		case opts.IncludeTimestamps && i > 0:
			text = fmt.Sprintf("%s\n%s", partMarker(i+1, start), text)
		}
		parts = append(parts, text)

		if i < numChunks-1 && opts.Delay > 0 {
			if err := s.SleepFunc(ctx, opts.Delay); err != nil {
				return "", errors.GenerationFailed(op, err, "Transcription cancelled")
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func (s *TranscriptionService) transcribeFile(ctx context.Context, gen gemini.Generator, audioPath string, opts Options) (string, error) {
	const op = "transcription.transcribeFile"

	file, err := gen.UploadFile(ctx, audioPath, audio.MimeType(audioPath))
	if err != nil {
		return "", mapError(op, err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := gen.DeleteFile(cleanupCtx, file.Name); err != nil {
			s.Logger.WithError(err).WithField("file", file.Name).Debug("Failed to delete uploaded file")
		}
	}()

	text, err := gen.Generate(ctx, gemini.Request{
		Model:           opts.Model,
		Prompt:          BuildPrompt(opts.Language, opts.IncludeTimestamps),
		File:            file,
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return "", mapError(op, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.EmptyResult(op, nil, "Gemini returned empty response")
	}
	return text, nil
}

// BuildPrompt returns the transcription instruction for language.
func BuildPrompt(language string, includeTimestamps bool) string {
	if language == "" {
		language = "en"
	}
	if includeTimestamps {
		return fmt.Sprintf(`Transcribe the following audio file accurately.
Include timestamps in the format [MM:SS] at the beginning of each paragraph or when the speaker changes.
The audio is in %s language.
Provide only the transcript, no additional commentary.`, language)
	}
	return fmt.Sprintf(`Transcribe the following audio file accurately.
The audio is in %s language.
Provide only the transcript text, no timestamps or additional commentary.`, language)
}

// Offsets are nominal chunk starts, not positions reported by the model.
func partMarker(part int, startSeconds float64) string {
	return fmt.Sprintf("[--- Part %d (from %02d:00) ---]", part, int(startSeconds)/60)
}

func mapError(op string, err error) error {
	switch {
	case gemini.IsAuthError(err):
		return errors.Auth(op, err, "Gemini API key error")
	case gemini.IsBlockedError(err):
		return errors.Blocked(op, err, "Content blocked by Gemini safety filters")
	default:
		return errors.GenerationFailed(op, err, "Transcription failed")
	}
}

func checkAudioFile(op, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.NotFound(op, nil, fmt.Sprintf("Audio file not found: %s", path))
	}
	if err != nil {
		return errors.NotFound(op, err, fmt.Sprintf("Audio file not accessible: %s", path))
	}
	if !info.Mode().IsRegular() {
		return errors.NotFound(op, nil, fmt.Sprintf("Path is not a file: %s", path))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
