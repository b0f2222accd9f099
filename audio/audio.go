package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/nijaru/podcast-automation/errors"
)

const (
	versionTimeout  = 10 * time.Second
	durationTimeout = 30 * time.Second
	installHint     = "Please install ffmpeg: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)"
)

type Options struct {
	FFmpegPath   string
	AudioCodec   string
	AudioQuality string
	Timeout      time.Duration
	Logger       logrus.FieldLogger
}

type Extractor struct {
	FFmpegPath   string
	AudioCodec   string
	AudioQuality string
	Timeout      time.Duration
	Logger       logrus.FieldLogger

	runner commandRunner
}

func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		FFmpegPath:   opts.FFmpegPath,
		AudioCodec:   opts.AudioCodec,
		AudioQuality: opts.AudioQuality,
		Timeout:      opts.Timeout,
		Logger:       opts.Logger,
	}
	if e.Logger == nil {
		e.Logger = logrus.StandardLogger()
	}
	if e.FFmpegPath == "" {
		e.FFmpegPath = "ffmpeg"
	}
	if e.AudioCodec == "" {
		e.AudioCodec = "libmp3lame"
	}
	if e.AudioQuality == "" {
		e.AudioQuality = "2"
	}
	if e.Timeout <= 0 {
		e.Timeout = time.Hour
	}
	e.runner = execRunner{logger: e.Logger}
	return e
}

// FFprobePath is the ffprobe binary that sits next to the configured ffmpeg.
func (e *Extractor) FFprobePath() string {
	return strings.Replace(e.FFmpegPath, "ffmpeg", "ffprobe", 1)
}

// CheckFFmpeg verifies the encoder can be executed.
func (e *Extractor) CheckFFmpeg(ctx context.Context) error {
	const op = "audio.CheckFFmpeg"

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	result, err := e.runner.Run(ctx, e.FFmpegPath, "-version")
	if err != nil || result.ExitCode != 0 {
		return errors.ToolUnavailable(op, err, fmt.Sprintf("ffmpeg not found at '%s'. %s", e.FFmpegPath, installHint))
	}
	return nil
}

// Extract writes the audio track of videoPath to outputPath as MP3. An
// empty outputPath places the file next to the video.
func (e *Extractor) Extract(ctx context.Context, videoPath, outputPath string, overwrite bool) (string, error) {
	const op = "audio.Extract"

	if err := checkInputFile(op, videoPath, "Video"); err != nil {
		return "", err
	}

	if err := e.CheckFFmpeg(ctx); err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mp3"
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return "", errors.ExtractionFailed(op, err, "Failed to create output directory")
	}

	if _, err := os.Stat(outputPath); err == nil && !overwrite {
		return "", errors.AlreadyExists(op, nil, fmt.Sprintf("Output file already exists: %s. Use overwrite to replace it.", outputPath))
	}

	args := e.extractArgs(videoPath, outputPath, overwrite)

	logger := e.Logger.WithFields(logrus.Fields{
		"input":  videoPath,
		"output": outputPath,
	})
	logger.Info("Extracting audio")

	if err := e.run(ctx, op, args); err != nil {
		return "", err
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", errors.ExtractionFailed(op, err, fmt.Sprintf("ffmpeg completed but output file not found: %s", outputPath))
	}

	logger.Info("Audio extracted")
	return outputPath, nil
}

func (e *Extractor) extractArgs(videoPath, outputPath string, overwrite bool) []string {
	stream := ffmpeg.Input(videoPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": e.AudioCodec,
			"q:a":    e.AudioQuality,
		})
	if overwrite {
		return stream.OverWriteOutput().GetArgs()
	}
	return append(stream.GetArgs(), "-n")
}

// Duration reads the length of a media file in seconds.
func (e *Extractor) Duration(ctx context.Context, path string) (float64, error) {
	const op = "audio.Duration"

	ctx, cancel := context.WithTimeout(ctx, durationTimeout)
	defer cancel()

	result, err := e.runner.Run(ctx, e.FFprobePath(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, errors.ExtractionFailed(op, err, "Failed to get audio duration")
	}
	if result.ExitCode != 0 {
		return 0, errors.ExtractionFailed(op, nil, fmt.Sprintf("ffprobe failed: %s", strings.TrimSpace(result.Stderr)))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(result.Stdout), 64)
	if err != nil {
		return 0, errors.ExtractionFailed(op, err, "Failed to get audio duration")
	}
	return duration, nil
}

// Split cuts length seconds starting at start from src into dst.
func (e *Extractor) Split(ctx context.Context, src, dst string, start, length float64) error {
	const op = "audio.Split"

	args := ffmpeg.Input(src, ffmpeg.KwArgs{
		"ss": formatSeconds(start),
		"t":  formatSeconds(length),
	}).
		Output(dst, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": e.AudioCodec,
			"q:a":    e.AudioQuality,
		}).
		OverWriteOutput().
		GetArgs()

	if err := e.run(ctx, op, args); err != nil {
		return err
	}
	if _, err := os.Stat(dst); err != nil {
		return errors.ExtractionFailed(op, err, fmt.Sprintf("ffmpeg completed but output file not found: %s", dst))
	}
	return nil
}

func (e *Extractor) run(ctx context.Context, op string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	result, err := e.runner.Run(ctx, e.FFmpegPath, args...)
	if err != nil {
		if pkgerrors.Is(err, context.DeadlineExceeded) {
			return errors.ExtractionFailed(op, err, fmt.Sprintf("ffmpeg timed out after %s", e.Timeout))
		}
		return errors.ExtractionFailed(op, err, "ffmpeg subprocess error")
	}
	if result.ExitCode != 0 {
		return errors.ExtractionFailed(op, nil, fmt.Sprintf("ffmpeg extraction failed (code %d): %s", result.ExitCode, strings.TrimSpace(result.Stderr)))
	}
	return nil
}

func checkInputFile(op, path, label string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.NotFound(op, nil, fmt.Sprintf("%s file not found: %s", label, path))
	}
	if err != nil {
		return errors.NotFound(op, err, fmt.Sprintf("%s file not accessible: %s", label, path))
	}
	if !info.Mode().IsRegular() {
		return errors.NotFound(op, nil, fmt.Sprintf("Path is not a file: %s", path))
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

var mimeTypes = map[string]string{
	".mp3":  "audio/mp3",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".mp4":  "video/mp4",
}

// MimeType infers the upload content type from the file extension,
// defaulting to audio/mpeg.
func MimeType(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "audio/mpeg"
}
