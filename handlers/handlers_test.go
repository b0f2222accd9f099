package handlers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/nijaru/podcast-automation/audio"
	"github.com/nijaru/podcast-automation/config"
	"github.com/nijaru/podcast-automation/download"
	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/logger"
	"github.com/nijaru/podcast-automation/models"
	"github.com/nijaru/podcast-automation/storage"
	"github.com/nijaru/podcast-automation/summary"
	"github.com/nijaru/podcast-automation/transcription"
)

type fakeDownloader struct {
	calls []string
	dir   string
	err   error
}

func (f *fakeDownloader) Download(ctx context.Context, rawURL, outputDir, filename string) (string, error) {
	f.calls = append(f.calls, rawURL)
	f.dir = outputDir
	if f.err != nil {
		return "", f.err
	}
	if filename == "" {
		filename = "episode"
	}
	return filepath.Join(outputDir, filename+".mp4"), nil
}

type fakeExtractor struct {
	calls     int
	overwrite bool
	err       error
}

func (f *fakeExtractor) Extract(ctx context.Context, videoPath, outputPath string, overwrite bool) (string, error) {
	f.calls++
	f.overwrite = overwrite
	if f.err != nil {
		return "", f.err
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mp3"
	}
	return outputPath, nil
}

type fakeTranscriber struct {
	calls        int
	chunkedCalls int
	opts         transcription.Options
	chunkOpts    transcription.ChunkOptions
	text         string
	err          error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcription.Options) (string, error) {
	f.calls++
	f.opts = opts
	return f.text, f.err
}

func (f *fakeTranscriber) TranscribeChunked(ctx context.Context, audioPath string, opts transcription.ChunkOptions) (string, error) {
	f.chunkedCalls++
	f.chunkOpts = opts
	return f.text, f.err
}

type fakeSummarizer struct {
	calls      int
	transcript string
	opts       summary.Options
	err        error
}

func (f *fakeSummarizer) Generate(ctx context.Context, transcript, title string, opts summary.Options) (*models.Descriptions, error) {
	f.calls++
	f.transcript = transcript
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	d := models.NewDescriptions(title)
	d.YouTubeTitle = "YT: " + title
	d.YouTubeDescription = "A conversation."
	d.Tags = []string{"podcast", "tech"}
	return &d, nil
}

type fakeStore struct {
	runs    []*models.Run
	updates []models.Run
	closed  bool
}

func (f *fakeStore) CreateRun(ctx context.Context, url, title string) (*models.Run, error) {
	run := &models.Run{ID: "run-1", URL: url, Title: title, Status: models.StatusInProgress, Stage: models.StageDownload}
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeStore) UpdateRun(ctx context.Context, run *models.Run) error {
	f.updates = append(f.updates, *run)
	return nil
}

func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

type fakeArchiver struct {
	uploads []string
	err     error
}

func (f *fakeArchiver) Bucket() string { return "episodes" }

func (f *fakeArchiver) Key(runID, localPath string) string {
	return storage.ObjectKey("", runID, localPath)
}

func (f *fakeArchiver) UploadFile(ctx context.Context, localPath, key string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, key)
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type harness struct {
	app         *App
	stdout      *bytes.Buffer
	stderr      *bytes.Buffer
	dir         string
	configPath  string
	downloader  *fakeDownloader
	extractor   *fakeExtractor
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	store       *fakeStore
	storeErr    error
	archiver    *fakeArchiver
	hook        *test.Hook
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func newHarness(t *testing.T, extraConfig string) *harness {
	t.Helper()

	unsetEnv(t, "OUTPUT_DIR", "FFMPEG_PATH", "DOWNLOAD_TIMEOUT", "TRANSCRIPTION_LANGUAGE",
		"TRANSCRIPTION_MODEL", "TRANSCRIPTION_CHUNK_MINUTES", "SUMMARY_MODEL", "LOG_DIR",
		"LOG_LEVEL", "DEBUG", "DB_PATH", "ARCHIVE_BUCKET")
	t.Setenv("GEMINI_API_KEY", "test-key")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "local:\n  output_dir: " + filepath.Join(dir, "out") + "\n" + extraConfig
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	log, hook := test.NewNullLogger()
	h := &harness{
		stdout:      &bytes.Buffer{},
		stderr:      &bytes.Buffer{},
		dir:         dir,
		configPath:  configPath,
		downloader:  &fakeDownloader{},
		extractor:   &fakeExtractor{},
		transcriber: &fakeTranscriber{text: "Hello and welcome."},
		summarizer:  &fakeSummarizer{},
		store:       &fakeStore{},
		archiver:    &fakeArchiver{},
		hook:        hook,
	}
	h.app = &App{
		Stdout:     h.stdout,
		Stderr:     h.stderr,
		DotEnvPath: filepath.Join(dir, ".env"),
		NewServices: func(cfg *config.Config, progressOut io.Writer, log logrus.FieldLogger) Services {
			return Services{
				Downloader:  h.downloader,
				Extractor:   h.extractor,
				Transcriber: h.transcriber,
				Summarizer:  h.summarizer,
			}
		},
		OpenStore: func(path string) (RunStore, error) {
			if h.storeErr != nil {
				return nil, h.storeErr
			}
			return h.store, nil
		},
		NewArchiver: func(ctx context.Context, cfg storage.Config) (Archiver, error) {
			return h.archiver, nil
		},
		SetupLogger: func(opts logger.Options) (io.Closer, error) { return nopCloser{}, nil },
		Logger:      log,
	}
	return h
}

func (h *harness) run(args ...string) int {
	return h.app.Run(context.Background(), append([]string{"-c", h.configPath}, args...))
}

func (h *harness) out() string { return filepath.Join(h.dir, "out") }

func TestRunUsage(t *testing.T) {
	h := newHarness(t, "")

	if code := h.app.Run(context.Background(), nil); code != exitUsage {
		t.Errorf("expected exit %d, got %d", exitUsage, code)
	}
	if !strings.Contains(h.stderr.String(), "Usage:") {
		t.Errorf("expected usage text, got %q", h.stderr.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	h := newHarness(t, "")

	if code := h.run("publish"); code != exitUsage {
		t.Errorf("expected exit %d, got %d", exitUsage, code)
	}
	if !strings.Contains(h.stderr.String(), `unknown command "publish"`) {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
}

func TestRunMissingConfigFile(t *testing.T) {
	h := newHarness(t, "")

	code := h.app.Run(context.Background(), []string{"--config", filepath.Join(h.dir, "nope.yaml"), "download", "-u", "https://example.com/a"})
	if code != exitUsage {
		t.Errorf("expected exit %d, got %d", exitUsage, code)
	}
	if len(h.downloader.calls) != 0 {
		t.Error("expected no download")
	}
}

func TestRunMalformedConfig(t *testing.T) {
	h := newHarness(t, "summary: [unclosed\n")

	if code := h.run("download", "-u", "https://example.com/a"); code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
}

func TestDownload(t *testing.T) {
	h := newHarness(t, "")

	code := h.run("download", "--url", "https://example.com/rec/ep1")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	if h.downloader.dir != filepath.Join(h.out(), "audio") {
		t.Errorf("expected default audio dir, got %s", h.downloader.dir)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "Downloading from: https://example.com/rec/ep1") {
		t.Errorf("expected download banner, got %q", out)
	}
	if !strings.Contains(out, "Downloaded to: "+filepath.Join(h.out(), "audio", "episode.mp4")) {
		t.Errorf("expected downloaded path, got %q", out)
	}
}

func TestDownloadRequiresURL(t *testing.T) {
	h := newHarness(t, "")

	if code := h.run("download"); code != exitUsage {
		t.Errorf("expected exit %d, got %d", exitUsage, code)
	}
	if !strings.Contains(h.stderr.String(), "missing required flag --url") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
}

func TestDownloadFailure(t *testing.T) {
	h := newHarness(t, "")
	h.downloader.err = errors.DownloadFailed("test", nil, "HTTP error: 404 - Not Found")

	if code := h.run("download", "-u", "https://example.com/x"); code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(h.stderr.String(), "Error: HTTP error: 404 - Not Found") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
}

func TestExtractOverwrites(t *testing.T) {
	h := newHarness(t, "")

	code := h.run("extract", "-i", "/videos/ep1.mp4")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}
	if !h.extractor.overwrite {
		t.Error("expected overwrite enabled")
	}
	if !strings.Contains(h.stdout.String(), "Extracted to: /videos/ep1.mp3") {
		t.Errorf("unexpected stdout %q", h.stdout.String())
	}
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	h := newHarness(t, "")
	unsetEnv(t, "GEMINI_API_KEY")

	if code := h.run("transcribe", "-i", "ep1.mp3"); code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(h.stderr.String(), "Error: GEMINI_API_KEY environment variable not set") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
	if h.transcriber.calls+h.transcriber.chunkedCalls != 0 {
		t.Error("expected no transcription attempt")
	}
}

func TestTranscribeWritesTranscript(t *testing.T) {
	h := newHarness(t, "transcription:\n  include_timestamps: true\n  language: de\n")

	code := h.run("transcribe", "-i", "/audio/ep1.mp3")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	opts := h.transcriber.opts
	if opts.APIKey != "test-key" || opts.Language != "de" || !opts.IncludeTimestamps {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Model != "gemini-2.5-flash" {
		t.Errorf("expected default model, got %s", opts.Model)
	}

	path := filepath.Join(h.out(), "transcripts", "ep1_transcript.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected transcript file: %v", err)
	}
	if string(data) != "Hello and welcome." {
		t.Errorf("unexpected transcript %q", data)
	}
	if !strings.Contains(h.stdout.String(), "Transcript saved to: "+path) {
		t.Errorf("unexpected stdout %q", h.stdout.String())
	}
}

func TestTranscribeChunked(t *testing.T) {
	h := newHarness(t, "")
	output := filepath.Join(h.dir, "custom", "t.txt")

	code := h.run("transcribe", "-i", "ep1.mp3", "--chunked", "--chunk-minutes", "15", "-l", "es", "-t", "-o", output)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}
	if h.transcriber.chunkedCalls != 1 || h.transcriber.calls != 0 {
		t.Fatalf("expected one chunked call, got %d/%d", h.transcriber.chunkedCalls, h.transcriber.calls)
	}

	opts := h.transcriber.chunkOpts
	if opts.ChunkMinutes != 15 || opts.Language != "es" || !opts.IncludeTimestamps {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Delay.Seconds() != 5 {
		t.Errorf("expected 5s delay, got %s", opts.Delay)
	}
	if !strings.Contains(h.stdout.String(), "Using chunked transcription (15 min chunks)...") {
		t.Errorf("unexpected stdout %q", h.stdout.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("expected transcript at %s: %v", output, err)
	}
}

func TestSummarizeWritesYAML(t *testing.T) {
	h := newHarness(t, "summary:\n  max_tags: 4\n")
	input := filepath.Join(h.dir, "ep1_transcript.txt")
	if err := os.WriteFile(input, []byte("We talked about Go."), 0o644); err != nil {
		t.Fatal(err)
	}

	code := h.run("summarize", "-i", input, "--title", "Episode 1")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	if h.summarizer.transcript != "We talked about Go." {
		t.Errorf("unexpected transcript %q", h.summarizer.transcript)
	}
	if h.summarizer.opts.MaxTags != 4 || h.summarizer.opts.APIKey != "test-key" {
		t.Errorf("unexpected options %+v", h.summarizer.opts)
	}

	path := filepath.Join(h.out(), "descriptions", "ep1_transcript_descriptions.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected descriptions file: %v", err)
	}
	var got models.Descriptions
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got.YouTubeTitle != "YT: Episode 1" || got.SpotifyTitle != "Episode 1" {
		t.Errorf("unexpected descriptions %+v", got)
	}

	out := h.stdout.String()
	if !strings.Contains(out, "YouTube Title: YT: Episode 1") {
		t.Errorf("expected title in output, got %q", out)
	}
	if !strings.Contains(out, "Tags: podcast, tech") {
		t.Errorf("expected tags in output, got %q", out)
	}
}

func TestSummarizeMissingTranscript(t *testing.T) {
	h := newHarness(t, "")

	code := h.run("summarize", "-i", filepath.Join(h.dir, "missing.txt"), "-t", "Episode")
	if code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if h.summarizer.calls != 0 {
		t.Error("expected no summary call")
	}
}

func TestSummarizeRequiresTitle(t *testing.T) {
	h := newHarness(t, "")

	if code := h.run("summarize", "-i", "x.txt"); code != exitUsage {
		t.Errorf("expected exit %d, got %d", exitUsage, code)
	}
}

func TestProcess(t *testing.T) {
	h := newHarness(t, "")

	code := h.run("process", "-u", "https://example.com/rec/episode", "-t", "Episode 1")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	out := h.stdout.String()
	steps := []string{
		"Processing: ",
		"[1/4] Downloading video...",
		"[2/4] Extracting audio...",
		"[3/4] Transcribing audio...",
		"[4/4] Generating descriptions...",
		"Processing complete!",
		"Outputs:",
		"YouTube Title: YT: Episode 1",
	}
	last := -1
	for _, step := range steps {
		idx := strings.Index(out, step)
		if idx < 0 {
			t.Fatalf("expected %q in output %q", step, out)
		}
		if idx < last {
			t.Errorf("expected %q after previous step", step)
		}
		last = idx
	}

	if h.downloader.dir != filepath.Join(h.out(), "audio") {
		t.Errorf("unexpected download dir %s", h.downloader.dir)
	}
	if !h.extractor.overwrite {
		t.Error("expected overwrite enabled")
	}
	if h.summarizer.transcript != "Hello and welcome." {
		t.Errorf("expected transcript passed to summary, got %q", h.summarizer.transcript)
	}

	for _, path := range []string{
		filepath.Join(h.out(), "transcripts", "episode_transcript.txt"),
		filepath.Join(h.out(), "descriptions", "episode_descriptions.yaml"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}

	if len(h.store.runs) != 0 || len(h.archiver.uploads) != 0 {
		t.Error("expected ledger and archive untouched when not configured")
	}
}

func TestProcessStageErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(h *harness)
		prefix string
		stage  models.Stage
	}{
		{
			"download",
			func(h *harness) { h.downloader.err = errors.DownloadFailed("test", nil, "Connection error") },
			"Download error: Connection error",
			models.StageDownload,
		},
		{
			"extraction",
			func(h *harness) {
				h.extractor.err = errors.ExtractionFailed("test", nil, "ffmpeg extraction failed (code 1): bad input")
			},
			"Extraction error: ffmpeg extraction failed (code 1): bad input",
			models.StageExtraction,
		},
		{
			"transcription",
			func(h *harness) { h.transcriber.err = errors.Blocked("test", nil, "Content blocked") },
			"Transcription error: Content blocked",
			models.StageTranscription,
		},
		{
			"summary",
			func(h *harness) {
				h.summarizer.err = errors.GenerationFailed("test", pkgerrors.New("boom"), "Summary generation failed")
			},
			"Summary error: Summary generation failed: boom",
			models.StageSummary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "database:\n  path: "+filepath.Join(t.TempDir(), "runs.db")+"\n")
			tt.setup(h)

			code := h.run("process", "-u", "https://example.com/rec/episode", "-t", "Episode 1")
			if code != exitError {
				t.Fatalf("expected exit %d, got %d", exitError, code)
			}
			if !strings.Contains(h.stderr.String(), "\n"+tt.prefix) {
				t.Errorf("expected %q on its own line in stderr %q", tt.prefix, h.stderr.String())
			}
			for _, line := range strings.Split(h.stderr.String(), "\n") {
				if line != strings.TrimRight(line, " ") {
					t.Errorf("expected no padded stderr lines, got %q", line)
				}
			}
			if strings.Contains(h.stdout.String(), "Processing complete!") {
				t.Error("expected pipeline to stop")
			}

			if len(h.store.runs) != 1 {
				t.Fatalf("expected one recorded run, got %d", len(h.store.runs))
			}
			final := h.store.updates[len(h.store.updates)-1]
			if final.Status != models.StatusFailed || final.Stage != tt.stage {
				t.Errorf("expected failed at %s, got %s at %s", tt.stage, final.Status, final.Stage)
			}
			if final.Error == "" {
				t.Error("expected error recorded")
			}
			if !h.store.closed {
				t.Error("expected store closed")
			}
		})
	}
}

func TestProcessRecordsAndArchives(t *testing.T) {
	h := newHarness(t, "database:\n  path: "+filepath.Join(t.TempDir(), "runs.db")+"\narchive:\n  bucket: episodes\n")

	code := h.run("process", "-u", "https://example.com/rec/episode", "-t", "Episode 1")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	final := h.store.updates[len(h.store.updates)-1]
	if final.Status != models.StatusCompleted || final.Stage != models.StageSummary {
		t.Errorf("unexpected final run %+v", final)
	}
	if final.VideoPath == "" || final.AudioPath == "" || final.TranscriptPath == "" || final.DescriptionsPath == "" {
		t.Errorf("expected all output paths recorded, got %+v", final)
	}

	expected := []string{"run-1/episode_transcript.txt", "run-1/episode_descriptions.yaml"}
	if len(h.archiver.uploads) != len(expected) {
		t.Fatalf("expected %d uploads, got %v", len(expected), h.archiver.uploads)
	}
	for i, key := range expected {
		if h.archiver.uploads[i] != key {
			t.Errorf("upload %d: expected %s, got %s", i, key, h.archiver.uploads[i])
		}
	}
	if !strings.Contains(h.stdout.String(), "s3://episodes/run-1/episode_transcript.txt") {
		t.Errorf("expected archive location in output, got %q", h.stdout.String())
	}
}

func TestProcessLedgerAndArchiveFailuresAreWarnings(t *testing.T) {
	h := newHarness(t, "database:\n  path: /nonexistent/runs.db\narchive:\n  bucket: episodes\n")
	h.storeErr = pkgerrors.New("unable to open database file")
	h.archiver.err = pkgerrors.New("access denied")

	code := h.run("process", "-u", "https://example.com/rec/episode", "-t", "Episode 1")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	warnings := 0
	for _, entry := range h.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 3 {
		t.Errorf("expected 3 warnings (ledger + two uploads), got %d", warnings)
	}
	if !strings.Contains(h.stderr.String(), "failed to archive") {
		t.Errorf("expected archive warning, got %q", h.stderr.String())
	}
}

func TestProcessRequiresAPIKey(t *testing.T) {
	h := newHarness(t, "")
	unsetEnv(t, "GEMINI_API_KEY")

	if code := h.run("process", "-u", "https://example.com/a", "-t", "T"); code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if len(h.downloader.calls) != 0 {
		t.Error("expected no download before credential check")
	}
}

func TestHistory(t *testing.T) {
	h := newHarness(t, "database:\n  path: "+filepath.Join(t.TempDir(), "runs.db")+"\n")
	h.store.runs = []*models.Run{
		{ID: "a", URL: "https://example.com/1", Title: "First", Status: models.StatusCompleted, Stage: models.StageSummary},
		{ID: "b", URL: "https://example.com/2", Title: "Second", Status: models.StatusFailed, Stage: models.StageExtraction, Error: "ffmpeg not found"},
	}

	code := h.run("history", "--limit", "5")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, h.stderr.String())
	}

	out := h.stdout.String()
	for _, want := range []string{"First", "Second", "completed", "failed", "ffmpeg not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
	if !h.store.closed {
		t.Error("expected store closed")
	}
}

func TestHistoryRequiresDatabase(t *testing.T) {
	h := newHarness(t, "")

	if code := h.run("history"); code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(h.stderr.String(), "database.path is not configured") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
}

func TestDefaultServicesShareLogger(t *testing.T) {
	log, _ := test.NewNullLogger()
	services := DefaultServices(config.Default(), io.Discard, log)

	transcriber, ok := services.Transcriber.(*transcription.TranscriptionService)
	if !ok || transcriber.Logger != log {
		t.Error("expected transcriber to log to the app logger")
	}
	summarizer, ok := services.Summarizer.(*summary.Service)
	if !ok || summarizer.Logger != log {
		t.Error("expected summarizer to log to the app logger")
	}
	downloader, ok := services.Downloader.(*download.Downloader)
	if !ok || downloader.Logger != log {
		t.Error("expected downloader to log to the app logger")
	}
	extractor, ok := services.Extractor.(*audio.Extractor)
	if !ok || extractor.Logger != log {
		t.Error("expected extractor to log to the app logger")
	}
}
