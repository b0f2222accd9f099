package handlers

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/gemini"
	"github.com/nijaru/podcast-automation/models"
	"github.com/nijaru/podcast-automation/summary"
	"github.com/nijaru/podcast-automation/transcription"
)

const (
	audioDir        = "audio"
	transcriptsDir  = "transcripts"
	descriptionsDir = "descriptions"
	rule            = "=================================================="
)

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(programName+" "+name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	return fs
}

// requireAPIKey resolves the credential before an AI-calling command does
// any other work.
func (a *App) requireAPIKey() (string, bool) {
	key, err := gemini.ResolveAPIKey("")
	if err != nil {
		a.Logger.WithError(err).Debug("Credential check failed")
		a.errorf("Error: %s environment variable not set", gemini.APIKeyEnv)
		return "", false
	}
	return key, true
}

func (a *App) runDownload(ctx context.Context, args []string) int {
	fs := a.newFlagSet("download")
	var url, output, filename string
	stringVar(fs, &url, "url", "u", "", "recording URL (required)")
	stringVar(fs, &output, "output", "o", "", "output directory (default <output_dir>/audio)")
	stringVar(fs, &filename, "filename", "f", "", "output file name")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if url == "" {
		return a.missingFlag(fs, "url")
	}

	if output == "" {
		output = filepath.Join(a.cfg.Local.OutputDir, audioDir)
	}

	a.printf("Downloading from: %s", url)
	path, err := a.services.Downloader.Download(ctx, url, output, filename)
	if err != nil {
		return a.fail("Error", err)
	}
	a.successf("Downloaded to: %s", path)
	return exitOK
}

func (a *App) runExtract(ctx context.Context, args []string) int {
	fs := a.newFlagSet("extract")
	var input, output string
	stringVar(fs, &input, "input", "i", "", "video file (required)")
	stringVar(fs, &output, "output", "o", "", "output audio file (default next to the input)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if input == "" {
		return a.missingFlag(fs, "input")
	}

	a.printf("Extracting audio from: %s", input)
	path, err := a.services.Extractor.Extract(ctx, input, output, true)
	if err != nil {
		return a.fail("Error", err)
	}
	a.successf("Extracted to: %s", path)
	return exitOK
}

func (a *App) runTranscribe(ctx context.Context, args []string) int {
	fs := a.newFlagSet("transcribe")
	var (
		input, output, language, model string
		timestamps, chunked             bool
		chunkMinutes                    int
	)
	stringVar(fs, &input, "input", "i", "", "audio file (required)")
	stringVar(fs, &output, "output", "o", "", "transcript file (default <output_dir>/transcripts/<name>_transcript.txt)")
	stringVar(fs, &language, "language", "l", "", "language code (default from config)")
	boolVar(fs, &timestamps, "timestamps", "t", "include timestamps")
	boolVar(fs, &chunked, "chunked", "", "split long audio into chunks")
	fs.IntVar(&chunkMinutes, "chunk-minutes", 0, "chunk length in minutes (default from config)")
	stringVar(fs, &model, "model", "m", "", "Gemini model (default from config)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if input == "" {
		return a.missingFlag(fs, "input")
	}

	apiKey, ok := a.requireAPIKey()
	if !ok {
		return exitError
	}

	tc := a.cfg.Transcription
	if language == "" {
		language = tc.Language
	}
	if model == "" {
		model = tc.Model
	}
	if chunkMinutes <= 0 {
		chunkMinutes = tc.ChunkMinutes
	}

	opts := transcription.Options{
		APIKey:            apiKey,
		Language:          language,
		IncludeTimestamps: timestamps || tc.IncludeTimestamps,
		Model:             model,
	}

	a.printf("Transcribing: %s", input)
	a.printf("Using model: %s", model)

	var (
		transcript string
		err        error
	)
	if chunked {
		a.printf("Using chunked transcription (%d min chunks)...", chunkMinutes)
		transcript, err = a.services.Transcriber.TranscribeChunked(ctx, input, transcription.ChunkOptions{
			Options:      opts,
			ChunkMinutes: chunkMinutes,
			Delay:        a.cfg.ChunkDelay(),
		})
	} else {
		transcript, err = a.services.Transcriber.Transcribe(ctx, input, opts)
	}
	if err != nil {
		return a.fail("Error", err)
	}

	if output == "" {
		output = transcriptPath(a.cfg.Local.OutputDir, input)
	}
	if err := writeTranscript(output, transcript); err != nil {
		return a.fail("Error", err)
	}
	a.successf("Transcript saved to: %s", output)
	return exitOK
}

func (a *App) runSummarize(ctx context.Context, args []string) int {
	const op = "handlers.summarize"

	fs := a.newFlagSet("summarize")
	var input, title, output string
	stringVar(fs, &input, "input", "i", "", "transcript file (required)")
	stringVar(fs, &title, "title", "t", "", "episode title (required)")
	stringVar(fs, &output, "output", "o", "", "output directory (default <output_dir>/descriptions)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if input == "" {
		return a.missingFlag(fs, "input")
	}
	if title == "" {
		return a.missingFlag(fs, "title")
	}

	apiKey, ok := a.requireAPIKey()
	if !ok {
		return exitError
	}

	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return a.fail("Error", errors.NotFound(op, err, "Transcript file not found: "+input))
		}
		return a.fail("Error", err)
	}

	a.printf("Generating descriptions for: %s", title)
	descriptions, err := a.services.Summarizer.Generate(ctx, string(data), title, a.summaryOptions(apiKey))
	if err != nil {
		return a.fail("Error", err)
	}

	if output == "" {
		output = filepath.Join(a.cfg.Local.OutputDir, descriptionsDir)
	}
	path := descriptionsPath(output, input)
	if err := writeDescriptions(path, descriptions); err != nil {
		return a.fail("Error", err)
	}

	a.successf("Descriptions saved to: %s", path)
	a.printf("\nYouTube Title: %s", descriptions.YouTubeTitle)
	a.printf("Tags: %s", strings.Join(descriptions.Tags, ", "))
	return exitOK
}

func (a *App) summaryOptions(apiKey string) summary.Options {
	sc := a.cfg.Summary
	return summary.Options{
		APIKey:           apiKey,
		Model:            sc.Model,
		YouTubeMaxLength: sc.YouTubeMaxLength,
		SpotifyMaxLength: sc.SpotifyMaxLength,
		GenerateTags:     sc.GenerateTags,
		MaxTags:          sc.MaxTags,
	}
}

func (a *App) runProcess(ctx context.Context, args []string) int {
	fs := a.newFlagSet("process")
	var url, title, output string
	stringVar(fs, &url, "url", "u", "", "recording URL (required)")
	stringVar(fs, &title, "title", "t", "", "episode title (required)")
	stringVar(fs, &output, "output", "o", "", "base output directory (default <output_dir>)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if url == "" {
		return a.missingFlag(fs, "url")
	}
	if title == "" {
		return a.missingFlag(fs, "title")
	}

	apiKey, ok := a.requireAPIKey()
	if !ok {
		return exitError
	}

	if output == "" {
		output = a.cfg.Local.OutputDir
	}

	rec := a.startRun(ctx, url, title)
	defer rec.close()

	a.printf("Processing: %s", titleStyle.Render(title))
	a.printf("%s", ruleStyle.Render(rule))

	a.printf("\n%s", stepStyle.Render("[1/4] Downloading video..."))
	rec.enter(ctx, models.StageDownload)
	videoPath, err := a.services.Downloader.Download(ctx, url, filepath.Join(output, audioDir), "")
	if err != nil {
		rec.fail(ctx, models.StageDownload, err)
		return a.failStep("Download error", err)
	}
	rec.run.VideoPath = videoPath
	a.printf("      Downloaded: %s", videoPath)

	a.printf("\n%s", stepStyle.Render("[2/4] Extracting audio..."))
	rec.enter(ctx, models.StageExtraction)
	audioPath, err := a.services.Extractor.Extract(ctx, videoPath, "", true)
	if err != nil {
		rec.fail(ctx, models.StageExtraction, err)
		return a.failStep("Extraction error", err)
	}
	rec.run.AudioPath = audioPath
	a.printf("      Extracted: %s", audioPath)

	a.printf("\n%s", stepStyle.Render("[3/4] Transcribing audio..."))
	rec.enter(ctx, models.StageTranscription)
	tc := a.cfg.Transcription
	transcript, err := a.services.Transcriber.Transcribe(ctx, audioPath, transcription.Options{
		APIKey:            apiKey,
		Language:          tc.Language,
		IncludeTimestamps: tc.IncludeTimestamps,
		Model:             tc.Model,
	})
	if err == nil {
		transcriptFile := transcriptPath(output, audioPath)
		if err = writeTranscript(transcriptFile, transcript); err == nil {
			rec.run.TranscriptPath = transcriptFile
		}
	}
	if err != nil {
		rec.fail(ctx, models.StageTranscription, err)
		return a.failStep("Transcription error", err)
	}
	a.printf("      Transcript: %s", rec.run.TranscriptPath)

	a.printf("\n%s", stepStyle.Render("[4/4] Generating descriptions..."))
	rec.enter(ctx, models.StageSummary)
	descriptions, err := a.services.Summarizer.Generate(ctx, transcript, title, a.summaryOptions(apiKey))
	if err == nil {
		descFile := descriptionsPath(filepath.Join(output, descriptionsDir), audioPath)
		if err = writeDescriptions(descFile, descriptions); err == nil {
			rec.run.DescriptionsPath = descFile
		}
	}
	if err != nil {
		rec.fail(ctx, models.StageSummary, err)
		return a.failStep("Summary error", err)
	}
	a.printf("      Descriptions: %s", rec.run.DescriptionsPath)

	rec.complete(ctx)

	a.printf("\n%s", ruleStyle.Render(rule))
	a.successf("Processing complete!")
	a.printf("\nOutputs:")
	a.printf("  Video:       %s", rec.run.VideoPath)
	a.printf("  Audio:       %s", rec.run.AudioPath)
	a.printf("  Transcript:  %s", rec.run.TranscriptPath)
	a.printf("  Descriptions: %s", rec.run.DescriptionsPath)

	a.archiveOutputs(ctx, rec.run.ID, rec.run.TranscriptPath, rec.run.DescriptionsPath)

	a.printf("\nYouTube Title: %s", descriptions.YouTubeTitle)
	a.printf("Tags: %s", strings.Join(descriptions.Tags, ", "))
	return exitOK
}

func (a *App) runHistory(ctx context.Context, args []string) int {
	const op = "handlers.history"

	fs := a.newFlagSet("history")
	var limit int
	fs.IntVar(&limit, "limit", 20, "number of runs to show")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if !a.cfg.LedgerEnabled() {
		return a.fail("Error", errors.Configuration(op, nil, "database.path is not configured"))
	}

	store, err := a.OpenStore(a.cfg.Database.Path)
	if err != nil {
		return a.fail("Error", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return a.fail("Error", err)
	}
	if len(runs) == 0 {
		a.printf("%s", infoStyle.Render("No runs recorded."))
		return exitOK
	}

	for _, run := range runs {
		status := string(run.Status)
		switch run.Status {
		case models.StatusCompleted:
			status = successStyle.Render(status)
		case models.StatusFailed:
			status = errorStyle.Render(status)
		}
		a.printf("%s  %s  %-13s  %s  %s",
			infoStyle.Render(run.CreatedAt.Local().Format("2006-01-02 15:04")),
			status, run.Stage, run.Title, run.URL)
		if run.Error != "" {
			a.printf("    %s", errorStyle.Render(run.Error))
		}
	}
	return exitOK
}
