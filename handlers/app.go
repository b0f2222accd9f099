package handlers

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/audio"
	"github.com/nijaru/podcast-automation/config"
	"github.com/nijaru/podcast-automation/db"
	"github.com/nijaru/podcast-automation/download"
	"github.com/nijaru/podcast-automation/logger"
	"github.com/nijaru/podcast-automation/models"
	"github.com/nijaru/podcast-automation/storage"
	"github.com/nijaru/podcast-automation/summary"
	"github.com/nijaru/podcast-automation/transcription"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	programName = "podcast-automation"
)

type Downloader interface {
	Download(ctx context.Context, rawURL, outputDir, filename string) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, videoPath, outputPath string, overwrite bool) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts transcription.Options) (string, error)
	TranscribeChunked(ctx context.Context, audioPath string, opts transcription.ChunkOptions) (string, error)
}

type Summarizer interface {
	Generate(ctx context.Context, transcript, title string, opts summary.Options) (*models.Descriptions, error)
}

// RunStore records process runs.
type RunStore interface {
	CreateRun(ctx context.Context, url, title string) (*models.Run, error)
	UpdateRun(ctx context.Context, run *models.Run) error
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	Close() error
}

// Archiver copies finished outputs to object storage.
type Archiver interface {
	Bucket() string
	Key(runID, localPath string) string
	UploadFile(ctx context.Context, localPath, key string) error
}

// Services are the pipeline stages a command can call.
type Services struct {
	Downloader  Downloader
	Extractor   Extractor
	Transcriber Transcriber
	Summarizer  Summarizer
}

type App struct {
	Stdout     io.Writer
	Stderr     io.Writer
	DotEnvPath string

	NewServices func(cfg *config.Config, progressOut io.Writer, log logrus.FieldLogger) Services
	OpenStore   func(path string) (RunStore, error)
	NewArchiver func(ctx context.Context, cfg storage.Config) (Archiver, error)
	SetupLogger func(opts logger.Options) (io.Closer, error)
	Logger      logrus.FieldLogger

	cfg      *config.Config
	services Services
}

func NewApp() *App {
	return &App{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		DotEnvPath:  ".env",
		NewServices: DefaultServices,
		OpenStore:   openStore,
		NewArchiver: newArchiver,
		SetupLogger: logger.Setup,
		Logger:      logrus.StandardLogger(),
	}
}

// DefaultServices wires the real pipeline stages from cfg, all logging to log.
func DefaultServices(cfg *config.Config, progressOut io.Writer, log logrus.FieldLogger) Services {
	extractor := audio.NewExtractor(audio.Options{
		FFmpegPath:   cfg.Local.FFmpegPath,
		AudioCodec:   cfg.Extraction.AudioCodec,
		AudioQuality: cfg.Extraction.AudioQuality,
		Timeout:      cfg.ExtractionTimeout(),
		Logger:       log,
	})

	transcriber := transcription.NewTranscriptionService(extractor)
	transcriber.Logger = log
	summarizer := summary.NewService()
	summarizer.Logger = log

	return Services{
		Downloader: download.NewDownloader(download.Options{
			Timeout:        cfg.DownloadTimeout(),
			ChunkSize:      cfg.Download.ChunkSize,
			ShowProgress:   cfg.Download.ShowProgress,
			ProgressOutput: progressOut,
			Logger:         log,
		}),
		Extractor:   extractor,
		Transcriber: transcriber,
		Summarizer:  summarizer,
	}
}

func openStore(path string) (RunStore, error) {
	store, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newArchiver(ctx context.Context, cfg storage.Config) (Archiver, error) {
	archiver, err := storage.NewArchiver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return archiver, nil
}

// Run parses global flags, loads configuration and dispatches to a
// subcommand. It returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	global := flag.NewFlagSet(programName, flag.ContinueOnError)
	global.SetOutput(a.Stderr)

	var (
		configPath string
		debug      bool
	)
	stringVar(global, &configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	global.BoolVar(&debug, "debug", false, "enable debug logging")
	global.Usage = func() { a.usage(global) }

	if code, ok := parseFlags(global, args); !ok {
		return code
	}

	rest := global.Args()
	if len(rest) == 0 {
		a.usage(global)
		return exitUsage
	}

	if isSet(global, "config", "c") {
		if _, err := os.Stat(configPath); err != nil {
			a.errorf("Error: config file %q does not exist", configPath)
			return exitUsage
		}
	}

	if err := config.LoadDotEnv(a.DotEnvPath); err != nil {
		return a.fail("Error", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return a.fail("Error", err)
	}
	if debug {
		cfg.Log.Debug = true
	}

	closer, err := a.SetupLogger(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Debug: cfg.Log.Debug})
	if err != nil {
		return a.fail("Error", err)
	}
	defer closer.Close()

	a.cfg = cfg
	a.services = a.NewServices(cfg, a.Stderr, a.Logger)

	cmd, cmdArgs := rest[0], rest[1:]
	a.Logger.WithField("command", cmd).Debug("Running command")

	switch cmd {
	case "download":
		return a.runDownload(ctx, cmdArgs)
	case "extract":
		return a.runExtract(ctx, cmdArgs)
	case "transcribe":
		return a.runTranscribe(ctx, cmdArgs)
	case "summarize":
		return a.runSummarize(ctx, cmdArgs)
	case "process":
		return a.runProcess(ctx, cmdArgs)
	case "history":
		return a.runHistory(ctx, cmdArgs)
	default:
		a.errorf("Error: unknown command %q", cmd)
		a.usage(global)
		return exitUsage
	}
}

func (a *App) usage(fs *flag.FlagSet) {
	fmt.Fprintln(a.Stderr, titleStyle.Render("Podcast automation pipeline"))
	fmt.Fprintf(a.Stderr, "\nUsage: %s [flags] <command> [command flags]\n\n", programName)
	fmt.Fprintln(a.Stderr, "Commands:")
	fmt.Fprintln(a.Stderr, "  download    Download a recording")
	fmt.Fprintln(a.Stderr, "  extract     Extract audio from a video file")
	fmt.Fprintln(a.Stderr, "  transcribe  Transcribe an audio file")
	fmt.Fprintln(a.Stderr, "  summarize   Generate platform descriptions from a transcript")
	fmt.Fprintln(a.Stderr, "  process     Run the full pipeline")
	fmt.Fprintln(a.Stderr, "  history     List recorded pipeline runs")
	fmt.Fprintln(a.Stderr, "\nFlags:")
	fs.PrintDefaults()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Stdout, format+"\n", args...)
}

func (a *App) successf(format string, args ...any) {
	fmt.Fprintln(a.Stdout, successStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) errorf(format string, args ...any) {
	fmt.Fprintln(a.Stderr, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) warnf(format string, args ...any) {
	fmt.Fprintln(a.Stderr, warningStyle.Render(fmt.Sprintf(format, args...)))
}

// fail prints err under prefix and returns the domain-error exit code.
func (a *App) fail(prefix string, err error) int {
	a.Logger.WithError(err).Debug(prefix)
	a.errorf("%s: %v", prefix, err)
	return exitError
}

// failStep separates a pipeline step failure from the step's progress output.
func (a *App) failStep(prefix string, err error) int {
	fmt.Fprintln(a.Stderr)
	return a.fail(prefix, err)
}

func stringVar(fs *flag.FlagSet, p *string, long, short, value, usage string) {
	fs.StringVar(p, long, value, usage)
	if short != "" {
		fs.StringVar(p, short, value, "shorthand for --"+long)
	}
}

func boolVar(fs *flag.FlagSet, p *bool, long, short string, usage string) {
	fs.BoolVar(p, long, false, usage)
	if short != "" {
		fs.BoolVar(p, short, false, "shorthand for --"+long)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK, false
		}
		return exitUsage, false
	}
	return exitOK, true
}

func isSet(fs *flag.FlagSet, names ...string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				set = true
			}
		}
	})
	return set
}

func (a *App) missingFlag(fs *flag.FlagSet, name string) int {
	a.errorf("Error: missing required flag --%s", name)
	fs.PrintDefaults()
	return exitUsage
}
