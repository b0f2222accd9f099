package config

import (
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/errors"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Mode          string              `yaml:"mode"`
	Local         LocalConfig         `yaml:"local"`
	Download      DownloadConfig      `yaml:"download"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Summary       SummaryConfig       `yaml:"summary"`
	Log           LogConfig           `yaml:"log"`
	Database      DatabaseConfig      `yaml:"database"`
	Archive       ArchiveConfig       `yaml:"archive"`
}

type LocalConfig struct {
	OutputDir  string `yaml:"output_dir"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

type DownloadConfig struct {
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	ChunkSize      int  `yaml:"chunk_size"`
	ShowProgress   bool `yaml:"show_progress"`
}

type ExtractionConfig struct {
	AudioCodec     string `yaml:"audio_codec"`
	AudioQuality   string `yaml:"audio_quality"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TranscriptionConfig struct {
	Language          string `yaml:"language"`
	IncludeTimestamps bool   `yaml:"include_timestamps"`
	Model             string `yaml:"model"`
	ChunkMinutes      int    `yaml:"chunk_minutes"`
	ChunkDelaySeconds int    `yaml:"chunk_delay_seconds"`
}

type SummaryConfig struct {
	Model            string `yaml:"model"`
	YouTubeMaxLength int    `yaml:"youtube_max_length"`
	SpotifyMaxLength int    `yaml:"spotify_max_length"`
	GenerateTags     bool   `yaml:"generate_tags"`
	MaxTags          int    `yaml:"max_tags"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ArchiveConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

func Default() *Config {
	return &Config{
		Mode: "local",
		Local: LocalConfig{
			OutputDir:  "./output",
			FFmpegPath: "ffmpeg",
		},
		Download: DownloadConfig{
			TimeoutSeconds: 3600,
			ChunkSize:      8192,
			ShowProgress:   true,
		},
		Extraction: ExtractionConfig{
			AudioCodec:     "libmp3lame",
			AudioQuality:   "2",
			TimeoutSeconds: 3600,
		},
		Transcription: TranscriptionConfig{
			Language:          "en",
			Model:             "gemini-2.5-flash",
			ChunkMinutes:      10,
			ChunkDelaySeconds: 5,
		},
		Summary: SummaryConfig{
			Model:            "gemini-2.5-flash",
			YouTubeMaxLength: 5000,
			SpotifyMaxLength: 4000,
			GenerateTags:     true,
			MaxTags:          10,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return pkgerrors.Wrapf(err, "error loading %s", path)
	}
	return nil
}

// LoadConfig reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	const op = "config.LoadConfig"

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logrus.WithField("path", path).Debug("Config file not found, using defaults")
		case err != nil:
			return nil, errors.Configuration(op, err, "failed to read config file")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Configuration(op, err, "failed to parse config file")
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Local.OutputDir = GetEnv("OUTPUT_DIR", c.Local.OutputDir)
	c.Local.FFmpegPath = GetEnv("FFMPEG_PATH", c.Local.FFmpegPath)
	c.Download.TimeoutSeconds = int(getEnvAsDuration("DOWNLOAD_TIMEOUT", c.DownloadTimeout()) / time.Second)
	c.Transcription.Language = GetEnv("TRANSCRIPTION_LANGUAGE", c.Transcription.Language)
	c.Transcription.Model = GetEnv("TRANSCRIPTION_MODEL", c.Transcription.Model)
	c.Transcription.ChunkMinutes = getEnvAsInt("TRANSCRIPTION_CHUNK_MINUTES", c.Transcription.ChunkMinutes)
	c.Summary.Model = GetEnv("SUMMARY_MODEL", c.Summary.Model)
	c.Log.Dir = GetEnv("LOG_DIR", c.Log.Dir)
	c.Log.Level = GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Debug = getEnvAsBool("DEBUG", c.Log.Debug)
	c.Database.Path = GetEnv("DB_PATH", c.Database.Path)
	c.Archive.Bucket = GetEnv("ARCHIVE_BUCKET", c.Archive.Bucket)
	c.Archive.Region = GetEnv("ARCHIVE_REGION", c.Archive.Region)
	c.Archive.Endpoint = GetEnv("ARCHIVE_ENDPOINT", c.Archive.Endpoint)
	c.Archive.AccessKey = GetEnv("ARCHIVE_ACCESS_KEY", c.Archive.AccessKey)
	c.Archive.SecretKey = GetEnv("ARCHIVE_SECRET_KEY", c.Archive.SecretKey)
	c.Archive.Prefix = GetEnv("ARCHIVE_PREFIX", c.Archive.Prefix)
}

func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

func (c *Config) ExtractionTimeout() time.Duration {
	return time.Duration(c.Extraction.TimeoutSeconds) * time.Second
}

func (c *Config) ChunkDelay() time.Duration {
	return time.Duration(c.Transcription.ChunkDelaySeconds) * time.Second
}

func (c *Config) LedgerEnabled() bool {
	return c.Database.Path != ""
}

func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Bucket != ""
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func (c *Config) Validate() error {
	const op = "config.Validate"

	switch {
	case c.Local.OutputDir == "":
		return errors.Configuration(op, nil, "output directory is required")
	case c.Local.FFmpegPath == "":
		return errors.Configuration(op, nil, "ffmpeg path is required")
	case c.Download.TimeoutSeconds <= 0:
		return errors.Configuration(op, nil, "download timeout must be greater than 0")
	case c.Download.ChunkSize <= 0:
		return errors.Configuration(op, nil, "download chunk size must be greater than 0")
	case c.Extraction.TimeoutSeconds <= 0:
		return errors.Configuration(op, nil, "extraction timeout must be greater than 0")
	case c.Transcription.ChunkMinutes <= 0:
		return errors.Configuration(op, nil, "chunk minutes must be greater than 0")
	case c.Transcription.ChunkDelaySeconds < 0:
		return errors.Configuration(op, nil, "chunk delay must not be negative")
	case c.Summary.YouTubeMaxLength <= 0 || c.Summary.SpotifyMaxLength <= 0:
		return errors.Configuration(op, nil, "description lengths must be greater than 0")
	case c.Summary.MaxTags < 0:
		return errors.Configuration(op, nil, "max tags must not be negative")
	}
	return nil
}
