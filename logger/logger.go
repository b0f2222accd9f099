package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "podcast-automation.log"

type Options struct {
	Dir   string
	Level string
	Debug bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup configures the standard logrus logger. The returned Closer releases
// the rotating file sink, if one was opened.
func Setup(opts Options) (io.Closer, error) {
	return configure(logrus.StandardLogger(), opts, os.Stderr)
}

func configure(log *logrus.Logger, opts Options, stderr io.Writer) (io.Closer, error) {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.WarnLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		level = parsed
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if opts.Dir == "" {
		log.SetOutput(stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "error creating log directory")
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, logFileName),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	if opts.Debug {
		log.SetOutput(io.MultiWriter(stderr, logFile))
	} else {
		log.SetOutput(logFile)
	}

	return logFile, nil
}
