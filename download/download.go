package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/middleware"
	"github.com/nijaru/podcast-automation/progress"
	"github.com/nijaru/podcast-automation/validation"
)

const (
	userAgent        = "Mozilla/5.0 (compatible; PodcastAutomation/1.0)"
	videoExtension   = ".mp4"
	defaultChunkSize = 8192
	defaultTimeout   = time.Hour
)

var errStalled = pkgerrors.New("no data received within timeout")

type Options struct {
	// Timeout bounds connecting, waiting for response headers and each gap
	// between body reads. A slow but steady transfer may run longer.
	Timeout      time.Duration
	ChunkSize    int
	ShowProgress bool
	// ProgressOutput receives the progress bar. Defaults to os.Stderr.
	ProgressOutput io.Writer
	Logger         logrus.FieldLogger
}

type Downloader struct {
	Client       *http.Client
	Timeout      time.Duration
	ChunkSize    int
	ShowProgress bool
	ProgressOut  io.Writer
	Logger       logrus.FieldLogger
}

func NewDownloader(opts Options) *Downloader {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	out := opts.ProgressOutput
	if out == nil {
		out = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Downloader{
		Client:       newHTTPClient(timeout, logger),
		Timeout:      timeout,
		ChunkSize:    chunkSize,
		ShowProgress: opts.ShowProgress,
		ProgressOut:  out,
		Logger:       logger,
	}
}

func newHTTPClient(timeout time.Duration, logger logrus.FieldLogger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{
		Transport: middleware.NewLoggingTransport(transport, logger),
	}
}

// Download fetches rawURL into outputDir and returns the written path. The
// file name is filename when given, otherwise derived from the URL, and
// always carries the .mp4 extension.
func (d *Downloader) Download(ctx context.Context, rawURL, outputDir, filename string) (string, error) {
	const op = "download.Download"

	if err := validation.ValidateURL(rawURL); err != nil {
		return "", errors.InvalidInput(op, err, fmt.Sprintf("Invalid URL: %s", rawURL))
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", errors.DownloadFailed(op, err, "Failed to create output directory")
	}

	if filename == "" {
		filename = validation.FilenameFromURL(rawURL)
	} else {
		filename = validation.SanitizeFilename(filename)
	}
	outputPath := filepath.Join(outputDir, validation.EnsureExtension(filename, videoExtension))

	logger := d.Logger.WithFields(logrus.Fields{
		"url":    rawURL,
		"output": outputPath,
	})
	logger.Info("Starting download")

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.DownloadFailed(op, err, "Download failed")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", d.requestError(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.DownloadFailed(op, nil, fmt.Sprintf("HTTP error: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	reporter := progress.Nop
	if d.ShowProgress {
		reporter = progress.New(d.ProgressOut, resp.ContentLength, "Downloading "+filepath.Base(outputPath))
	}

	body := newIdleReader(resp.Body, d.Timeout, func() { cancel(errStalled) })
	written, err := d.writeBody(ctx, op, body, outputPath, reporter)
	body.stop()
	reporter.Finish()
	if err != nil {
		os.Remove(outputPath)
		return "", err
	}

	if written == 0 {
		os.Remove(outputPath)
		return "", errors.DownloadFailed(op, nil, "Downloaded file is empty")
	}

	logger.WithField("bytes", written).Info("Download completed")
	return outputPath, nil
}

func (d *Downloader) writeBody(ctx context.Context, op string, body io.Reader, outputPath string, reporter progress.Reporter) (int64, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, errors.DownloadFailed(op, err, "Failed to create output file")
	}

	buf := make([]byte, d.ChunkSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				return written, errors.DownloadFailed(op, err, "Failed to write downloaded file")
			}
			written += int64(n)
			reporter.Add(int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			return written, d.requestError(ctx, op, readErr)
		}
	}

	if err := f.Close(); err != nil {
		return written, errors.DownloadFailed(op, err, "Failed to write downloaded file")
	}
	return written, nil
}

func (d *Downloader) requestError(ctx context.Context, op string, err error) error {
	if isTimeout(err) || context.Cause(ctx) == errStalled {
		return errors.DownloadFailed(op, err, fmt.Sprintf("Download timed out after %s", d.Timeout))
	}
	var opErr *net.OpError
	if pkgerrors.As(err, &opErr) {
		return errors.DownloadFailed(op, err, "Connection error")
	}
	return errors.DownloadFailed(op, err, "Download failed")
}

func isTimeout(err error) bool {
	if pkgerrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return pkgerrors.As(err, &netErr) && netErr.Timeout()
}

// idleReader calls onIdle when no bytes arrive for timeout.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
}

func newIdleReader(r io.Reader, timeout time.Duration, onIdle func()) *idleReader {
	return &idleReader{r: r, timeout: timeout, timer: time.AfterFunc(timeout, onIdle)}
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) stop() {
	r.timer.Stop()
}
