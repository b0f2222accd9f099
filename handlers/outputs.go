package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/models"
	"github.com/nijaru/podcast-automation/storage"
)

// runRecorder tracks one process run. The store is nil when the ledger is
// disabled or could not be opened; recording failures never stop the
// pipeline.
type runRecorder struct {
	store  RunStore
	run    *models.Run
	logger logrus.FieldLogger
}

func (a *App) startRun(ctx context.Context, url, title string) *runRecorder {
	rec := &runRecorder{
		run: &models.Run{
			ID:     uuid.New().String(),
			URL:    url,
			Title:  title,
			Status: models.StatusInProgress,
			Stage:  models.StageDownload,
		},
		logger: a.Logger,
	}
	if !a.cfg.LedgerEnabled() {
		return rec
	}

	store, err := a.OpenStore(a.cfg.Database.Path)
	if err != nil {
		a.Logger.WithError(err).Warn("Run ledger unavailable")
		return rec
	}

	run, err := store.CreateRun(ctx, url, title)
	if err != nil {
		a.Logger.WithError(err).Warn("Failed to record run")
		store.Close()
		return rec
	}

	rec.store = store
	rec.run = run
	rec.logger = a.Logger.WithField("run_id", run.ID)
	return rec
}

func (r *runRecorder) enter(ctx context.Context, stage models.Stage) {
	r.run.Stage = stage
	r.save(ctx)
}

func (r *runRecorder) fail(ctx context.Context, stage models.Stage, err error) {
	r.run.Fail(stage, err)
	r.save(ctx)
}

func (r *runRecorder) complete(ctx context.Context) {
	r.run.Complete()
	r.save(ctx)
}

func (r *runRecorder) save(ctx context.Context) {
	if r.store == nil {
		return
	}
	// Cancellation should not stop the final status from being written.
	if err := r.store.UpdateRun(context.WithoutCancel(ctx), r.run); err != nil {
		r.logger.WithError(err).Warn("Failed to update run")
	}
}

func (r *runRecorder) close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.WithError(err).Warn("Failed to close run ledger")
	}
}

// archiveOutputs copies the given files to object storage when an archive
// bucket is configured.
func (a *App) archiveOutputs(ctx context.Context, runID string, paths ...string) {
	if !a.cfg.ArchiveEnabled() {
		return
	}

	ac := a.cfg.Archive
	archiver, err := a.NewArchiver(ctx, storage.Config{
		Bucket:    ac.Bucket,
		Region:    ac.Region,
		Endpoint:  ac.Endpoint,
		AccessKey: ac.AccessKey,
		SecretKey: ac.SecretKey,
		Prefix:    ac.Prefix,
	})
	if err != nil {
		a.Logger.WithError(err).Warn("Archive unavailable")
		a.warnf("Warning: outputs were not archived: %v", err)
		return
	}

	for _, path := range paths {
		key := archiver.Key(runID, path)
		if err := archiver.UploadFile(ctx, path, key); err != nil {
			a.Logger.WithError(err).WithField("path", path).Warn("Failed to archive output")
			a.warnf("Warning: failed to archive %s: %v", path, err)
			continue
		}
		a.printf("  Archived:    s3://%s/%s", archiver.Bucket(), key)
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func transcriptPath(outputDir, audioPath string) string {
	return filepath.Join(outputDir, transcriptsDir, fileStem(audioPath)+"_transcript.txt")
}

func descriptionsPath(dir, sourcePath string) string {
	return filepath.Join(dir, fileStem(sourcePath)+"_descriptions.yaml")
}

func writeTranscript(path, transcript string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.Wrap(err, "failed to create transcript directory")
	}
	if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
		return pkgerrors.Wrap(err, "failed to write transcript")
	}
	return nil
}

func writeDescriptions(path string, descriptions *models.Descriptions) error {
	data, err := yaml.Marshal(descriptions)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode descriptions")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.Wrap(err, "failed to create descriptions directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pkgerrors.Wrap(err, "failed to write descriptions")
	}
	return nil
}
