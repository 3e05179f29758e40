package storage

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/pkg/jobs"
)

// ImageStore is the subset of LocalStorage the cleanup queue wraps.
type ImageStore interface {
	SaveImage(folder string, r io.Reader) (string, error)
	Delete(publicURL string) error
}

// CleanupQueue saves images synchronously and removes replaced ones on a background worker,
// so a slow or failing disk never fails the request that orphaned the file.
type CleanupQueue struct {
	store  ImageStore
	queue  *jobs.Queue[string]
	logger *zap.Logger
}

// NewCleanupQueue wraps store. Call Start before serving and Stop during shutdown.
func NewCleanupQueue(store ImageStore, logger *zap.Logger) *CleanupQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CleanupQueue{store: store, logger: logger}
	c.queue = jobs.New("upload-cleanup", func(_ context.Context, job jobs.Job[string]) error {
		return store.Delete(job.Payload)
	}, jobs.Config{
		Workers:    2,
		BufferSize: 64,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return c
}

// Start launches the cleanup workers.
func (c *CleanupQueue) Start(ctx context.Context) { c.queue.Start(ctx) }

// Stop drains pending deletions.
func (c *CleanupQueue) Stop() { c.queue.Stop() }

// SaveImage stores the upload immediately.
func (c *CleanupQueue) SaveImage(folder string, r io.Reader) (string, error) {
	return c.store.SaveImage(folder, r)
}

// Delete schedules removal of publicURL. When the queue cannot take the job the file is
// removed inline.
func (c *CleanupQueue) Delete(publicURL string) error {
	if publicURL == "" {
		return nil
	}
	if err := c.queue.Enqueue(publicURL); err != nil {
		c.logger.Debug("cleanup queue unavailable, deleting inline", zap.String("url", publicURL), zap.Error(err))
		return c.store.Delete(publicURL)
	}
	return nil
}
