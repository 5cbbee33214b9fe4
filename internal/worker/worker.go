// Package worker processes background jobs from the Redis queue.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/pkg/queue"
	"github.com/weddingbets/backend/pkg/storage"
)

// maxRawSelfie bounds how much of a raw upload is read.
const maxRawSelfie = 20 << 20

// Objects is the object storage the selfie job reads from and writes to.
type Objects interface {
	GetObjectStream(ctx context.Context, bucket, key string) (io.ReadCloser, string, error)
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Compressor shrinks an image below the upload cap.
type Compressor interface {
	Compress(data []byte) ([]byte, string, error)
}

// SelfieSetter stores the processed selfie location on the user.
type SelfieSetter interface {
	SetSelfieURL(ctx context.Context, userID uuid.UUID, url string) error
}

// JobQueue is the queue side the worker consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// SelfieProcessor compresses raw selfies, publishes them and records the URL on the user.
type SelfieProcessor struct {
	users      SelfieSetter
	objects    Objects
	bucket     string
	compressor Compressor
	queue      JobQueue
	logger     *zap.Logger
	backoff    time.Duration
}

// NewSelfieProcessor creates a selfie processor.
func NewSelfieProcessor(users SelfieSetter, objects Objects, bucket string, compressor Compressor, q JobQueue, logger *zap.Logger) *SelfieProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelfieProcessor{
		users:      users,
		objects:    objects,
		bucket:     bucket,
		compressor: compressor,
		queue:      q,
		logger:     logger,
		backoff:    queue.RetryBackoff,
	}
}

// Process executes one selfie job.
func (p *SelfieProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeSelfieProcess {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.SelfiePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	body, _, err := p.objects.GetObjectStream(ctx, p.bucket, payload.RawKey)
	if err != nil {
		return fmt.Errorf("fetch raw selfie: %w", err)
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxRawSelfie))
	_ = body.Close()
	if err != nil {
		return fmt.Errorf("read raw selfie: %w", err)
	}

	out, contentType, err := p.compressor.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress selfie: %w", err)
	}
	key := storage.SelfieKey(payload.UserID)
	url, err := p.objects.Upload(ctx, p.bucket, key, contentType, bytes.NewReader(out), int64(len(out)), true)
	if err != nil {
		return fmt.Errorf("upload selfie: %w", err)
	}
	if err := p.users.SetSelfieURL(ctx, payload.UserID, url); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := p.objects.DeleteObject(ctx, p.bucket, payload.RawKey); err != nil {
		p.logger.Warn("raw selfie not deleted", zap.String("key", payload.RawKey), zap.Error(err))
	}

	p.logger.Info("selfie processed", zap.String("user_id", payload.UserID.String()), zap.String("key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *SelfieProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("selfie worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *SelfieProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
