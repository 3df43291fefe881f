package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/logger"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

const DefaultBatchDelay = time.Second

type DocumentUploader interface {
	UploadDocument(ctx context.Context, requestId domain.ClinicalRequestId, file *domain.PendingFile, progress domain.ProgressFunc) error
}

type FileOutcome struct {
	FileName string
	Err      error // nil when uploaded
}

type BatchResult struct {
	Files []FileOutcome
}

func (r BatchResult) Uploaded() int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil {
			n++
		}
	}
	return n
}

// BatchUploader sends clinical-request documents one at a time with a pause
// between uploads.
type BatchUploader struct {
	uploader DocumentUploader
	policy   validation.AttachmentPolicy
	progress *ProgressTracker
	delay    time.Duration
}

func NewBatchUploader(uploader DocumentUploader, policy validation.AttachmentPolicy, progress *ProgressTracker, delay time.Duration) *BatchUploader {
	if delay < 0 {
		delay = DefaultBatchDelay
	}
	return &BatchUploader{uploader: uploader, policy: policy, progress: progress, delay: delay}
}

// Upload validates and uploads every file in order. A failing file is marked
// failed and the batch moves on; the returned error joins every failure.
func (b *BatchUploader) Upload(ctx context.Context, requestId domain.ClinicalRequestId, files []*domain.PendingFile) (BatchResult, error) {
	b.progress.Begin()
	defer b.progress.Finish()

	var (
		res      BatchResult
		errs     []error
		attempts int
	)
	for i, f := range files {
		name := fmt.Sprintf("file #%d", i+1)
		if f != nil {
			name = f.Filename
		}

		if err := b.policy.Validate(f); err != nil {
			b.progress.Fail(name)
			documentUploadsTotal.WithLabelValues("rejected").Inc()
			res.Files = append(res.Files, FileOutcome{FileName: name, Err: err})
			errs = append(errs, err)
			continue
		}

		if attempts > 0 {
			if err := sleepCtx(ctx, b.delay); err != nil {
				for _, rest := range files[i:] {
					if rest == nil {
						continue
					}
					b.progress.Fail(rest.Filename)
					res.Files = append(res.Files, FileOutcome{FileName: rest.Filename, Err: err})
				}
				errs = append(errs, err)
				break
			}
		}
		attempts++

		b.progress.Set(name, 0)
		err := b.uploader.UploadDocument(ctx, requestId, f, func(percent int) {
			b.progress.Set(name, percent)
		})
		if err != nil {
			b.progress.Fail(name)
			documentUploadsTotal.WithLabelValues("failed").Inc()
			logger.Log.Warn("document upload failed",
				"component", "batch",
				"request_id", requestId,
				"file", name,
				"error", err)
			err = fmt.Errorf("%s: %w", name, err)
			res.Files = append(res.Files, FileOutcome{FileName: name, Err: err})
			errs = append(errs, err)
			continue
		}
		b.progress.Set(name, 100)
		documentUploadsTotal.WithLabelValues("uploaded").Inc()
		res.Files = append(res.Files, FileOutcome{FileName: name})
	}
	return res, errors.Join(errs...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
