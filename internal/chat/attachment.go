package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

// retainedUpload keeps the bytes of a file until its upload is confirmed so a
// failed upload can be retried.
type retainedUpload struct {
	meta      domain.FileCommonMetadata
	data      []byte
	previewId string
}

// SendAttachment validates file, shows it at once with a local preview and
// uploads it to the active conversation. Invalid files never reach the network.
func (e *Engine) SendAttachment(ctx context.Context, file *domain.PendingFile) (domain.Message, error) {
	if err := e.policy.Validate(file); err != nil {
		kind := domain.KindFile
		if file != nil {
			kind = domain.KindFromMime(file.MimeType)
		}
		sendsTotal.WithLabelValues(string(kind), "rejected").Inc()
		e.notify(NotifyError, err.Error())
		return domain.Message{}, err
	}
	active := e.activeSnapshot()
	if active == nil {
		return domain.Message{}, ErrNoActiveConversation
	}
	if file.Data == nil {
		return domain.Message{}, &internal_errors.ValidationError{Field: "file", Reason: fmt.Sprintf("%s has no content", file.Filename)}
	}
	data, err := io.ReadAll(file.Data)
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to read %s: %w", file.Filename, err)
	}

	upload := &retainedUpload{
		meta:      file.FileCommonMetadata,
		data:      data,
		previewId: e.previews.Put(file.MimeType, data),
	}

	msg := e.newProvisional(active.id, domain.KindFromMime(file.MimeType))
	msg.Attachment = &domain.Attachment{
		FileName:    file.Filename,
		SizeBytes:   file.SizeBytes,
		MimeType:    file.MimeType,
		URL:         PreviewURL(upload.previewId),
		ImageWidth:  file.ImageWidth,
		ImageHeight: file.ImageHeight,
	}
	if err := e.insertProvisional(msg); err != nil {
		e.previews.Release(upload.previewId)
		return domain.Message{}, err
	}

	e.progress.Begin()
	defer e.progress.Finish()
	return e.deliverAttachment(ctx, msg, upload)
}

func (e *Engine) deliverAttachment(ctx context.Context, msg domain.Message, upload *retainedUpload) (domain.Message, error) {
	name := upload.meta.Filename
	e.progress.Set(name, 0)

	confirmed, err := e.transport.UploadAttachment(ctx, domain.AttachmentUpload{
		ConversationId: msg.ConversationId,
		ClientRef:      msg.ClientRef,
		File: &domain.PendingFile{
			FileCommonMetadata: upload.meta,
			Data:               bytes.NewReader(upload.data),
		},
	}, func(percent int) {
		e.progress.Set(name, percent)
		e.setUploadProgress(msg, percent)
	})
	if err != nil {
		delivered, ok := e.deliveredByPoll(msg)
		if !ok {
			e.progress.Fail(name)
			e.mu.Lock()
			e.retained[msg.ClientRef] = upload
			e.mu.Unlock()
			return e.fail(msg, err)
		}
		logger.Log.Info("upload failed after the server stored the message",
			"component", "attachments",
			"message_id", delivered.Id,
			"client_ref", msg.ClientRef,
			"error", err)
		confirmed = delivered
	}

	e.progress.Set(name, 100)
	if confirmed.Attachment != nil {
		if confirmed.Attachment.FileName == "" {
			confirmed.Attachment.FileName = name
		}
		confirmed.Attachment.Progress = 100
	}
	e.mu.Lock()
	delete(e.retained, msg.ClientRef)
	e.mu.Unlock()
	e.previews.Release(upload.previewId)
	return e.confirm(msg, confirmed), nil
}

// setUploadProgress mirrors upload progress onto the provisional message.
func (e *Engine) setUploadProgress(msg domain.Message, percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || e.active.id != msg.ConversationId {
		return
	}
	current, ok := e.active.store.Get(msg.Id)
	if !ok || current.Attachment == nil {
		return
	}
	current.Attachment.Progress = percent
	e.active.store.Merge(current)
}
