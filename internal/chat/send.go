package chat

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

// provisionalIds hands out negative ids, unique for the lifetime of a session.
type provisionalIds struct {
	n atomic.Int64
}

func (p *provisionalIds) Next() domain.MsgId {
	return -p.n.Add(1)
}

// newProvisional builds a locally originated message for the conversation.
func (e *Engine) newProvisional(conversationId domain.ConversationId, kind domain.MessageKind) domain.Message {
	return domain.Message{
		Id:             e.ids.Next(),
		ConversationId: conversationId,
		SenderId:       e.viewer.Id,
		SenderType:     e.viewer.Role,
		SenderName:     e.viewer.Name,
		Kind:           kind,
		Status:         domain.StatusSent,
		CreatedAt:      e.now(),
		ClientRef:      uuid.NewString(),
		SendState:      domain.SendCreated,
	}
}

// insertProvisional puts msg into the active store in the pending state.
func (e *Engine) insertProvisional(msg domain.Message) error {
	msg.SendState = domain.SendPending
	if err := e.apply(msg.ConversationId, []domain.Message{msg}, "send"); err != nil {
		return err
	}
	e.scrollToLatest(msg.ConversationId)
	return nil
}

// Send posts text to the active conversation. The message is shown at once
// with a provisional id and replaced in place when the server confirms it.
func (e *Engine) Send(ctx context.Context, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		sendsTotal.WithLabelValues(string(domain.KindText), "rejected").Inc()
		return domain.Message{}, ErrEmptyMessage
	}
	active := e.activeSnapshot()
	if active == nil {
		return domain.Message{}, ErrNoActiveConversation
	}

	msg := e.newProvisional(active.id, domain.KindText)
	msg.Content = text
	if err := e.insertProvisional(msg); err != nil {
		return domain.Message{}, err
	}
	return e.deliver(ctx, msg)
}

// Retry re-sends a failed provisional message with its original client
// reference.
func (e *Engine) Retry(ctx context.Context, id domain.MsgId) (domain.Message, error) {
	msg, retained, err := e.claimRetry(id)
	if err != nil {
		return domain.Message{}, err
	}

	logger.Log.Info("retrying message",
		"component", "send",
		"conversation_id", msg.ConversationId,
		"client_ref", msg.ClientRef)

	if msg.Attachment != nil {
		e.progress.Begin()
		defer e.progress.Finish()
		return e.deliverAttachment(ctx, msg, retained)
	}
	return e.deliver(ctx, msg)
}

// claimRetry moves a failed provisional message back to pending under one
// lock; concurrent retries of the same message get ErrNotRetryable.
func (e *Engine) claimRetry(id domain.MsgId) (domain.Message, *retainedUpload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return domain.Message{}, nil, ErrNoActiveConversation
	}
	msg, ok := e.active.store.Get(id)
	if !ok || !msg.IsProvisional() {
		return domain.Message{}, nil, ErrMessageNotFound
	}
	if msg.SendState != domain.SendFailed {
		return domain.Message{}, nil, ErrNotRetryable
	}
	retained := e.retained[msg.ClientRef]
	if msg.Attachment != nil {
		if retained == nil {
			return domain.Message{}, nil, ErrNotRetryable
		}
		msg.Attachment.Progress = 0
	}
	msg.SendState = domain.SendPending
	e.active.store.Merge(msg)
	return msg, retained, nil
}

func (e *Engine) deliver(ctx context.Context, msg domain.Message) (domain.Message, error) {
	confirmed, err := e.transport.CreateMessage(ctx, domain.MessageDraft{
		ConversationId: msg.ConversationId,
		Content:        msg.Content,
		ClientRef:      msg.ClientRef,
	})
	if err != nil {
		return e.fail(msg, err)
	}
	return e.confirm(msg, confirmed), nil
}

// confirm merges the server copy over the provisional entry and updates the
// conversation list. The list is updated even when the user has switched away.
func (e *Engine) confirm(provisional, confirmed domain.Message) domain.Message {
	if confirmed.ClientRef == "" {
		confirmed.ClientRef = provisional.ClientRef
	}
	if confirmed.ConversationId == 0 {
		confirmed.ConversationId = provisional.ConversationId
	}
	if confirmed.SenderName == "" {
		confirmed.SenderName = provisional.SenderName
	}
	if confirmed.CreatedAt.IsZero() {
		confirmed.CreatedAt = provisional.CreatedAt
	}
	confirmed.SendState = domain.SendConfirmed

	if err := e.apply(provisional.ConversationId, []domain.Message{confirmed}, "send"); err != nil && !internal_errors.IsStale(err) {
		logger.Log.Error("failed to merge confirmed message",
			"component", "send",
			"conversation_id", provisional.ConversationId,
			"error", err)
	}
	e.chats.Touch(provisional.ConversationId, confirmed)
	sendsTotal.WithLabelValues(string(confirmed.Kind), "confirmed").Inc()
	return confirmed
}

// deliveredByPoll returns the server copy of msg when a poll merged it while
// the send was still in flight.
func (e *Engine) deliveredByPoll(msg domain.Message) (domain.Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || e.active.id != msg.ConversationId {
		return domain.Message{}, false
	}
	if _, ok := e.active.store.Get(msg.Id); ok {
		return domain.Message{}, false
	}
	return e.active.store.Confirmed(msg.ClientRef)
}

// fail flags the provisional entry as failed; it stays visible for retry.
// A send the server accepted before the error surfaced counts as confirmed.
func (e *Engine) fail(msg domain.Message, cause error) (domain.Message, error) {
	if delivered, ok := e.deliveredByPoll(msg); ok {
		logger.Log.Info("send failed after the server stored the message",
			"component", "send",
			"conversation_id", msg.ConversationId,
			"message_id", delivered.Id,
			"client_ref", msg.ClientRef,
			"error", cause)
		e.chats.Touch(msg.ConversationId, delivered)
		sendsTotal.WithLabelValues(string(msg.Kind), "confirmed").Inc()
		return delivered, nil
	}

	msg.SendState = domain.SendFailed
	if msg.Attachment != nil {
		msg.Attachment.Progress = domain.ProgressFailed
	}
	if err := e.apply(msg.ConversationId, []domain.Message{msg}, "send"); err != nil && !internal_errors.IsStale(err) {
		logger.Log.Error("failed to flag message as failed",
			"component", "send",
			"conversation_id", msg.ConversationId,
			"error", err)
	}
	sendsTotal.WithLabelValues(string(msg.Kind), "failed").Inc()
	logger.Log.Warn("message send failed",
		"component", "send",
		"conversation_id", msg.ConversationId,
		"client_ref", msg.ClientRef,
		"error", cause)
	e.notify(NotifyError, "Message could not be sent: "+cause.Error())
	return msg, cause
}
