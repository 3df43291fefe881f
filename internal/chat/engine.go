package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/logger"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

// Transport is the message side of the backend.
type Transport interface {
	MessageFetcher
	ConversationLister
	CreateMessage(ctx context.Context, draft domain.MessageDraft) (domain.Message, error)
	UploadAttachment(ctx context.Context, upload domain.AttachmentUpload, progress domain.ProgressFunc) (domain.Message, error)
	DocumentUploader
}

type Options struct {
	Viewer    domain.Viewer
	Transport Transport
	Directory Directory

	Policy             validation.AttachmentPolicy
	PollInterval       time.Duration
	PageSize           int
	ProgressClearDelay time.Duration
	BatchDelay         time.Duration

	Previews *PreviewRegistry // shared with the HTTP layer; created when nil
	Now      func() time.Time
}

type NotificationLevel string

const (
	NotifyInfo  NotificationLevel = "info"
	NotifyError NotificationLevel = "error"
)

// Notification is a user-visible message produced by a user action.
type Notification struct {
	Level   NotificationLevel
	Message string
	At      time.Time
}

const maxNotifications = 50

type activeConversation struct {
	key        string
	id         domain.ConversationId
	store      *Store
	reconciler *Reconciler
}

// Engine keeps the conversation state of one viewer in sync with the backend.
type Engine struct {
	viewer       domain.Viewer
	transport    Transport
	policy       validation.AttachmentPolicy
	pollInterval time.Duration
	pageSize     int
	now          func() time.Time

	chats    *ChatList
	progress *ProgressTracker
	batch    *BatchUploader
	previews *PreviewRegistry
	ids      *provisionalIds

	ctx    context.Context
	cancel context.CancelFunc

	selectMu sync.Mutex // serializes conversation switches

	mu            sync.Mutex
	active        *activeConversation
	polling       bool
	closed        bool
	scrollSeq     uint64
	notifications []Notification
	retained      map[string]*retainedUpload // failed uploads kept for retry, by client ref
}

func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	previews := opts.Previews
	if previews == nil {
		previews = NewPreviewRegistry()
	}
	progress := NewProgressTracker(opts.ProgressClearDelay)
	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		viewer:       opts.Viewer,
		transport:    opts.Transport,
		policy:       opts.Policy,
		pollInterval: opts.PollInterval,
		pageSize:     opts.PageSize,
		now:          now,
		chats:        NewChatList(opts.Viewer, opts.Transport, opts.Directory),
		progress:     progress,
		batch:        NewBatchUploader(opts.Transport, opts.Policy, progress, opts.BatchDelay),
		previews:     previews,
		ids:          &provisionalIds{},
		ctx:          ctx,
		cancel:       cancel,
		retained:     make(map[string]*retainedUpload),
	}
}

func (e *Engine) Viewer() domain.Viewer { return e.viewer }

func (e *Engine) Previews() *PreviewRegistry { return e.previews }

// Refresh reloads the conversation list.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := e.chats.Load(ctx); err != nil {
		logger.Log.Warn("failed to load conversations",
			"component", "engine",
			"viewer_id", e.viewer.Id,
			"error", err)
		return err
	}
	return nil
}

func (e *Engine) Conversations() []domain.Conversation {
	return e.chats.List()
}

// ActiveConversation returns the selected conversation, if any.
func (e *Engine) ActiveConversation() (domain.Conversation, bool) {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active == nil {
		return domain.Conversation{}, false
	}
	return e.chats.Get(active.key)
}

// Messages returns the active conversation's messages in display order.
func (e *Engine) Messages() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	return e.active.store.Messages()
}

// ScrollSeq increases every time the view should scroll to the latest message.
func (e *Engine) ScrollSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrollSeq
}

func (e *Engine) Progress() map[string]int {
	return e.progress.Snapshot()
}

// SelectConversation makes the conversation behind key active. A virtual
// conversation is promoted first. The previous reconciler is stopped before
// the initial load of the new conversation.
func (e *Engine) SelectConversation(ctx context.Context, key string) error {
	e.selectMu.Lock()
	defer e.selectMu.Unlock()

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrEngineClosed
	}

	if _, ok := e.chats.Get(key); !ok {
		if err := e.Refresh(ctx); err != nil {
			return err
		}
	}
	id, err := e.chats.Promote(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrConversationNotFound) {
			e.notify(NotifyError, "Could not open conversation: "+err.Error())
		}
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	old := e.active
	if old != nil && old.id == id {
		e.mu.Unlock()
		return nil
	}
	rec := NewReconciler(ReconcilerOpts{
		ConversationId: id,
		Fetcher:        e.transport,
		Apply: func(conversationId domain.ConversationId, msgs []domain.Message) error {
			return e.apply(conversationId, msgs, "poll")
		},
		OnNewMessages: e.scrollToLatest,
		Interval:      e.pollInterval,
		PageSize:      e.pageSize,
	})
	e.active = &activeConversation{key: key, id: id, store: NewStore(id), reconciler: rec}
	polling := e.polling
	e.mu.Unlock()

	if old != nil {
		old.reconciler.Stop()
	}

	logger.Log.Debug("conversation selected",
		"component", "engine",
		"viewer_id", e.viewer.Id,
		"conversation_id", id)

	msgs, loadErr := e.transport.FetchMessages(ctx, id, domain.MessageQuery{Limit: e.pageSize})
	if loadErr == nil {
		if err := e.apply(id, msgs, "load"); err != nil {
			return err
		}
		rec.Advance(maxMessageId(msgs))
		e.scrollToLatest(id)
		e.chats.MarkRead(id, e.now())
	} else {
		e.notify(NotifyError, "Could not load messages: "+loadErr.Error())
	}

	if polling {
		rec.Start(e.ctx)
	}
	return loadErr
}

// apply merges msgs into the active store. It is the only path by which
// fetched or confirmed messages reach the store.
func (e *Engine) apply(conversationId domain.ConversationId, msgs []domain.Message, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || e.active.id != conversationId {
		var activeId domain.ConversationId
		if e.active != nil {
			activeId = e.active.id
		}
		return &internal_errors.StaleResponseError{ConversationId: conversationId, ActiveId: activeId}
	}
	for i := range msgs {
		if msgs[i].ConversationId == 0 {
			msgs[i].ConversationId = conversationId
		}
	}
	res := e.active.store.Merge(msgs...)
	if n := res.Added + res.Replaced; n > 0 {
		mergedMessagesTotal.WithLabelValues(source).Add(float64(n))
	}
	if latest, ok := latestConfirmed(msgs); ok && source != "send" {
		e.chats.Touch(conversationId, latest)
		e.chats.MarkRead(conversationId, e.now())
	}
	return nil
}

func (e *Engine) scrollToLatest(conversationId domain.ConversationId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil && e.active.id == conversationId {
		e.scrollSeq++
	}
}

// StartPolling enables background reconciliation for the active conversation
// and every conversation selected afterwards.
func (e *Engine) StartPolling() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.polling = true
	active := e.active
	e.mu.Unlock()
	if active != nil {
		active.reconciler.Start(e.ctx)
	}
}

func (e *Engine) StopPolling() {
	e.mu.Lock()
	e.polling = false
	active := e.active
	e.mu.Unlock()
	if active != nil {
		active.reconciler.Stop()
	}
}

func (e *Engine) Polling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.polling
}

// PollNow runs one reconciliation tick for the active conversation.
func (e *Engine) PollNow(ctx context.Context) (int, error) {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active == nil {
		return 0, ErrNoActiveConversation
	}
	return active.reconciler.Tick(ctx)
}

// Close stops polling and drops local state. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.polling = false
	active := e.active
	retained := e.retained
	e.retained = make(map[string]*retainedUpload)
	e.mu.Unlock()

	e.cancel()
	if active != nil {
		active.reconciler.Stop()
	}
	for _, r := range retained {
		e.previews.Release(r.previewId)
	}
	e.progress.Stop()
}

func (e *Engine) notify(level NotificationLevel, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = append(e.notifications, Notification{Level: level, Message: message, At: e.now()})
	if len(e.notifications) > maxNotifications {
		e.notifications = e.notifications[len(e.notifications)-maxNotifications:]
	}
}

// Notifications drains the pending user-visible notifications.
func (e *Engine) Notifications() []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.notifications
	e.notifications = nil
	return out
}

// UploadDocuments uploads files to a clinical request one after another.
func (e *Engine) UploadDocuments(ctx context.Context, requestId domain.ClinicalRequestId, files []*domain.PendingFile) (BatchResult, error) {
	res, err := e.batch.Upload(ctx, requestId, files)
	if err != nil {
		e.notify(NotifyError, "Some documents were not uploaded: "+err.Error())
	}
	return res, err
}

func (e *Engine) activeSnapshot() *activeConversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func maxMessageId(msgs []domain.Message) domain.MsgId {
	var max domain.MsgId
	for i := range msgs {
		if msgs[i].Id > max {
			max = msgs[i].Id
		}
	}
	return max
}

func latestConfirmed(msgs []domain.Message) (domain.Message, bool) {
	var (
		latest domain.Message
		found  bool
	)
	for i := range msgs {
		m := &msgs[i]
		if m.IsProvisional() {
			continue
		}
		if !found || m.CreatedAt.After(latest.CreatedAt) || (m.CreatedAt.Equal(latest.CreatedAt) && m.Id > latest.Id) {
			latest, found = *m, true
		}
	}
	return latest, found
}
