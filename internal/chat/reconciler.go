package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

const DefaultPollInterval = 2 * time.Second

// ErrTickInFlight is returned by Tick when a fetch for the same conversation
// has not finished yet.
var ErrTickInFlight = &internal_errors.ErrorWithStatusCode{Message: "poll already in flight", StatusCode: http.StatusConflict}

// MessageFetcher is the part of the transport the reconciler needs.
type MessageFetcher interface {
	FetchMessages(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error)
}

// ApplyFunc merges fetched messages into the active store. It returns a
// StaleResponseError when conversationId is no longer active.
type ApplyFunc func(conversationId domain.ConversationId, msgs []domain.Message) error

// Reconciler polls one conversation for messages newer than its cursor.
type Reconciler struct {
	conversationId domain.ConversationId
	fetcher        MessageFetcher
	apply          ApplyFunc
	onNew          func(domain.ConversationId)
	interval       time.Duration
	pageSize       int

	mu       sync.Mutex
	cursor   domain.MsgId
	task     *PeriodicTask
	inFlight atomic.Bool
}

type ReconcilerOpts struct {
	ConversationId domain.ConversationId
	Fetcher        MessageFetcher
	Apply          ApplyFunc
	OnNewMessages  func(domain.ConversationId) // scroll-to-latest signal; optional
	Interval       time.Duration               // defaults to DefaultPollInterval
	PageSize       int                         // 0 lets the server decide
	Cursor         domain.MsgId
}

func NewReconciler(opts ReconcilerOpts) *Reconciler {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	onNew := opts.OnNewMessages
	if onNew == nil {
		onNew = func(domain.ConversationId) {}
	}
	return &Reconciler{
		conversationId: opts.ConversationId,
		fetcher:        opts.Fetcher,
		apply:          opts.Apply,
		onNew:          onNew,
		interval:       interval,
		pageSize:       opts.PageSize,
		cursor:         opts.Cursor,
	}
}

func (r *Reconciler) ConversationId() domain.ConversationId { return r.conversationId }

// Cursor is the last known message id.
func (r *Reconciler) Cursor() domain.MsgId {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Advance moves the cursor forward; it never moves back.
func (r *Reconciler) Advance(id domain.MsgId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id > r.cursor {
		r.cursor = id
	}
}

// Start begins periodic polling. Calling Start on a running reconciler is a no-op.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.task != nil {
		return
	}
	r.task = StartPeriodicTask(ctx, r.interval, r.backgroundTick)
	logger.Log.Debug("polling started",
		"component", "reconciler",
		"conversation_id", r.conversationId,
		"interval", r.interval)
}

// Stop cancels polling and waits for an in-flight tick to return. Idempotent.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	task := r.task
	r.task = nil
	r.mu.Unlock()
	if task == nil {
		return
	}
	task.Stop()
	logger.Log.Debug("polling stopped",
		"component", "reconciler",
		"conversation_id", r.conversationId)
}

func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task != nil
}

// Tick performs one fetch-and-merge cycle and returns the number of messages
// merged.
func (r *Reconciler) Tick(ctx context.Context) (int, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return 0, ErrTickInFlight
	}
	defer r.inFlight.Store(false)

	msgs, err := r.fetcher.FetchMessages(ctx, r.conversationId, domain.MessageQuery{
		SinceId: r.Cursor(),
		Limit:   r.pageSize,
	})
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if err := r.apply(r.conversationId, msgs); err != nil {
		return 0, err
	}

	var max domain.MsgId
	for i := range msgs {
		if msgs[i].Id > max {
			max = msgs[i].Id
		}
	}
	r.Advance(max)
	r.onNew(r.conversationId)
	return len(msgs), nil
}

// backgroundTick logs and swallows errors; the next tick recovers.
func (r *Reconciler) backgroundTick(ctx context.Context) {
	n, err := r.Tick(ctx)
	switch {
	case err == nil && n == 0:
		pollTicksTotal.WithLabelValues("empty").Inc()
	case err == nil:
		pollTicksTotal.WithLabelValues("ok").Inc()
		logger.Log.Debug("poll merged messages",
			"component", "reconciler",
			"conversation_id", r.conversationId,
			"count", n,
			"cursor", r.Cursor())
	case errors.Is(err, ErrTickInFlight):
		pollTicksTotal.WithLabelValues("skipped").Inc()
	case internal_errors.IsStale(err):
		pollTicksTotal.WithLabelValues("stale").Inc()
		logger.Log.Debug("dropped stale poll response",
			"component", "reconciler",
			"error", err)
	case ctx.Err() != nil:
		// stopped mid-fetch
	default:
		pollTicksTotal.WithLabelValues("error").Inc()
		logger.Log.Warn("poll failed",
			"component", "reconciler",
			"conversation_id", r.conversationId,
			"error", err)
	}
}
