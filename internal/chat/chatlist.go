package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

type ConversationLister interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
}

// Directory resolves affiliations and turns participant pairs into persisted
// conversations.
type Directory interface {
	ListAffiliatedClinics(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error)
	FindOrCreateConversation(ctx context.Context, pair domain.Pair) (domain.ConversationId, error)
}

// ChatList aggregates persisted conversations with virtual ones synthesized
// from the operator's affiliated clinics.
type ChatList struct {
	viewer    domain.Viewer
	lister    ConversationLister
	directory Directory

	mu       sync.RWMutex
	items    []domain.Conversation
	promoted map[domain.Pair]domain.ConversationId
	group    singleflight.Group
}

func NewChatList(viewer domain.Viewer, lister ConversationLister, directory Directory) *ChatList {
	return &ChatList{
		viewer:    viewer,
		lister:    lister,
		directory: directory,
		promoted:  make(map[domain.Pair]domain.ConversationId),
	}
}

// Load replaces the list with fresh server state. Locally newer summaries and
// read cursors survive the reload. A failing clinic lookup is logged and the
// list is built from persisted conversations alone.
func (l *ChatList) Load(ctx context.Context) error {
	persisted, err := l.lister.ListConversations(ctx)
	if err != nil {
		return err
	}

	all := make([]domain.Conversation, 0, len(persisted))
	for i := range persisted {
		all = append(all, persisted[i].Clone())
	}

	if l.viewer.IsOperator() {
		clinics, err := l.directory.ListAffiliatedClinics(ctx, l.viewer.Id)
		if err != nil {
			logger.Log.Warn("failed to fetch affiliated clinics, showing persisted conversations only",
				"component", "chatlist",
				"operator_id", l.viewer.Id,
				"error", err)
		}
		known := make(map[domain.Pair]bool, len(all))
		for i := range all {
			known[all[i].Pair] = true
		}
		for _, clinic := range clinics {
			pair := domain.Pair{ClinicId: clinic.Id, OperatorId: l.viewer.Id}
			if known[pair] {
				continue
			}
			known[pair] = true
			all = append(all, domain.Conversation{
				Pair:     pair,
				Clinic:   clinic,
				Operator: domain.Operator{Id: l.viewer.Id, Name: l.viewer.Name},
			})
		}
	}

	all = dedupeConversations(all)

	l.mu.Lock()
	defer l.mu.Unlock()
	previous := make(map[domain.Pair]*domain.Conversation, len(l.items))
	for i := range l.items {
		previous[l.items[i].Pair] = &l.items[i]
	}
	for i := range all {
		c := &all[i]
		if c.IsVirtual() {
			if id, ok := l.promoted[c.Pair]; ok {
				c.Id = &id
			}
		}
		if old, ok := previous[c.Pair]; ok {
			keepLocalState(c, old)
		}
	}
	SortConversations(all, l.viewer)
	l.items = all
	return nil
}

func keepLocalState(fresh, old *domain.Conversation) {
	if old.LastMessage != nil && (fresh.LastMessage == nil || old.LastMessage.CreatedAt.After(fresh.LastMessage.CreatedAt)) {
		lm := *old.LastMessage
		fresh.LastMessage = &lm
	}
	for role, at := range old.LastReadAt {
		if fresh.LastReadAt == nil {
			fresh.LastReadAt = make(map[domain.ParticipantType]time.Time)
		}
		if at.After(fresh.LastReadAt[role]) {
			fresh.LastReadAt[role] = at
		}
	}
}

// dedupeConversations keeps one entry per pair: the most recently active, or
// the persisted one when activity ties.
func dedupeConversations(convs []domain.Conversation) []domain.Conversation {
	index := make(map[domain.Pair]int, len(convs))
	out := make([]domain.Conversation, 0, len(convs))
	for _, c := range convs {
		i, ok := index[c.Pair]
		if !ok {
			index[c.Pair] = len(out)
			out = append(out, c)
			continue
		}
		cur := &out[i]
		switch {
		case c.ActivityAt().After(cur.ActivityAt()):
			out[i] = c
		case c.ActivityAt().Equal(cur.ActivityAt()) && cur.IsVirtual() && !c.IsVirtual():
			out[i] = c
		}
	}
	return out
}

// SortConversations orders by activity descending, then counterpart name,
// then pair key.
func SortConversations(convs []domain.Conversation, viewer domain.Viewer) {
	sort.SliceStable(convs, func(i, j int) bool {
		a, b := &convs[i], &convs[j]
		if at, bt := a.ActivityAt(), b.ActivityAt(); !at.Equal(bt) {
			return at.After(bt)
		}
		if an, bn := strings.ToLower(a.Title(viewer)), strings.ToLower(b.Title(viewer)); an != bn {
			return an < bn
		}
		return a.Key() < b.Key()
	})
}

func (l *ChatList) List() []domain.Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Conversation, len(l.items))
	for i := range l.items {
		out[i] = l.items[i].Clone()
	}
	return out
}

func (l *ChatList) Get(key string) (domain.Conversation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexByKey(key); i >= 0 {
		return l.items[i].Clone(), true
	}
	return domain.Conversation{}, false
}

func (l *ChatList) indexByKey(key string) int {
	for i := range l.items {
		if l.items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (l *ChatList) indexById(id domain.ConversationId) int {
	for i := range l.items {
		if l.items[i].Id != nil && *l.items[i].Id == id {
			return i
		}
	}
	return -1
}

// Promote returns the persisted id for the conversation behind key, calling
// find-or-create for a virtual one. Concurrent calls for the same pair share
// one request and every later call is answered from memory.
func (l *ChatList) Promote(ctx context.Context, key string) (domain.ConversationId, error) {
	l.mu.RLock()
	i := l.indexByKey(key)
	if i < 0 {
		l.mu.RUnlock()
		return 0, ErrConversationNotFound
	}
	conv := l.items[i].Clone()
	memo, memoized := l.promoted[conv.Pair]
	l.mu.RUnlock()

	if !conv.IsVirtual() {
		return *conv.Id, nil
	}
	if memoized {
		l.adopt(conv.Pair, memo)
		return memo, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		l.mu.RLock()
		id, ok := l.promoted[conv.Pair]
		l.mu.RUnlock()
		if ok {
			return id, nil
		}

		id, err := l.directory.FindOrCreateConversation(ctx, conv.Pair)
		if err != nil {
			return domain.ConversationId(0), err
		}
		l.mu.Lock()
		l.promoted[conv.Pair] = id
		l.mu.Unlock()
		l.adopt(conv.Pair, id)

		promotionsTotal.Inc()
		logger.Log.Info("promoted virtual conversation",
			"component", "chatlist",
			"key", key,
			"conversation_id", id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(domain.ConversationId), nil
}

// adopt gives the virtual entry for pair its persisted id without moving it.
func (l *ChatList) adopt(pair domain.Pair, id domain.ConversationId) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].Pair == pair && l.items[i].IsVirtual() {
			id := id
			l.items[i].Id = &id
			return
		}
	}
}

// Touch records msg as the latest message of its conversation and reorders
// the list. Older messages do not replace a newer summary.
func (l *ChatList) Touch(conversationId domain.ConversationId, msg domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexById(conversationId)
	if i < 0 {
		return
	}
	c := &l.items[i]
	if c.LastMessage != nil && c.LastMessage.CreatedAt.After(msg.CreatedAt) {
		return
	}
	c.LastMessage = msg.Summary()
	SortConversations(l.items, l.viewer)
}

// MarkRead moves the viewer's read cursor to at, or to the last message time
// when that is later.
func (l *ChatList) MarkRead(conversationId domain.ConversationId, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexById(conversationId)
	if i < 0 {
		return
	}
	c := &l.items[i]
	if c.LastMessage != nil && c.LastMessage.CreatedAt.After(at) {
		at = c.LastMessage.CreatedAt
	}
	if c.LastReadAt == nil {
		c.LastReadAt = make(map[domain.ParticipantType]time.Time)
	}
	if at.After(c.LastReadAt[l.viewer.Role]) {
		c.LastReadAt[l.viewer.Role] = at
	}
}
