package chat

import (
	"sort"

	"github.com/carebridge-dev/carebridge/shared/domain"
)

// MergeResult counts what a Merge call did.
type MergeResult struct {
	Added    int
	Updated  int
	Replaced int // provisional entries swapped for their server counterpart
	Dropped  int // provisional duplicates removed after the server copy arrived first
}

func (r MergeResult) Changed() bool {
	return r.Added+r.Updated+r.Replaced+r.Dropped > 0
}

// Store holds the messages of one conversation. Merge is the only mutation;
// a conversation switch starts a new Store.
type Store struct {
	conversationId domain.ConversationId
	order          []domain.MsgId
	byId           map[domain.MsgId]*domain.Message
}

func NewStore(conversationId domain.ConversationId) *Store {
	return &Store{
		conversationId: conversationId,
		byId:           make(map[domain.MsgId]*domain.Message),
	}
}

func (s *Store) ConversationId() domain.ConversationId { return s.conversationId }

func (s *Store) Len() int { return len(s.order) }

// Merge folds incoming messages into the store. An id already present is
// updated in place. A confirmed message whose client reference matches a
// provisional entry takes that entry's position. A provisional message whose
// send has already been confirmed is dropped. Everything else is appended.
func (s *Store) Merge(incoming ...domain.Message) MergeResult {
	var res MergeResult
	for i := range incoming {
		m := incoming[i].Clone()
		if m.Id > 0 {
			m.SendState = domain.SendConfirmed
		}

		if existing, ok := s.byId[m.Id]; ok {
			*existing = mergeFields(*existing, m)
			res.Updated++
			if m.Id > 0 && existing.ClientRef != "" {
				if s.dropProvisional(existing.ClientRef) {
					res.Dropped++
				}
			}
			continue
		}

		if m.Id < 0 && m.ClientRef != "" {
			if _, ok := s.confirmedPosition(m.ClientRef); ok {
				res.Dropped++
				continue
			}
		}

		if m.Id > 0 && m.ClientRef != "" {
			if pos, ok := s.provisionalPosition(m.ClientRef); ok {
				old := s.byId[s.order[pos]]
				delete(s.byId, old.Id)
				merged := mergeFields(*old, m)
				s.order[pos] = m.Id
				s.byId[m.Id] = &merged
				res.Replaced++
				continue
			}
		}

		s.order = append(s.order, m.Id)
		s.byId[m.Id] = &m
		res.Added++
	}
	return res
}

// mergeFields overwrites existing with incoming, keeping locally known values
// the server response left empty.
func mergeFields(existing, incoming domain.Message) domain.Message {
	if incoming.SenderName == "" {
		incoming.SenderName = existing.SenderName
	}
	if incoming.ClientRef == "" {
		incoming.ClientRef = existing.ClientRef
	}
	if incoming.ConversationId == 0 {
		incoming.ConversationId = existing.ConversationId
	}
	if incoming.CreatedAt.IsZero() {
		incoming.CreatedAt = existing.CreatedAt
	}
	if incoming.Kind == "" {
		incoming.Kind = existing.Kind
	}
	if incoming.Status == "" {
		incoming.Status = existing.Status
	}
	switch {
	case incoming.Attachment == nil && existing.Attachment != nil && incoming.Kind != domain.KindText:
		a := existing.Attachment.Clone()
		incoming.Attachment = &a
	case incoming.Attachment != nil && existing.Attachment != nil:
		if incoming.Attachment.FileName == "" {
			incoming.Attachment.FileName = existing.Attachment.FileName
		}
		if incoming.Attachment.SizeBytes == 0 {
			incoming.Attachment.SizeBytes = existing.Attachment.SizeBytes
		}
		if incoming.Attachment.MimeType == "" {
			incoming.Attachment.MimeType = existing.Attachment.MimeType
		}
		if incoming.Attachment.ImageWidth == nil && existing.Attachment.ImageWidth != nil {
			incoming.Attachment.ImageWidth, incoming.Attachment.ImageHeight = existing.Attachment.ImageWidth, existing.Attachment.ImageHeight
		}
	}
	return incoming
}

func (s *Store) provisionalPosition(clientRef string) (int, bool) {
	for i, id := range s.order {
		if id < 0 && s.byId[id].ClientRef == clientRef {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) confirmedPosition(clientRef string) (int, bool) {
	for i, id := range s.order {
		if id > 0 && s.byId[id].ClientRef == clientRef {
			return i, true
		}
	}
	return 0, false
}

// Confirmed returns the server copy of the send identified by clientRef.
func (s *Store) Confirmed(clientRef string) (domain.Message, bool) {
	if clientRef == "" {
		return domain.Message{}, false
	}
	pos, ok := s.confirmedPosition(clientRef)
	if !ok {
		return domain.Message{}, false
	}
	return s.byId[s.order[pos]].Clone(), true
}

func (s *Store) dropProvisional(clientRef string) bool {
	pos, ok := s.provisionalPosition(clientRef)
	if !ok {
		return false
	}
	delete(s.byId, s.order[pos])
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	return true
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id domain.MsgId) (domain.Message, bool) {
	m, ok := s.byId[id]
	if !ok {
		return domain.Message{}, false
	}
	return m.Clone(), true
}

// MaxConfirmedId is the highest server id in the store, 0 if there is none.
func (s *Store) MaxConfirmedId() domain.MsgId {
	var max domain.MsgId
	for _, id := range s.order {
		if id > max {
			max = id
		}
	}
	return max
}

// Messages returns copies in display order: confirmed messages by creation
// time, then every provisional message in insertion order.
func (s *Store) Messages() []domain.Message {
	out := make([]domain.Message, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byId[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.IsProvisional() != b.IsProvisional() {
			return !a.IsProvisional()
		}
		if a.IsProvisional() {
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Id < b.Id
	})
	return out
}
