package domain

import (
	"fmt"
	"time"
)

// Pair identifies a conversation independently of whether it is persisted.
type Pair struct {
	ClinicId   ClinicId
	OperatorId OperatorId
}

func (p Pair) Key() string {
	return fmt.Sprintf("clinic:%d/operator:%d", p.ClinicId, p.OperatorId)
}

func ParsePairKey(key string) (Pair, error) {
	var p Pair
	if _, err := fmt.Sscanf(key, "clinic:%d/operator:%d", &p.ClinicId, &p.OperatorId); err != nil {
		return Pair{}, fmt.Errorf("invalid conversation key %q: %w", key, err)
	}
	if p.Key() != key {
		return Pair{}, fmt.Errorf("invalid conversation key %q", key)
	}
	return p, nil
}

// LastMessage is the summary shown in the conversation list.
type LastMessage struct {
	Id         MsgId
	SenderId   UserId
	SenderType ParticipantType
	Content    MsgText
	Kind       MessageKind
	CreatedAt  time.Time
}

type Conversation struct {
	Id          *ConversationId // nil for a virtual conversation
	Pair        Pair
	Clinic      Clinic
	Operator    Operator
	LastMessage *LastMessage
	LastReadAt  map[ParticipantType]time.Time // one read cursor per side
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Conversation) Key() string { return c.Pair.Key() }

func (c *Conversation) IsVirtual() bool { return c.Id == nil }

// ActivityAt is last_message_time ?? updated_at ?? created_at.
func (c *Conversation) ActivityAt() time.Time {
	if c.LastMessage != nil && !c.LastMessage.CreatedAt.IsZero() {
		return c.LastMessage.CreatedAt
	}
	if !c.UpdatedAt.IsZero() {
		return c.UpdatedAt
	}
	return c.CreatedAt
}

// Counterpart returns the participant on the other side from the viewer.
func (c *Conversation) Counterpart(viewer Viewer) Participant {
	if viewer.IsOperator() {
		return c.Clinic
	}
	return c.Operator
}

func (c *Conversation) Title(viewer Viewer) string {
	return c.Counterpart(viewer).DisplayName()
}

// Unread is derived from the last message time and the viewer's read cursor.
// A message the viewer sent is never unread for them.
func (c *Conversation) Unread(viewer Viewer) bool {
	if c.LastMessage == nil {
		return false
	}
	if viewer.Is(c.LastMessage.SenderId, c.LastMessage.SenderType) {
		return false
	}
	readAt, ok := c.LastReadAt[viewer.Role]
	if !ok {
		return true
	}
	return c.LastMessage.CreatedAt.After(readAt)
}

// Clone returns a copy that shares no mutable state with c.
func (c Conversation) Clone() Conversation {
	if c.Id != nil {
		id := *c.Id
		c.Id = &id
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		c.LastMessage = &lm
	}
	if c.LastReadAt != nil {
		reads := make(map[ParticipantType]time.Time, len(c.LastReadAt))
		for k, v := range c.LastReadAt {
			reads[k] = v
		}
		c.LastReadAt = reads
	}
	return c
}
