package domain

import (
	"fmt"
	"time"
)

// for debug
func (m *Message) String() string {
	s := fmt.Sprintf("[id:%d, conversation:%d, sender:%s/%d, kind:%s, status:%s, state:%s, created:%s, content:%q",
		m.Id, m.ConversationId, m.SenderType, m.SenderId, m.Kind, m.Status, m.SendState, m.CreatedAt.Format(time.StampMilli), m.Content)
	if m.Attachment != nil {
		s += fmt.Sprintf(", attachment:%+v", *m.Attachment)
	}
	return s + "]"
}

func (c *Conversation) String() string {
	id := "virtual"
	if c.Id != nil {
		id = fmt.Sprint(*c.Id)
	}
	return fmt.Sprintf("[id:%s, key:%s, activity:%s]", id, c.Key(), c.ActivityAt().Format(time.RFC3339))
}
