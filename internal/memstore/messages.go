package memstore

import (
	"context"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
)

type messageStore struct {
	s *Store
}

func (m *messageStore) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now()

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	cp := *msg
	m.s.messages = append(m.s.messages, &cp)
	return nil
}

func (m *messageStore) Between(ctx context.Context, a, b string) ([]*models.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := []*models.Message{}
	for _, msg := range m.s.messages {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *messageStore) MarkRead(ctx context.Context, senderID, receiverID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, msg := range m.s.messages {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID {
			msg.Read = true
		}
	}
	return nil
}

func (m *messageStore) Involving(ctx context.Context, userID string) ([]*models.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := []*models.Message{}
	for i := len(m.s.messages) - 1; i >= 0; i-- {
		msg := m.s.messages[i]
		if msg.SenderID == userID || msg.ReceiverID == userID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}
