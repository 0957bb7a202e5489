package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/repository"
)

const maxMessageLength = 1000

type MessageService interface {
	Conversations(ctx context.Context, userID string) ([]*models.Conversation, error)
	Conversation(ctx context.Context, userID, peerID string) ([]*models.Message, error)
	Send(ctx context.Context, userID, peerID, content string) (*models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	rideRepo    repository.RideRepository
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	rideRepo repository.RideRepository,
) MessageService {
	return &messageService{messageRepo: messageRepo, userRepo: userRepo, rideRepo: rideRepo}
}

// Conversations lists everyone the user shared a ride or messages with.
// Peers with recent messages come first; silent co-riders follow by name.
func (s *messageService) Conversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	peers, err := s.rideRepo.CoRiders(ctx, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.Involving(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.Message)
	unread := make(map[string]int)
	for _, m := range msgs {
		peer := m.SenderID
		if peer == userID {
			peer = m.ReceiverID
		}
		if _, seen := latest[peer]; !seen {
			latest[peer] = m
		}
		if m.ReceiverID == userID && !m.Read {
			unread[peer]++
		}
	}

	ids := make(map[string]struct{}, len(peers)+len(latest))
	for _, p := range peers {
		ids[p] = struct{}{}
	}
	for p := range latest {
		ids[p] = struct{}{}
	}
	delete(ids, userID)

	lookup := make([]string, 0, len(ids))
	for id := range ids {
		lookup = append(lookup, id)
	}
	users, err := s.userRepo.GetByIDs(ctx, lookup)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Conversation, 0, len(users))
	for id, u := range users {
		c := &models.Conversation{
			PeerID:         id,
			PeerName:       u.Name,
			PeerDepartment: u.Department,
			PeerYear:       u.Year,
			UnreadCount:    unread[id],
		}
		if m, ok := latest[id]; ok {
			content, at := m.Content, m.CreatedAt
			c.LastMessage = &content
			c.LastMessageAt = &at
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt != nil && !a.LastMessageAt.Equal(*b.LastMessageAt):
			return a.LastMessageAt.After(*b.LastMessageAt)
		case (a.LastMessageAt == nil) != (b.LastMessageAt == nil):
			return a.LastMessageAt != nil
		case a.PeerName != b.PeerName:
			return a.PeerName < b.PeerName
		}
		return a.PeerID < b.PeerID
	})
	return out, nil
}

// Conversation marks the peer's messages as read and returns the thread oldest first.
func (s *messageService) Conversation(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	if err := s.requirePeer(ctx, peerID); err != nil {
		return nil, err
	}
	if err := s.messageRepo.MarkRead(ctx, peerID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.Between(ctx, userID, peerID)
}

func (s *messageService) Send(ctx context.Context, userID, peerID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, apperrors.Validation("message is too long")
	}
	if peerID == userID {
		return nil, apperrors.Validation("you cannot message yourself")
	}
	if err := s.requirePeer(ctx, peerID); err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: userID, ReceiverID: peerID, Content: content}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) requirePeer(ctx context.Context, peerID string) error {
	peer, err := s.userRepo.GetByID(ctx, peerID)
	if err != nil {
		return err
	}
	if peer == nil {
		return apperrors.NotFound("user")
	}
	return nil
}
