package service

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
)

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMessageService(env.repos.Messages, env.repos.Users, env.repos.Rides)
	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	tests := []struct {
		name    string
		to      string
		content string
		want    string
	}{
		{"blank content", bob, "   ", apperrors.CodeValidation},
		{"too long", bob, strings.Repeat("x", 1001), apperrors.CodeValidation},
		{"to self", alice, "hi", apperrors.CodeValidation},
		{"unknown peer", "nobody", "hi", apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), alice, tt.to, tt.content)
			if got := errorCode(err); got != tt.want {
				t.Errorf("Send() error = %v (%s), want %s", err, got, tt.want)
			}
		})
	}

	msg, err := svc.Send(context.Background(), alice, bob, "  see you at the gate  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Content != "see you at the gate" || msg.ID == "" {
		t.Errorf("message = %+v", msg)
	}
}

func TestConversationsAndReadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewMessageService(env.repos.Messages, env.repos.Users, env.repos.Rides)

	alice, bob, carol := env.user(t, "alice"), env.user(t, "bob"), env.user(t, "carol")

	// carol only shares a ride with alice.
	rideID := env.ride(t, alice, "North Campus", time.Now().Add(time.Hour), 2)
	if err := env.rides.JoinRide(ctx, rideID, carol); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Send(ctx, bob, alice, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(ctx, bob, alice, "are you driving today?"); err != nil {
		t.Fatalf("send: %v", err)
	}

	convs, err := svc.Conversations(ctx, alice)
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("conversations = %d, want 2", len(convs))
	}
	if convs[0].PeerID != bob || convs[0].UnreadCount != 2 || convs[0].LastMessage == nil {
		t.Errorf("first conversation = %+v", convs[0])
	}
	if convs[1].PeerID != carol || convs[1].LastMessage != nil || convs[1].UnreadCount != 0 {
		t.Errorf("second conversation = %+v", convs[1])
	}

	thread, err := svc.Conversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(thread) != 2 || thread[0].Content != "hello" {
		t.Fatalf("thread = %+v", thread)
	}

	convs, err = svc.Conversations(ctx, alice)
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if convs[0].UnreadCount != 0 {
		t.Errorf("unread after opening = %d, want 0", convs[0].UnreadCount)
	}
}
