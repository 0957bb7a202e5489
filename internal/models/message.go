package models

import "time"

type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"senderId"`
	ReceiverID string    `db:"receiver_id" json:"receiverId"`
	Content    string    `db:"content" json:"content"`
	Read       bool      `db:"is_read" json:"read"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type Conversation struct {
	PeerID         string     `json:"peerId"`
	PeerName       string     `json:"peerName"`
	PeerDepartment *string    `json:"peerDepartment"`
	PeerYear       *int       `json:"peerYear"`
	LastMessage    *string    `json:"lastMessage"`
	LastMessageAt  *time.Time `json:"lastMessageAt"`
	UnreadCount    int        `json:"unreadCount"`
}
