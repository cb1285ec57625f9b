package entity

import "time"

const (
	SenderSystem   = "system"
	SenderYou      = "you"
	SenderOpponent = "opponent"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
