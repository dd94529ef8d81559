package models

import "time"

// Chat groups an ordered conversation, scoped to a single wallet address.
type Chat struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChatWithMessages is the getChat payload: a chat plus its ordered messages.
type ChatWithMessages struct {
	Chat
	Messages []*Message `json:"messages"`
}
