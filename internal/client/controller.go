// Package client holds the terminal client's session logic: wallet gating,
// the per-message cooldown, thinking status lines and chat bookkeeping. It is
// pure state so the UI layer stays a thin rendering shell.
package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"perpology/internal/models"
)

// Cooldown is the minimum spacing between outbound messages.
const Cooldown = 20 * time.Second

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrRateLimited        = errors.New("rate limited, wait for the cooldown")
	ErrEmptyMessage       = errors.New("message must not be empty")
)

// Phase classifies how far the cooldown has progressed, for display color.
type Phase int

const (
	// PhaseWait covers the first stretch of the cooldown.
	PhaseWait Phase = iota
	// PhaseSoon covers the middle stretch.
	PhaseSoon
	// PhaseReady covers the final stretch before the cooldown clears.
	PhaseReady
)

const (
	failureMessage    = "I encountered an error processing your request. Please try again."
	connectionMessage = "I'm having trouble connecting to my systems. Please check your connection and try again."
)

// Controller tracks one chat session on the client side.
type Controller struct {
	api    *APIClient
	wallet Wallet

	CurrentChatID string
	History       []*models.Message
	Chats         []models.Chat

	// ViewSeq identifies the transcript currently on screen. It advances
	// whenever the visible history is replaced, so a send that finishes
	// after the user switched chats can be detected and dropped.
	ViewSeq int

	LastMessageAt time.Time
	IsRateLimited bool
	IsThinking    bool
}

func NewController(api *APIClient, wallet Wallet) *Controller {
	return &Controller{api: api, wallet: wallet}
}

// Connect resolves the wallet address and loads the chat list for it.
func (c *Controller) Connect() error {
	if _, err := c.wallet.Connect(); err != nil {
		return fmt.Errorf("connect wallet: %w", err)
	}
	return c.LoadChats()
}

// Disconnect clears all session state tied to the wallet.
func (c *Controller) Disconnect() {
	c.wallet.Disconnect()
	c.CurrentChatID = ""
	c.History = nil
	c.Chats = nil
	c.ViewSeq++
	c.IsRateLimited = false
	c.IsThinking = false
	c.LastMessageAt = time.Time{}
}

func (c *Controller) WalletAddress() string {
	if !c.wallet.Connected() {
		return ""
	}
	return c.wallet.Address()
}

// Submit validates a message and, if accepted, starts the cooldown, records
// the user turn locally and marks the session as thinking. The network send
// is the caller's job via Send.
func (c *Controller) Submit(text string, now time.Time) error {
	if !c.wallet.Connected() {
		return ErrWalletNotConnected
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if c.IsRateLimited || now.Sub(c.LastMessageAt) < Cooldown {
		return ErrRateLimited
	}
	c.LastMessageAt = now
	c.IsRateLimited = true
	c.IsThinking = true
	c.History = append(c.History, &models.Message{
		Role:      models.RoleUser,
		Content:   strings.TrimSpace(text),
		CreatedAt: now,
	})
	return nil
}

// Send performs the network round-trip for a previously accepted message.
// chatID and wallet are the caller's snapshot of the session at submit time;
// taking them as arguments keeps Send free of controller state that another
// goroutine may be mutating.
func (c *Controller) Send(text, chatID, wallet string) (*SendResult, error) {
	isNew := chatID == ""
	result, err := c.api.SendMessage(strings.TrimSpace(text), chatID, wallet, isNew)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyResponse records the assistant turn and adopts the chat id the server
// assigned to a new chat. The cooldown keeps running. seq is the ViewSeq
// snapshot taken at submit time; a result for a replaced view is dropped.
func (c *Controller) ApplyResponse(seq int, result *SendResult, now time.Time) {
	if seq != c.ViewSeq {
		return
	}
	c.IsThinking = false
	if result == nil {
		return
	}
	if c.CurrentChatID == "" {
		c.CurrentChatID = result.ChatID
	}
	c.History = append(c.History, &models.Message{
		Role:      models.RoleAssistant,
		Content:   result.Response,
		Metadata:  result.Metadata,
		CreatedAt: now,
	})
}

// ApplyFailure records a canned assistant turn for a failed send. The
// cooldown still runs to completion; a failure for a replaced view is
// dropped like a stale result.
func (c *Controller) ApplyFailure(seq int, err error, now time.Time) {
	if seq != c.ViewSeq {
		return
	}
	c.IsThinking = false
	content := failureMessage
	if isConnectionError(err) {
		content = connectionMessage
	}
	c.History = append(c.History, &models.Message{
		Role:      models.RoleAssistant,
		Content:   content,
		CreatedAt: now,
	})
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	// Transport failures read as connection trouble; server-side rejections
	// read as processing errors.
	return !errors.As(err, &apiErr)
}

// Remaining reports how much cooldown is left at the given instant and
// clears the rate-limited flag once it reaches zero.
func (c *Controller) Remaining(now time.Time) time.Duration {
	if c.LastMessageAt.IsZero() {
		c.IsRateLimited = false
		return 0
	}
	left := Cooldown - now.Sub(c.LastMessageAt)
	if left <= 0 {
		c.IsRateLimited = false
		return 0
	}
	return left
}

// FormatCountdown renders a remaining duration as SS:CC, seconds and
// centiseconds both zero-padded.
func FormatCountdown(remaining time.Duration) string {
	if remaining <= 0 {
		return "00:00"
	}
	seconds := int(remaining / time.Second)
	centis := int(remaining%time.Second) / int(10*time.Millisecond)
	return fmt.Sprintf("%02d:%02d", seconds, centis)
}

// CountdownPhase maps remaining cooldown to a display phase. The scale runs
// inverted: the timer starts hot and cools toward ready.
func CountdownPhase(remaining time.Duration) Phase {
	progress := float64(remaining) / float64(Cooldown)
	switch {
	case progress > 0.6:
		return PhaseWait
	case progress > 0.3:
		return PhaseSoon
	default:
		return PhaseReady
	}
}

// LoadChats refreshes the chat list for the connected wallet.
func (c *Controller) LoadChats() error {
	if !c.wallet.Connected() {
		return ErrWalletNotConnected
	}
	chats, err := c.api.ListChats(c.wallet.Address())
	if err != nil {
		return err
	}
	c.Chats = chats
	return nil
}

// LoadChat makes the given chat active and replaces the local history.
func (c *Controller) LoadChat(chatID string) error {
	if !c.wallet.Connected() {
		return ErrWalletNotConnected
	}
	record, err := c.api.GetChat(c.wallet.Address(), chatID)
	if err != nil {
		return err
	}
	c.CurrentChatID = record.ID
	c.History = record.Messages
	c.ViewSeq++
	c.IsThinking = false
	return nil
}

// NewChat clears the active chat; the server assigns an id on first send.
func (c *Controller) NewChat() {
	c.CurrentChatID = ""
	c.History = nil
	c.ViewSeq++
	c.IsThinking = false
}

// DeleteChat removes a chat server-side. Deleting the active chat resets
// the session to a fresh chat.
func (c *Controller) DeleteChat(chatID string) error {
	if !c.wallet.Connected() {
		return ErrWalletNotConnected
	}
	if err := c.api.DeleteChat(c.wallet.Address(), chatID); err != nil {
		return err
	}
	if chatID == c.CurrentChatID {
		c.NewChat()
	}
	return c.LoadChats()
}
