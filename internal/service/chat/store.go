package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"perpology/internal/models"
)

// Store handles chat and message persistence, always scoped by wallet
// address. Operations on a chat owned by another wallet fail with
// sql.ErrNoRows so the API layer cannot leak cross-wallet data.
type Store struct {
	db *sql.DB
}

// NewStore builds a new chat store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const titleBudget = 50

// GenerateTitle derives a chat title from the first user message.
func GenerateTitle(firstMessage string) string {
	firstMessage = strings.TrimSpace(firstMessage)
	if firstMessage == "" {
		return "New Chat"
	}
	runes := []rune(firstMessage)
	if len(runes) <= titleBudget {
		return firstMessage
	}
	return string(runes[:titleBudget]) + "..."
}

// CreateChat inserts a new chat for the wallet and returns the record.
func (s *Store) CreateChat(ctx context.Context, walletAddress, title string) (*models.Chat, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, errors.New("wallet address is required")
	}
	if title == "" {
		title = "New Chat"
	}
	now := time.Now().UTC()
	chat := &models.Chat{
		ID:            uuid.NewString(),
		WalletAddress: walletAddress,
		Title:         title,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, wallet_address, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.WalletAddress, chat.Title, chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// ListChats returns all chats for a wallet ordered by last activity.
func (s *Store) ListChats(ctx context.Context, walletAddress string) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, wallet_address, title, created_at, updated_at FROM chats WHERE wallet_address = ? ORDER BY updated_at DESC`,
		walletAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.WalletAddress, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetChat returns one chat and its messages ordered oldest-first.
func (s *Store) GetChat(ctx context.Context, chatID, walletAddress string) (*models.ChatWithMessages, error) {
	var chat models.Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, wallet_address, title, created_at, updated_at FROM chats WHERE id = ? AND wallet_address = ?`,
		chatID, walletAddress,
	).Scan(&chat.ID, &chat.WalletAddress, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, metadata, created_at FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	result := &models.ChatWithMessages{Chat: chat, Messages: []*models.Message{}}
	for rows.Next() {
		m := new(models.Message)
		var metaRaw sql.NullString
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &metaRaw, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if metaRaw.Valid && metaRaw.String != "" {
			var md models.ResponseMetadata
			if err := json.Unmarshal([]byte(metaRaw.String), &md); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
			m.Metadata = &md
		}
		result.Messages = append(result.Messages, m)
	}
	return result, rows.Err()
}

// AppendMessage stores a new message and touches the chat's updated_at.
func (s *Store) AppendMessage(ctx context.Context, chatID, walletAddress string, role models.Role, content string, metadata *models.ResponseMetadata) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if role != models.RoleUser && role != models.RoleAssistant {
		return nil, fmt.Errorf("unsupported message role: %s", role)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id = ? AND wallet_address = ?)`,
		chatID, walletAddress,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("verify chat: %w", err)
	}
	if !exists {
		return nil, sql.ErrNoRows
	}

	var metaRaw interface{}
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode message metadata: %w", err)
		}
		metaRaw = string(data)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		chatID, role, content, metaRaw, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, now, chatID); err != nil {
		return nil, fmt.Errorf("touch chat: %w", err)
	}
	return &models.Message{
		ID:        id,
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

// RenameChat sets a chat title for the specified wallet.
func (s *Store) RenameChat(ctx context.Context, chatID, walletAddress, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ? AND wallet_address = ?`,
		title, now, chatID, walletAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("rename chat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("chat rows affected: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}

	var chat models.Chat
	err = s.db.QueryRowContext(ctx,
		`SELECT id, wallet_address, title, created_at, updated_at FROM chats WHERE id = ?`, chatID,
	).Scan(&chat.ID, &chat.WalletAddress, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reload chat: %w", err)
	}
	return &chat, nil
}

// DeleteChat removes a chat and all related messages for the wallet. Both
// deletes run inside one transaction so readers never observe a chat without
// its messages or the reverse.
func (s *Store) DeleteChat(ctx context.Context, chatID, walletAddress string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ? AND wallet_address = ?`, chatID, walletAddress)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("chat rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return sql.ErrNoRows
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete chat: %w", err)
	}
	return nil
}
