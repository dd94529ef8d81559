package chat

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"perpology/internal/models"
	"perpology/internal/storage"
)

const (
	walletA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), db
}

func TestGenerateTitle(t *testing.T) {
	if got := GenerateTitle("  "); got != "New Chat" {
		t.Fatalf("empty message title: %q", got)
	}
	if got := GenerateTitle("short question"); got != "short question" {
		t.Fatalf("short title changed: %q", got)
	}
	long := strings.Repeat("x", 80)
	got := GenerateTitle(long)
	if got != strings.Repeat("x", 50)+"..." {
		t.Fatalf("long title not truncated: %q", got)
	}
}

func TestChatLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateChat(ctx, walletA, "BTC entry levels")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated chat id")
	}

	if _, err := store.AppendMessage(ctx, created.ID, walletA, models.RoleUser, "what are good BTC levels?", nil); err != nil {
		t.Fatalf("append user message: %v", err)
	}
	entry := 42000.0
	md := &models.ResponseMetadata{
		HasChart:         true,
		HasTradingSignal: true,
		CryptoSymbols:    []string{"BTC"},
		Links:            []string{},
		TradingData:      &models.TradingData{Entry: &entry, Direction: "long"},
	}
	if _, err := store.AppendMessage(ctx, created.ID, walletA, models.RoleAssistant, "Entry: $42,000 long.", md); err != nil {
		t.Fatalf("append assistant message: %v", err)
	}

	record, err := store.GetChat(ctx, created.ID, walletA)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if len(record.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(record.Messages))
	}
	if record.Messages[0].Role != models.RoleUser || record.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("message order wrong: %s then %s", record.Messages[0].Role, record.Messages[1].Role)
	}
	restored := record.Messages[1].Metadata
	if restored == nil || !restored.HasTradingSignal || restored.TradingData == nil {
		t.Fatalf("metadata lost on round trip: %+v", restored)
	}
	if *restored.TradingData.Entry != entry || restored.TradingData.Direction != "long" {
		t.Fatalf("trading data mismatch: %+v", restored.TradingData)
	}
	if record.Messages[0].Metadata != nil {
		t.Fatalf("user message must carry no metadata")
	}
}

func TestWalletIsolation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	chatA, err := store.CreateChat(ctx, walletA, "private")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if _, err := store.CreateChat(ctx, walletB, "other"); err != nil {
		t.Fatalf("create chat: %v", err)
	}

	if _, err := store.GetChat(ctx, chatA.ID, walletB); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for foreign wallet read, got %v", err)
	}
	if _, err := store.AppendMessage(ctx, chatA.ID, walletB, models.RoleUser, "hi", nil); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for foreign wallet write, got %v", err)
	}
	if err := store.DeleteChat(ctx, chatA.ID, walletB); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for foreign wallet delete, got %v", err)
	}

	chats, err := store.ListChats(ctx, walletA)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != chatA.ID {
		t.Fatalf("wallet A list wrong: %+v", chats)
	}
}

func TestListChatsOrderedByActivity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, _ := store.CreateChat(ctx, walletA, "first")
	second, _ := store.CreateChat(ctx, walletA, "second")

	// Touching the older chat moves it to the front.
	if _, err := store.AppendMessage(ctx, first.ID, walletA, models.RoleUser, "bump", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	chats, err := store.ListChats(ctx, walletA)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != first.ID || chats[1].ID != second.ID {
		t.Fatalf("unexpected order: %+v", chats)
	}
}

func TestDeleteChatRemovesMessages(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	c, _ := store.CreateChat(ctx, walletA, "doomed")
	if _, err := store.AppendMessage(ctx, c.ID, walletA, models.RoleUser, "bye", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.DeleteChat(ctx, c.ID, walletA); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, c.ID).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no messages after chat delete, got %d", count)
	}
	if _, err := store.GetChat(ctx, c.ID, walletA); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows after delete, got %v", err)
	}
}

func TestAppendMessageValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c, _ := store.CreateChat(ctx, walletA, "strict")
	if _, err := store.AppendMessage(ctx, c.ID, walletA, models.RoleUser, "   ", nil); err == nil {
		t.Fatalf("expected error for blank content")
	}
	if _, err := store.AppendMessage(ctx, c.ID, walletA, models.RoleSystem, "nope", nil); err == nil {
		t.Fatalf("expected error for system role")
	}
}
