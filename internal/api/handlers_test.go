package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	_ "github.com/mattn/go-sqlite3"

	"perpology/internal/models"
	"perpology/internal/service/ai"
	"perpology/internal/service/chat"
	"perpology/internal/service/market"
	"perpology/internal/storage"
)

const (
	testWallet  = "0x1111111111111111111111111111111111111111"
	otherWallet = "0x2222222222222222222222222222222222222222"
)

type mockGenerator struct {
	reply     *ai.Reply
	err       error
	lastText  string
	histLens  []int
	callCount int
}

func (m *mockGenerator) Generate(_ context.Context, userText string, history []*models.Message, _ *market.Context) (*ai.Reply, error) {
	m.callCount++
	m.lastText = userText
	m.histLens = append(m.histLens, len(history))
	if m.err != nil {
		return nil, m.err
	}
	if m.reply != nil {
		return m.reply, nil
	}
	return &ai.Reply{
		Content: "BTC looks constructive here.",
		Metadata: models.ResponseMetadata{
			CryptoSymbols: []string{"BTC"},
			Links:         []string{},
			HasChart:      true,
		},
	}, nil
}

type mockMarket struct {
	snapshot *market.SymbolData
	err      error
}

func (m *mockMarket) RelevantData(context.Context, string) *market.Context {
	return &market.Context{}
}

func (m *mockMarket) SymbolSnapshot(_ context.Context, symbol string) (*market.SymbolData, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &market.SymbolData{Symbol: symbol, Price: 40000}, nil
}

func newTestServer(t *testing.T) (*gin.Engine, *mockGenerator, *mockMarket) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	generator := &mockGenerator{}
	markets := &mockMarket{}
	handler := NewHandler(chat.NewStore(db), generator, markets)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, generator, markets
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeJSON(t *testing.T, data []byte, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode json: %v (%s)", err, data)
	}
}

func assertStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("status %d, want %d: %s", resp.Code, want, resp.Body.String())
	}
}

func TestSendMessageNewChatFlow(t *testing.T) {
	router, generator, _ := newTestServer(t)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/chat/send", map[string]any{
		"message":       "give me a BTC setup",
		"walletAddress": testWallet,
		"isNewChat":     true,
	})
	assertStatus(t, resp, http.StatusOK)

	var body struct {
		Success  bool                     `json:"success"`
		Response string                   `json:"response"`
		Metadata *models.ResponseMetadata `json:"metadata"`
		ChatID   string                   `json:"chatId"`
	}
	decodeJSON(t, resp.Body.Bytes(), &body)
	if !body.Success || body.ChatID == "" {
		t.Fatalf("unexpected send response: %+v", body)
	}
	if body.Response != "BTC looks constructive here." {
		t.Fatalf("unexpected reply text: %q", body.Response)
	}
	if body.Metadata == nil || !body.Metadata.HasChart {
		t.Fatalf("metadata missing from response: %+v", body.Metadata)
	}
	if generator.callCount != 1 {
		t.Fatalf("expected one generation, got %d", generator.callCount)
	}
	// A brand new chat has no prior turns.
	if generator.histLens[0] != 0 {
		t.Fatalf("expected empty history for new chat, got %d", generator.histLens[0])
	}

	// Both turns must be persisted, user first.
	chatResp := doJSONRequest(t, router, http.MethodGet, "/api/chats/"+testWallet+"/"+body.ChatID, nil)
	assertStatus(t, chatResp, http.StatusOK)
	var chatBody struct {
		Chat *models.ChatWithMessages `json:"chat"`
	}
	decodeJSON(t, chatResp.Body.Bytes(), &chatBody)
	if len(chatBody.Chat.Messages) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(chatBody.Chat.Messages))
	}
	if chatBody.Chat.Messages[0].Role != models.RoleUser || chatBody.Chat.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("stored order wrong: %s then %s", chatBody.Chat.Messages[0].Role, chatBody.Chat.Messages[1].Role)
	}
	if chatBody.Chat.Title != "give me a BTC setup" {
		t.Fatalf("derived title wrong: %q", chatBody.Chat.Title)
	}

	// Second turn into the same chat carries the prior turns as history.
	resp2 := doJSONRequest(t, router, http.MethodPost, "/api/chat/send", map[string]any{
		"message":       "and ETH?",
		"chatId":        body.ChatID,
		"walletAddress": testWallet,
	})
	assertStatus(t, resp2, http.StatusOK)
	if generator.histLens[1] != 2 {
		t.Fatalf("expected 2 history turns on second send, got %d", generator.histLens[1])
	}
}

func TestSendMessageValidation(t *testing.T) {
	router, _, _ := newTestServer(t)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/chat/send", map[string]any{
		"message":       "   ",
		"walletAddress": testWallet,
	})
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/chat/send", map[string]any{
		"message":       "hello",
		"walletAddress": "not-a-wallet",
	})
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSendMessageUnknownChat(t *testing.T) {
	router, _, _ := newTestServer(t)

	resp := doJSONRequest(t, router, http.MethodPost, "/api/chat/send", map[string]any{
		"message":       "hello",
		"chatId":        "does-not-exist",
		"walletAddress": testWallet,
	})
	assertStatus(t, resp, http.StatusNotFound)
}

func TestSendMessageGeneratorFailure(t *testing.T) {
	router, generator, _ := newTestServer(t)
	generator.err = ai.ErrGenerationFailed

	resp := doJSONRequest(t, router, http.MethodPost, "/api/chat/send", map[string]any{
		"message":       "hello",
		"walletAddress": testWallet,
		"isNewChat":     true,
	})
	assertStatus(t, resp, http.StatusInternalServerError)
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Success {
		t.Fatalf("expected success=false")
	}
	if body.Error != "failed to generate AI response" {
		t.Fatalf("provider details leaked: %q", body.Error)
	}
}

func TestChatCRUDAndIsolation(t *testing.T) {
	router, _, _ := newTestServer(t)

	createResp := doJSONRequest(t, router, http.MethodPost, "/api/chats", map[string]any{
		"walletAddress": testWallet,
		"title":         "scalps",
	})
	assertStatus(t, createResp, http.StatusCreated)
	var createBody struct {
		Chat *models.Chat `json:"chat"`
	}
	decodeJSON(t, createResp.Body.Bytes(), &createBody)
	chatID := createBody.Chat.ID

	// Another wallet cannot see, rename or delete it.
	assertStatus(t, doJSONRequest(t, router, http.MethodGet, "/api/chats/"+otherWallet+"/"+chatID, nil), http.StatusNotFound)
	assertStatus(t, doJSONRequest(t, router, http.MethodPut, "/api/chats/"+otherWallet+"/"+chatID, map[string]any{"title": "mine now"}), http.StatusNotFound)
	assertStatus(t, doJSONRequest(t, router, http.MethodDelete, "/api/chats/"+otherWallet+"/"+chatID, nil), http.StatusNotFound)

	renameResp := doJSONRequest(t, router, http.MethodPut, "/api/chats/"+testWallet+"/"+chatID, map[string]any{"title": "swing ideas"})
	assertStatus(t, renameResp, http.StatusOK)
	var renameBody struct {
		Chat *models.Chat `json:"chat"`
	}
	decodeJSON(t, renameResp.Body.Bytes(), &renameBody)
	if renameBody.Chat.Title != "swing ideas" {
		t.Fatalf("rename not applied: %q", renameBody.Chat.Title)
	}

	listResp := doJSONRequest(t, router, http.MethodGet, "/api/chats/"+testWallet, nil)
	assertStatus(t, listResp, http.StatusOK)
	var listBody struct {
		Chats []models.Chat `json:"chats"`
	}
	decodeJSON(t, listResp.Body.Bytes(), &listBody)
	if len(listBody.Chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(listBody.Chats))
	}

	assertStatus(t, doJSONRequest(t, router, http.MethodDelete, "/api/chats/"+testWallet+"/"+chatID, nil), http.StatusOK)
	assertStatus(t, doJSONRequest(t, router, http.MethodGet, "/api/chats/"+testWallet+"/"+chatID, nil), http.StatusNotFound)
}

func TestListChatsEmptyIsArray(t *testing.T) {
	router, _, _ := newTestServer(t)

	resp := doJSONRequest(t, router, http.MethodGet, "/api/chats/"+testWallet, nil)
	assertStatus(t, resp, http.StatusOK)
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"chats":[]`)) {
		t.Fatalf("expected empty array, got %s", resp.Body.String())
	}
}

func TestMarketEndpoints(t *testing.T) {
	router, _, markets := newTestServer(t)

	resp := doJSONRequest(t, router, http.MethodGet, "/api/market/symbol/btc", nil)
	assertStatus(t, resp, http.StatusOK)
	var symBody struct {
		Data *market.SymbolData `json:"data"`
	}
	decodeJSON(t, resp.Body.Bytes(), &symBody)
	if symBody.Data == nil || symBody.Data.Symbol != "BTC" {
		t.Fatalf("symbol not normalized: %+v", symBody.Data)
	}

	markets.err = errors.New("upstream down")
	assertStatus(t, doJSONRequest(t, router, http.MethodGet, "/api/market/symbol/btc", nil), http.StatusBadGateway)

	chartResp := doJSONRequest(t, router, http.MethodGet, "/api/market/chart/eth", nil)
	assertStatus(t, chartResp, http.StatusOK)
	var chartBody struct {
		Data *market.ChartData `json:"data"`
	}
	decodeJSON(t, chartResp.Body.Bytes(), &chartBody)
	if chartBody.Data == nil || chartBody.Data.Symbol != "ETH" {
		t.Fatalf("chart payload wrong: %+v", chartBody.Data)
	}
	if chartBody.Data.EmbedURL == "" || chartBody.Data.Exchange != "BINANCE" {
		t.Fatalf("chart embed wrong: %+v", chartBody.Data)
	}
}
