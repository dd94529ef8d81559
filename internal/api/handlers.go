package api

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"perpology/internal/models"
	"perpology/internal/service/ai"
	"perpology/internal/service/chat"
	"perpology/internal/service/market"
)

// Generator produces assistant replies for a user turn.
type Generator interface {
	Generate(ctx context.Context, userText string, history []*models.Message, mc *market.Context) (*ai.Reply, error)
}

// MarketSource supplies live market data to the chat and market endpoints.
type MarketSource interface {
	RelevantData(ctx context.Context, message string) *market.Context
	SymbolSnapshot(ctx context.Context, symbol string) (*market.SymbolData, error)
}

// Handler wires HTTP routes to the chat store, AI generator and market gateway.
type Handler struct {
	store     *chat.Store
	generator Generator
	markets   MarketSource
}

// NewHandler constructs a Handler instance.
func NewHandler(store *chat.Store, generator Generator, markets MarketSource) *Handler {
	return &Handler{
		store:     store,
		generator: generator,
		markets:   markets,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/chat/send", h.sendMessage)
	api.POST("/chats", h.createChat)
	api.GET("/chats/:wallet", h.listChats)
	api.GET("/chats/:wallet/:chat_id", h.getChat)
	api.PUT("/chats/:wallet/:chat_id", h.renameChat)
	api.DELETE("/chats/:wallet/:chat_id", h.deleteChat)
	api.GET("/market/symbol/:symbol", h.marketSymbol)
	api.GET("/market/chart/:symbol", h.marketChart)
}

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func validWallet(addr string) bool {
	return walletPattern.MatchString(addr)
}

func walletParam(c *gin.Context) (string, bool) {
	wallet := strings.TrimSpace(c.Param("wallet"))
	if !validWallet(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid wallet address"})
		return "", false
	}
	return wallet, true
}

type sendRequest struct {
	Message       string `json:"message"`
	ChatID        string `json:"chatId"`
	WalletAddress string `json:"walletAddress"`
	IsNewChat     bool   `json:"isNewChat"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
		return
	}
	wallet := strings.TrimSpace(req.WalletAddress)
	if !validWallet(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid wallet address"})
		return
	}

	ctx := c.Request.Context()
	chatID := strings.TrimSpace(req.ChatID)
	if req.IsNewChat || chatID == "" {
		created, err := h.store.CreateChat(ctx, wallet, chat.GenerateTitle(message))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create chat"})
			return
		}
		chatID = created.ID
	}

	if _, err := h.store.AppendMessage(ctx, chatID, wallet, models.RoleUser, message, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save message"})
		return
	}

	record, err := h.store.GetChat(ctx, chatID, wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load chat history"})
		return
	}
	// History for the model excludes the turn just appended.
	history := record.Messages
	if n := len(history); n > 0 && history[n-1].Role == models.RoleUser {
		history = history[:n-1]
	}

	mc := h.markets.RelevantData(ctx, message)

	reply, err := h.generator.Generate(ctx, message, history, mc)
	if err != nil {
		log.Printf("generate reply for chat %s: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to generate AI response"})
		return
	}

	if _, err := h.store.AppendMessage(ctx, chatID, wallet, models.RoleAssistant, reply.Content, &reply.Metadata); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": reply.Content,
		"metadata": reply.Metadata,
		"chatId":   chatID,
	})
}

type createChatRequest struct {
	WalletAddress string `json:"walletAddress"`
	Title         string `json:"title"`
}

func (h *Handler) createChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	wallet := strings.TrimSpace(req.WalletAddress)
	if !validWallet(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid wallet address"})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New Chat"
	}
	created, err := h.store.CreateChat(c.Request.Context(), wallet, title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create chat"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "chat": created})
}

func (h *Handler) listChats(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	chats, err := h.store.ListChats(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list chats"})
		return
	}
	if chats == nil {
		chats = make([]models.Chat, 0)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

func (h *Handler) getChat(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	record, err := h.store.GetChat(c.Request.Context(), c.Param("chat_id"), wallet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chat": record})
}

type renameRequest struct {
	Title string `json:"title"`
}

func (h *Handler) renameChat(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "title is required"})
		return
	}
	updated, err := h.store.RenameChat(c.Request.Context(), c.Param("chat_id"), wallet, title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to rename chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chat": updated})
}

func (h *Handler) deleteChat(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteChat(c.Request.Context(), c.Param("chat_id"), wallet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) marketSymbol(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "symbol is required"})
		return
	}
	data, err := h.markets.SymbolSnapshot(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "failed to fetch market data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *Handler) marketChart(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "symbol is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": market.ChartEmbed(symbol)})
}
