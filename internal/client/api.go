package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"perpology/internal/models"
)

const requestTimeout = 2 * time.Minute

// APIError is a non-2xx response from the chat server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// APIClient talks JSON to the chat server.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// SendResult is the server's answer to one user turn.
type SendResult struct {
	Response string                   `json:"response"`
	Metadata *models.ResponseMetadata `json:"metadata"`
	ChatID   string                   `json:"chatId"`
}

func (a *APIClient) SendMessage(message, chatID, walletAddress string, isNewChat bool) (*SendResult, error) {
	payload := map[string]any{
		"message":       message,
		"chatId":        chatID,
		"walletAddress": walletAddress,
		"isNewChat":     isNewChat,
	}
	var result SendResult
	if err := a.do(http.MethodPost, "/api/chat/send", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *APIClient) ListChats(walletAddress string) ([]models.Chat, error) {
	var result struct {
		Chats []models.Chat `json:"chats"`
	}
	path := "/api/chats/" + url.PathEscape(walletAddress)
	if err := a.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Chats, nil
}

func (a *APIClient) GetChat(walletAddress, chatID string) (*models.ChatWithMessages, error) {
	var result struct {
		Chat *models.ChatWithMessages `json:"chat"`
	}
	path := "/api/chats/" + url.PathEscape(walletAddress) + "/" + url.PathEscape(chatID)
	if err := a.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Chat, nil
}

func (a *APIClient) CreateChat(walletAddress, title string) (*models.Chat, error) {
	payload := map[string]any{
		"walletAddress": walletAddress,
		"title":         title,
	}
	var result struct {
		Chat *models.Chat `json:"chat"`
	}
	if err := a.do(http.MethodPost, "/api/chats", payload, &result); err != nil {
		return nil, err
	}
	return result.Chat, nil
}

func (a *APIClient) RenameChat(walletAddress, chatID, title string) (*models.Chat, error) {
	payload := map[string]any{"title": title}
	var result struct {
		Chat *models.Chat `json:"chat"`
	}
	path := "/api/chats/" + url.PathEscape(walletAddress) + "/" + url.PathEscape(chatID)
	if err := a.do(http.MethodPut, path, payload, &result); err != nil {
		return nil, err
	}
	return result.Chat, nil
}

func (a *APIClient) DeleteChat(walletAddress, chatID string) error {
	path := "/api/chats/" + url.PathEscape(walletAddress) + "/" + url.PathEscape(chatID)
	return a.do(http.MethodDelete, path, nil, nil)
}

func (a *APIClient) do(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
