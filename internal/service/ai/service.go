package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"perpology/internal/config"
	"perpology/internal/extract"
	"perpology/internal/models"
	"perpology/internal/service/market"
)

// ErrGenerationFailed wraps provider failures so callers can map them to a
// single generic upstream error.
var ErrGenerationFailed = errors.New("failed to generate AI response")

// Reply is one completed assistant turn: sanitized text plus the metadata
// extracted from it.
type Reply struct {
	Content  string
	Metadata models.ResponseMetadata
}

// boundTool pairs a tool with its declared info so lookup by call name can
// never run a different tool than the one advertised to the model.
type boundTool struct {
	info *schema.ToolInfo
	impl tool.InvokableTool
}

// Service produces assistant replies. It is stateless per request; history
// is passed in by the caller on every call.
type Service struct {
	chatModel model.ToolCallingChatModel
	tools     []boundTool
}

// NewService builds the chat model named by cfg.Basic.AIProvider and binds
// the live-price and web-search tools.
func NewService(cfg *config.Config, prices PriceSource) (*Service, error) {
	provider := cfg.BasicConfig.AIProvider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var chatModel model.ToolCallingChatModel
	var err error
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return &Service{
		chatModel: chatModel,
		tools:     bindTools(context.Background(), initTools(prices)),
	}, nil
}

// bindTools reads each tool's info and drops tools whose info is unreadable;
// a dropped tool is neither advertised to the model nor runnable.
func bindTools(ctx context.Context, tools []tool.InvokableTool) []boundTool {
	bound := make([]boundTool, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			log.Printf("skipping tool with unreadable info: %v", err)
			continue
		}
		bound = append(bound, boundTool{info: info, impl: t})
	}
	return bound
}

func (s *Service) toolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, len(s.tools))
	for i, t := range s.tools {
		infos[i] = t.info
	}
	return infos
}

// Generate produces the assistant reply for userText given the prior turns
// and an optional pre-fetched market context. Tools are resolved for at most
// one round-trip; whatever text the second call returns is final.
func (s *Service) Generate(ctx context.Context, userText string, history []*models.Message, mc *market.Context) (*Reply, error) {
	messages := buildMessages(userText, history, mc)

	chatModel := s.chatModel
	if len(s.tools) > 0 {
		bound, err := chatModel.WithTools(s.toolInfos())
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", ErrGenerationFailed, err)
		}
		chatModel = bound
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.ToolCalls) > 0 {
		messages = append(messages, resp)
		for _, call := range resp.ToolCalls {
			result := s.resolveToolCall(ctx, call)
			messages = append(messages, &schema.Message{
				Role:       schema.Tool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
		resp, err = chatModel.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	content := Sanitize(resp.Content)
	if content == "" {
		content = fallbackGreeting
	}

	return &Reply{
		Content:  content,
		Metadata: extract.Extract(content, userText),
	}, nil
}

// resolveToolCall runs the named tool and always returns a string the model
// can read; failures become error text rather than aborting the turn.
func (s *Service) resolveToolCall(ctx context.Context, call schema.ToolCall) string {
	for _, t := range s.tools {
		if t.info.Name != call.Function.Name {
			continue
		}
		result, err := t.impl.InvokableRun(ctx, call.Function.Arguments)
		if err != nil {
			log.Printf("tool %s failed: %v", call.Function.Name, err)
			return fmt.Sprintf("tool error: %v", err)
		}
		return result
	}
	return fmt.Sprintf("unknown tool: %s", call.Function.Name)
}
