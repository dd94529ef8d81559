package ai

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"perpology/internal/models"
	"perpology/internal/service/market"
)

// historyLimit caps how many prior turns accompany a request; older turns
// are dropped first.
const historyLimit = 10

// fallbackGreeting replaces an empty or non-text provider result.
const fallbackGreeting = "I'm here to help you with crypto trading analysis. What would you like to know about the markets today?"

const systemPrompt = `You are Perpology AI, an advanced crypto trading assistant specialized in perpetual futures trading. You are branded as a professional, cutting-edge AI that provides:

1. Real-time crypto market analysis
2. Technical analysis with entry/exit points
3. Risk management strategies (stop loss, take profit)
4. Live market data interpretation
5. News and social sentiment analysis
6. TradingView chart integration

Your responses should be:
- Professional and authoritative
- Data-driven with specific numbers
- Include reasoning for all recommendations
- Focused on perpetual trading strategies
- Branded with Perpology's sophisticated approach
- NEVER use hashtag symbols (#) or markdown headers in your responses
- Format sections using plain text with clear paragraph breaks instead of headers

When providing trading advice, always include:
- Specific entry price
- Stop loss level with reasoning
- Take profit targets
- Risk/reward ratio
- Market context and reasoning

You have access to live market data, news, and social sentiment. Use this data to provide accurate, timely advice.

IMPORTANT: Do not use any hashtag symbols (#) or markdown headers (###, ##, #) in your responses. Use plain text formatting with clear section breaks instead.`

// buildMessages assembles the completion request: persona, at most the last
// historyLimit turns, an optional market-context system turn, then the user
// turn.
func buildMessages(userText string, history []*models.Message, mc *market.Context) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+3)
	messages = append(messages, &schema.Message{Role: schema.System, Content: systemPrompt})

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, msg := range history {
		if msg == nil {
			continue
		}
		var role schema.RoleType
		switch msg.Role {
		case models.RoleUser:
			role = schema.User
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		messages = append(messages, &schema.Message{Role: role, Content: msg.Content})
	}

	if !mc.Empty() {
		if serialized, err := json.MarshalIndent(mc, "", "  "); err == nil {
			messages = append(messages, &schema.Message{
				Role:    schema.System,
				Content: fmt.Sprintf("Current market data: %s", serialized),
			})
		}
	}

	messages = append(messages, &schema.Message{Role: schema.User, Content: userText})
	return messages
}
