package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"perpology/internal/service/market"
)

const webSearchTimeout = 10 * time.Second

// PriceSource delivers live market snapshots to the get_live_price tool.
type PriceSource interface {
	SymbolSnapshot(ctx context.Context, symbol string) (*market.SymbolData, error)
}

func initTools(prices PriceSource) []tool.InvokableTool {
	var tools []tool.InvokableTool

	if lp := initLivePrice(prices); lp != nil {
		tools = append(tools, lp)
	}
	if ws := initWebSearch(); ws != nil {
		tools = append(tools, ws)
	}
	return tools
}

type livePriceTool struct {
	prices PriceSource
}

type livePriceParams struct {
	Symbols []string `json:"symbols"`
}

func initLivePrice(prices PriceSource) tool.InvokableTool {
	if prices == nil {
		return nil
	}
	lp := &livePriceTool{prices: prices}
	info := &schema.ToolInfo{
		Name: "get_live_price",
		Desc: "Fetch live price, 24h change, volume and technical indicators for one or more crypto ticker symbols.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"symbols": {
				Desc:     "Crypto ticker symbols to look up, e.g. [\"BTC\", \"ETH\"].",
				Type:     schema.Array,
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
				Required: true,
			},
		}),
	}
	return utils.NewTool(info, lp.run)
}

func (t *livePriceTool) run(ctx context.Context, params *livePriceParams) (string, error) {
	if params == nil || len(params.Symbols) == 0 {
		return "", errors.New("symbols is required")
	}
	snapshots := make(map[string]*market.SymbolData, len(params.Symbols))
	for _, raw := range params.Symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		data, err := t.prices.SymbolSnapshot(ctx, symbol)
		if err != nil {
			log.Printf("live price lookup failed for %s: %v", symbol, err)
			continue
		}
		snapshots[symbol] = data
	}
	if len(snapshots) == 0 {
		return "", errors.New("no live data available for the requested symbols")
	}
	serialized, err := json.Marshal(snapshots)
	if err != nil {
		return "", fmt.Errorf("marshal snapshots: %w", err)
	}
	return string(serialized), nil
}

func initWebSearch() tool.InvokableTool {
	duckConfig := &duckduckgo.Config{
		ToolName:   "web_search",
		ToolDesc:   "Search the web for crypto news, sentiment and other current information.",
		MaxResults: 3,
		Region:     duckduckgo.RegionWT,
		Timeout:    webSearchTimeout,
	}
	duckTool, err := duckduckgo.NewTextSearchTool(context.Background(), duckConfig)
	if err != nil {
		log.Printf("web search tool disabled: %v", err)
		return nil
	}
	return duckTool
}
