package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

const fearGreedURL = "https://api.alternative.me/fng/"

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// fetchFearGreed reads the alternative.me fear & greed index.
func fetchFearGreed(ctx context.Context, client *http.Client) (*FearGreed, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fearGreedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out fngResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, errors.New("fear & greed feed returned no data")
	}
	value, err := strconv.Atoi(out.Data[0].Value)
	if err != nil {
		return nil, err
	}
	return &FearGreed{Value: value, Classification: out.Data[0].ValueClassification}, nil
}
