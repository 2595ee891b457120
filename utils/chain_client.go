package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	retry "github.com/avast/retry-go"
)

// ChainTxInfo is the chain-query collaborator's view of one transaction.
type ChainTxInfo struct {
	Found         bool    `json:"found"`
	Confirmations int     `json:"confirmations"`
	ToAddress     string  `json:"to_address"`
	Amount        float64 `json:"amount"`
	BlockHeight   int64   `json:"block_height"`
}

// ChainQuerier looks up transactions on an external chain-query service. The
// service owns all on-chain knowledge; this core never talks to a node.
type ChainQuerier interface {
	Lookup(ctx context.Context, cryptoType, txHash string) (*ChainTxInfo, error)
}

// Chain is the process-wide chain-query collaborator. Tests swap in a fake.
var Chain ChainQuerier = &HTTPChainClient{}

// HTTPChainClient queries a REST chain-indexer gateway.
type HTTPChainClient struct {
	BaseURL string
	Client  *http.Client
}

// InitChainClient configures the default chain-query collaborator.
func InitChainClient(baseURL string) {
	Chain = &HTTPChainClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Lookup fetches a transaction, retrying transient failures with backoff. The
// context's deadline bounds the whole operation; a timed-out lookup surfaces
// as ErrChainQueryFailed and the caller's payment request stays retriable.
func (c *HTTPChainClient) Lookup(ctx context.Context, cryptoType, txHash string) (*ChainTxInfo, error) {
	if c.BaseURL == "" {
		return nil, WrapError(ErrChainQueryFailed, "chain query URL not configured")
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	var info ChainTxInfo
	err := retry.Do(
		func() error {
			url := fmt.Sprintf("%s/tx/%s/%s", c.BaseURL, cryptoType, txHash)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("chain query returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&info)
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		LogError("Chain query failed for %s hash %s: %v", cryptoType, txHash, err)
		return nil, WrapError(ErrChainQueryFailed, err.Error())
	}
	return &info, nil
}
