// Package extbank talks to an external banking API (in development, the
// cmd/mockbank simulator) for read-only balance and transaction lookups.
package extbank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Balance fetches the remote balance for iban.
func (c *Client) Balance(ctx context.Context, iban string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := c.getJSON(ctx, fmt.Sprintf("%s/mock-bank/accounts/%s/balance", c.baseURL, iban), &balance)
	return balance, err
}

// Transactions fetches recent transaction descriptions for iban.
func (c *Client) Transactions(ctx context.Context, iban string) ([]string, error) {
	var txns []string
	err := c.getJSON(ctx, fmt.Sprintf("%s/mock-bank/accounts/%s/transactions", c.baseURL, iban), &txns)
	return txns, err
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("external bank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("external bank returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
