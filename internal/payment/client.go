package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Intent is the gateway-side pending payment: an opaque id the client pays
// against out-of-band.
type Intent struct {
	IntentID string `json:"intent_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client talks to the payment gateway. The http.Client is injected so mains
// can wrap the transport for tracing.
type Client struct {
	baseURL string
	keyID   string
	client  *http.Client
}

func NewClient(baseURL, keyID string, client *http.Client) *Client {
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		client:  client,
	}
}

type createIntentRequest struct {
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateIntent asks the gateway to mint an intent for amount in minor
// currency units.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error) {
	body, err := json.Marshal(createIntentRequest{
		KeyID:    c.keyID,
		Amount:   amountMinor,
		Currency: currency,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	return &intent, nil
}
