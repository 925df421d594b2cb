package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ShippingClient resolves the cost of a chosen shipping option for a vendor.
// An unknown option costs 0, it is not an error.
type ShippingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewShippingClient(baseURL string) *ShippingClient {
	return &ShippingClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *ShippingClient) Cost(ctx context.Context, shippingOptionID, vendorID int) (float64, error) {
	url := fmt.Sprintf("%s/shipping/%d/cost?vendor=%d", c.baseURL, shippingOptionID, vendorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("shipping cost lookup failed with status %d", resp.StatusCode)
	}

	var data struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, err
	}
	return data.Amount, nil
}
