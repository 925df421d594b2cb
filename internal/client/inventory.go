package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace-backend/internal/entity"
)

// InventoryClient validates cart lines against current stock and restocks
// quantities when an order is cancelled.
type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewInventoryClient(baseURL string) *InventoryClient {
	return &InventoryClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// ValidationReport carries every line-level problem plus a snapshot of each
// known product, so the caller can group lines by vendor without a second call.
type ValidationReport struct {
	Errors   []entity.LineError             `json:"errors"`
	Products map[int]entity.ProductSnapshot `json:"products"`
}

func (c *InventoryClient) Validate(ctx context.Context, lines []entity.CartLine) (*ValidationReport, error) {
	body, err := json.Marshal(map[string]interface{}{"lines": lines})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inventory/validate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory validation failed with status %d", resp.StatusCode)
	}

	var report ValidationReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *InventoryClient) Restock(ctx context.Context, productID, quantity int) error {
	body, err := json.Marshal(map[string]int{"product_id": productID, "quantity": quantity})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inventory/restock", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("restock failed for product %d with status %d", productID, resp.StatusCode)
	}
	return nil
}
