package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PricingClient asks the pricing collaborator for the current unit price of a
// product or variant. The resolver applies variant overrides, flash sales and
// discount prices server-side; this client only decodes the result.
type PricingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPricingClient(baseURL string) *PricingClient {
	return &PricingClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type pricingResponse struct {
	ProductID int     `json:"product_id"`
	UnitPrice float64 `json:"unit_price"`
}

func (c *PricingClient) Price(ctx context.Context, productID int, variantID *int) (float64, error) {
	url := fmt.Sprintf("%s/products/%d/pricing", c.baseURL, productID)
	if variantID != nil {
		url = fmt.Sprintf("%s?variant=%d", url, *variantID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to get pricing for product %d", productID)
	}

	var pricing pricingResponse
	if err := json.NewDecoder(resp.Body).Decode(&pricing); err != nil {
		return 0, err
	}
	return pricing.UnitPrice, nil
}
