package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace-backend/internal/entity"
)

// CouponClient looks up an active coupon by code. A missing or inactive code
// resolves to nil; the checkout then simply carries no discount.
type CouponClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCouponClient(baseURL string) *CouponClient {
	return &CouponClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *CouponClient) FindActive(ctx context.Context, code string) (*entity.Coupon, error) {
	url := fmt.Sprintf("%s/coupons/%s/active", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coupon lookup failed with status %d", resp.StatusCode)
	}

	var coupon entity.Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}
