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

// AddressClient talks to the user/profile collaborator that owns address
// records. The checkout only needs a resolved shipping location out of it.
type AddressClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAddressClient(baseURL string) *AddressClient {
	return &AddressClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Resolve walks the four selection modes in order: explicit address id, saved
// shipping address id, an inline ad-hoc address (created on the fly), then the
// user's default address. When none resolves the checkout fails with
// ErrAddressResolution.
func (c *AddressClient) Resolve(ctx context.Context, userID int, sel entity.CheckoutAddress) (*entity.ResolvedAddress, error) {
	if sel.AddressID != nil {
		return c.fetch(ctx, fmt.Sprintf("%s/addresses/%d", c.baseURL, *sel.AddressID), false)
	}
	if sel.ShippingAddressID != nil {
		return c.fetch(ctx, fmt.Sprintf("%s/shipping-addresses/%d", c.baseURL, *sel.ShippingAddressID), true)
	}
	if sel.ShippingAddress != nil {
		return c.create(ctx, userID, *sel.ShippingAddress)
	}
	return c.fetch(ctx, fmt.Sprintf("%s/users/%d/addresses/default", c.baseURL, userID), false)
}

func (c *AddressClient) fetch(ctx context.Context, url string, shipping bool) (*entity.ResolvedAddress, error) {
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
		return nil, entity.ErrAddressResolution
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address lookup failed with status %d", resp.StatusCode)
	}

	var data struct {
		ID      int64  `json:"id"`
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	resolved := &entity.ResolvedAddress{City: data.City, State: data.State, Country: data.Country}
	if shipping {
		resolved.ShippingAddressID = &data.ID
	} else {
		resolved.AddressID = &data.ID
	}
	return resolved, nil
}

func (c *AddressClient) create(ctx context.Context, userID int, input entity.AddressInput) (*entity.ResolvedAddress, error) {
	body, err := json.Marshal(map[string]interface{}{"user_id": userID, "address": input})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shipping-addresses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, entity.ErrAddressResolution
	}

	var data struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &entity.ResolvedAddress{
		ShippingAddressID: &data.ID,
		City:              input.City,
		State:             input.State,
		Country:           input.Country,
	}, nil
}
