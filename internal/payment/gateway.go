package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"marketplace-backend/internal/entity"
)

// Gateway is the externally hosted payment provider. Only its contract is
// modeled here: initiate a hosted checkout and verify a settled transaction.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	Verify(ctx context.Context, transactionID string) (*VerifyResult, error)
}

type InitiateRequest struct {
	TxRef       string            `json:"tx_ref"`
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	PayerEmail  string            `json:"payer_email"`
	RedirectURL string            `json:"redirect_url"`
	Meta        map[string]string `json:"meta,omitempty"`
}

type InitiateResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type VerifyResult struct {
	Status      string `json:"status"`
	TxRef       string `json:"tx_ref"`
	AmountMinor int64  `json:"amount"`
}

// StatusSuccessful is the gateway's settled-OK verification status.
const StatusSuccessful = "successful"

// HTTPGateway is the real provider client.
type HTTPGateway struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL, secretKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) Initiate(ctx context.Context, r InitiateRequest) (*InitiateResponse, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(entity.ErrPaymentGateway, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(entity.ErrPaymentGateway, "initiate returned status %d", resp.StatusCode)
	}

	var data struct {
		Status string `json:"status"`
		Data   struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(entity.ErrPaymentGateway, err.Error())
	}
	if data.Data.Link == "" {
		return nil, errors.Wrap(entity.ErrPaymentGateway, "no checkout reference in initiate response")
	}
	return &InitiateResponse{CheckoutURL: data.Data.Link}, nil
}

func (g *HTTPGateway) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transactions/%s/verify", g.baseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(entity.ErrPaymentGateway, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(entity.ErrPaymentGateway, "verify returned status %d", resp.StatusCode)
	}

	var data struct {
		Status string `json:"status"`
		Data   struct {
			Status string `json:"status"`
			TxRef  string `json:"tx_ref"`
			Amount int64  `json:"amount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(entity.ErrPaymentGateway, err.Error())
	}
	return &VerifyResult{Status: data.Data.Status, TxRef: data.Data.TxRef, AmountMinor: data.Data.Amount}, nil
}
