package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/payment"
)

// WebhookHandler receives the payment provider's asynchronous callbacks.
// Payloads are only trusted after their HMAC signature checks out, and a
// SUCCESS outcome is still re-verified with the gateway by the coordinator.
type WebhookHandler struct {
	coordinator *payment.Coordinator
	secret      string
}

func NewWebhookHandler(coordinator *payment.Coordinator, secret string) *WebhookHandler {
	return &WebhookHandler{coordinator: coordinator, secret: secret}
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhook is the generic callback: {tx_ref, transaction_id, status}.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "unreadable payload"})
	}
	if !h.verifySignature(body, c.Request().Header.Get("verif-hash")) {
		return c.JSON(400, map[string]string{"error": "invalid signature"})
	}

	var event struct {
		TxRef         string `json:"tx_ref"`
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid payload"})
	}

	outcome := payment.OutcomeFailure
	if strings.EqualFold(event.Status, "SUCCESS") || strings.EqualFold(event.Status, "successful") {
		outcome = payment.OutcomeSuccess
	}
	if err := h.coordinator.Reconcile(c.Request().Context(), event.TxRef, event.TransactionID, outcome); err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// HandleGatewayWebhook is the provider-shaped callback:
// {event, data: {id, tx_ref, status}}.
func (h *WebhookHandler) HandleGatewayWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "unreadable payload"})
	}
	if !h.verifySignature(body, c.Request().Header.Get("verif-hash")) {
		return c.JSON(400, map[string]string{"error": "invalid signature"})
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			ID     int64  `json:"id"`
			TxRef  string `json:"tx_ref"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid payload"})
	}

	outcome := payment.OutcomeFailure
	if strings.EqualFold(event.Data.Status, "successful") {
		outcome = payment.OutcomeSuccess
	}
	transactionID := strconv.FormatInt(event.Data.ID, 10)
	if err := h.coordinator.Reconcile(c.Request().Context(), event.Data.TxRef, transactionID, outcome); err != nil {
		return writeError(c, err)
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}
