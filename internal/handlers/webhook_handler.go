// edumanage/internal/handlers/webhook_handler.go
package handlers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"edumanage/config"
	"edumanage/internal/intake"

	"github.com/gin-gonic/gin"
)

// webhookPayload is the gateway notification body. Amounts arrive in
// integer minor units.
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		ID        int64  `json:"id"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// GatewayWebhookHandler receives signed charge notifications. The HMAC is
// computed over the raw request bytes, never a re-serialized body, and a
// bad signature answers 401 without hinting at which check failed.
func GatewayWebhookHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read body"})
		return
	}

	if !verifySignature(body, c.GetHeader("X-Gateway-Signature"), config.GatewaySecret) {
		// Do not log the payload of an unauthenticated request.
		slog.Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed payload"})
		return
	}
	if payload.Data.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing reference"})
		return
	}

	if _, ok := intake.ParseReference(payload.Data.Reference); !ok {
		// Unrecognized intake: log and reject, never ack as success.
		slog.Warn("Webhook with unrecognized reference prefix", "reference", payload.Data.Reference)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unrecognized reference"})
		return
	}

	success := payload.Event == "charge.success" && payload.Data.Status == "success"
	if !success {
		if err := Pipeline.FinalizeFailure(config.DB, payload.Data.Reference); err != nil {
			slog.Error("Webhook failure finalization error", "reference", payload.Data.Reference, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	err = Pipeline.FinalizeSuccess(config.DB, payload.Data.Reference, intake.FormatGatewayID(payload.Data.ID))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, intake.ErrReplay):
		// Idempotent redelivery: the reference is already settled.
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, intake.ErrChargeClosed):
		// Failed is terminal. Ack so the gateway stops retrying; the money,
		// if any moved, is reconciled manually from this log line.
		slog.Warn("Success webhook for a charge already failed", "reference", payload.Data.Reference)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	case errors.Is(err, intake.ErrChargeNotFound):
		slog.Warn("Webhook for unknown charge", "reference", payload.Data.Reference)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		slog.Error("Webhook finalization error", "reference", payload.Data.Reference, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// verifySignature checks the HMAC-SHA512 of the raw body in constant time.
func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
