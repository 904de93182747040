// edumanage/internal/intake/gateway.go
package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Pushes may take longer than verifies, so they get a longer timeout.
const (
	pushTimeout   = 15 * time.Second
	verifyTimeout = 10 * time.Second
)

// ErrGatewayUnreachable covers timeouts and connection failures on outbound
// calls; callers may retry.
var ErrGatewayUnreachable = errors.New("payment gateway unreachable")

// GatewayError is a phase-1 rejection with the gateway's error code.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected charge (code %s): %s", e.Code, e.Message)
}

// UserMessage translates known gateway codes to user-visible text.
// Unmapped codes surface with the gateway's own message.
func (e *GatewayError) UserMessage() string {
	switch e.Code {
	case "1037":
		return "Invalid amount"
	case "1025":
		return "Invalid phone format, use 254XXXXXXXXX"
	case "1019":
		return "Exceeds daily limit"
	default:
		return "Payment failed: " + e.Message
	}
}

// Gateway is the outbound contract the core consumes.
type Gateway interface {
	InitiateCharge(email, phone string, amountMinor int64, reference string, metadata map[string]interface{}) (string, error)
	VerifyCharge(reference string) (bool, VerifyData, error)
}

// VerifyData is the confirmed-charge payload of the verify endpoint.
type VerifyData struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	AmountMinor int64  `json:"amount"`
}

// Client talks to the Paystack-compatible gateway over HTTPS with a bearer
// secret. Amounts cross the wire in minor units.
type Client struct {
	BaseURL string
	Secret  string

	pushClient   *http.Client
	verifyClient *http.Client
}

// NewClient builds a gateway client with the contract timeouts applied.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		BaseURL:      baseURL,
		Secret:       secret,
		pushClient:   &http.Client{Timeout: pushTimeout},
		verifyClient: &http.Client{Timeout: verifyTimeout},
	}
}

type chargeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Reference   string                 `json:"reference"`
	MobileMoney map[string]string      `json:"mobile_money"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type chargeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Data    struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// InitiateCharge dispatches an STK push. On acceptance it returns the
// gateway's reference; on rejection a *GatewayError; on timeout or network
// failure ErrGatewayUnreachable (outcome unknown, nothing persisted).
func (c *Client) InitiateCharge(email, phone string, amountMinor int64, reference string, metadata map[string]interface{}) (string, error) {
	payload := chargeRequest{
		Email:     email,
		Amount:    amountMinor,
		Reference: reference,
		MobileMoney: map[string]string{
			"phone":    phone,
			"provider": "mpesa",
		},
		Metadata: metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/charge", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.pushClient.Do(req)
	if err != nil {
		if isTransportError(err) {
			return "", ErrGatewayUnreachable
		}
		return "", err
	}
	defer resp.Body.Close()

	var parsed chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if !parsed.Status {
		return "", &GatewayError{Code: parsed.Code, Message: parsed.Message}
	}
	if parsed.Data.Reference == "" {
		parsed.Data.Reference = reference
	}
	return parsed.Data.Reference, nil
}

type verifyResponse struct {
	Status  bool       `json:"status"`
	Message string     `json:"message"`
	Data    VerifyData `json:"data"`
}

// VerifyCharge queries the gateway's verify endpoint synchronously. The
// boolean reports whether the charge is confirmed successful.
func (c *Client) VerifyCharge(reference string) (bool, VerifyData, error) {
	req, err := http.NewRequest(http.MethodGet,
		c.BaseURL+"/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return false, VerifyData{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)

	resp, err := c.verifyClient.Do(req)
	if err != nil {
		if isTransportError(err) {
			return false, VerifyData{}, ErrGatewayUnreachable
		}
		return false, VerifyData{}, err
	}
	defer resp.Body.Close()

	var parsed verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, VerifyData{}, err
	}
	if !parsed.Status {
		return false, VerifyData{}, nil
	}
	return parsed.Data.Status == "success", parsed.Data, nil
}

func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
