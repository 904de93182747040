// edumanage/internal/intake/gateway_test.go
package intake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientInitiateChargeAccepted(t *testing.T) {
	var got chargeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charge", r.URL.Path)
		require.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Charge attempted",
			"data": map[string]interface{}{
				"reference": got.Reference,
				"status":    "pay_offline",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	reference, err := client.InitiateCharge("parent@example.com", "254712345678", 500000, "STU_FEE_42_20240315103000", nil)
	require.NoError(t, err)
	assert.Equal(t, "STU_FEE_42_20240315103000", reference)
	assert.EqualValues(t, 500000, got.Amount)
	assert.Equal(t, "mpesa", got.MobileMoney["provider"])
	assert.Equal(t, "254712345678", got.MobileMoney["phone"])
}

func TestClientInitiateChargeRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid phone number",
			"code":    "1025",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	_, err := client.InitiateCharge("", "0712", 100, "STU_FEE_1_20240315103000", nil)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "1025", gwErr.Code)
	assert.Equal(t, "Invalid phone format, use 254XXXXXXXXX", gwErr.UserMessage())
}

func TestGatewayErrorUserMessages(t *testing.T) {
	cases := map[string]string{
		"1037": "Invalid amount",
		"1025": "Invalid phone format, use 254XXXXXXXXX",
		"1019": "Exceeds daily limit",
	}
	for code, want := range cases {
		e := &GatewayError{Code: code, Message: "raw"}
		assert.Equal(t, want, e.UserMessage())
	}
	e := &GatewayError{Code: "9999", Message: "upstream exploded"}
	assert.Equal(t, "Payment failed: upstream exploded", e.UserMessage())
}

func TestClientVerifyCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/STU_FEE_42_20240315103000", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"id":        4099260516,
				"status":    "success",
				"reference": "STU_FEE_42_20240315103000",
				"amount":    500000,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	ok, data, err := client.VerifyCharge("STU_FEE_42_20240315103000")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 4099260516, data.ID)
	assert.EqualValues(t, 500000, data.AmountMinor)
}

func TestClientVerifyChargeNotSuccessful(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"status": "abandoned",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	ok, _, err := client.VerifyCharge("STU_FEE_42_20240315103000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientUnreachableGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections from here on

	client := NewClient(server.URL, "sk_test_secret")
	_, err := client.InitiateCharge("", "254712345678", 100, "STU_FEE_1_20240315103000", nil)
	assert.ErrorIs(t, err, ErrGatewayUnreachable)

	_, _, err = client.VerifyCharge("STU_FEE_1_20240315103000")
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}
