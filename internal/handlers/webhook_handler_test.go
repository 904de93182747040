// edumanage/internal/handlers/webhook_handler_test.go
package handlers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edumanage/config"
	"edumanage/internal/intake"
	"edumanage/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "sk_test_webhook_secret"

type stubGateway struct{}

func (stubGateway) InitiateCharge(email, phone string, amountMinor int64, reference string, metadata map[string]interface{}) (string, error) {
	return reference, nil
}

func (stubGateway) VerifyCharge(reference string) (bool, intake.VerifyData, error) {
	return false, intake.VerifyData{}, nil
}

func setupWebhookTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.Student{},
		&models.StreamAccount{},
		&models.Transaction{},
		&models.PendingCharge{},
		&models.SubscriptionPayment{},
	))

	config.DB = db
	config.GatewaySecret = testSecret
	Pipeline = intake.NewPipeline(stubGateway{})

	r := gin.New()
	r.POST("/webhooks/gateway", GatewayWebhookHandler)
	return r
}

func seedPendingCharge(t *testing.T, reference string, studentID uint) *models.PendingCharge {
	t.Helper()
	tenant := models.Tenant{Name: "Test School", Code: "EDU", CurrentTerm: 1,
		CurrentAcademicYear: "2024-2025", TermsPerYear: 3, AdmissionFormat: "{COUNTER}"}
	require.NoError(t, config.DB.Create(&tenant).Error)
	student := models.Student{
		Model:           gorm.Model{ID: studentID},
		TenantID:        tenant.ID,
		AdmissionNumber: "EDU/2024/0042",
		FirstName:       "Amina",
		LastName:        "Otieno",
		CurrentTerm:     1,
	}
	require.NoError(t, config.DB.Create(&student).Error)
	charge := models.PendingCharge{
		TenantID:  tenant.ID,
		Reference: reference,
		StudentID: &student.ID,
		Amount:    decimal.NewFromInt(5000),
		Status:    models.ChargePending,
	}
	require.NoError(t, config.DB.Create(&charge).Error)
	return &charge
}

func signBody(body string) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Gateway-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func successBody(reference string) string {
	return fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"status":"success","id":4099260516,"amount":500000}}`, reference)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := setupWebhookTest(t)
	seedPendingCharge(t, "STU_FEE_42_20240315103000", 42)
	body := successBody("STU_FEE_42_20240315103000")

	assert.Equal(t, http.StatusUnauthorized, postWebhook(r, body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, postWebhook(r, body, "deadbeef").Code)
	assert.Equal(t, http.StatusUnauthorized, postWebhook(r, body, signBody(body+"tampered")).Code)

	// Nothing was settled.
	var charge models.PendingCharge
	require.NoError(t, config.DB.Where("reference = ?", "STU_FEE_42_20240315103000").First(&charge).Error)
	assert.Equal(t, models.ChargePending, charge.Status)
}

func TestWebhookSettlesChargeOnce(t *testing.T) {
	r := setupWebhookTest(t)
	charge := seedPendingCharge(t, "STU_FEE_42_20240315103000", 42)
	body := successBody(charge.Reference)

	// Three identical deliveries: all acknowledged, one payment.
	for i := 0; i < 3; i++ {
		w := postWebhook(r, body, signBody(body))
		assert.Equal(t, http.StatusOK, w.Code, "delivery %d", i+1)
	}

	var reloaded models.PendingCharge
	require.NoError(t, config.DB.First(&reloaded, charge.ID).Error)
	assert.Equal(t, models.ChargeCompleted, reloaded.Status)
	assert.Equal(t, "4099260516", reloaded.GatewayTxnID)

	var payments int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).
		Where("kind = ? AND reference = ?", models.TxPayment, charge.Reference).
		Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}

func TestWebhookFailureEvent(t *testing.T) {
	r := setupWebhookTest(t)
	charge := seedPendingCharge(t, "STU_FEE_42_20240315103000", 42)
	body := fmt.Sprintf(`{"event":"charge.failed","data":{"reference":%q,"status":"failed"}}`, charge.Reference)

	w := postWebhook(r, body, signBody(body))
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.PendingCharge
	require.NoError(t, config.DB.First(&reloaded, charge.ID).Error)
	assert.Equal(t, models.ChargeFailed, reloaded.Status)

	var payments int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestWebhookSuccessAfterFailureIgnored(t *testing.T) {
	r := setupWebhookTest(t)
	charge := seedPendingCharge(t, "STU_FEE_42_20240315103000", 42)
	failure := fmt.Sprintf(`{"event":"charge.failed","data":{"reference":%q,"status":"failed"}}`, charge.Reference)
	require.Equal(t, http.StatusOK, postWebhook(r, failure, signBody(failure)).Code)

	// Failed is terminal: a success arriving later is acked but settles
	// nothing.
	success := successBody(charge.Reference)
	w := postWebhook(r, success, signBody(success))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	var reloaded models.PendingCharge
	require.NoError(t, config.DB.First(&reloaded, charge.ID).Error)
	assert.Equal(t, models.ChargeFailed, reloaded.Status)

	var payments int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestWebhookMalformedPayload(t *testing.T) {
	r := setupWebhookTest(t)

	body := `{"event": "charge.success", "data": {`
	assert.Equal(t, http.StatusBadRequest, postWebhook(r, body, signBody(body)).Code)

	body = `{"event":"charge.success","data":{"status":"success"}}`
	assert.Equal(t, http.StatusBadRequest, postWebhook(r, body, signBody(body)).Code)
}

func TestWebhookUnrecognizedReferencePrefix(t *testing.T) {
	r := setupWebhookTest(t)
	body := `{"event":"charge.success","data":{"reference":"REFUND_9_20240315103000","status":"success"}}`

	w := postWebhook(r, body, signBody(body))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWebhookUnknownChargeAcknowledged(t *testing.T) {
	r := setupWebhookTest(t)
	body := successBody("STU_FEE_7_20240315103000")

	// Well-formed but matching no pending charge: ack so the gateway
	// stops retrying, settle nothing.
	w := postWebhook(r, body, signBody(body))
	assert.Equal(t, http.StatusOK, w.Code)

	var payments int64
	require.NoError(t, config.DB.Model(&models.Transaction{}).Count(&payments).Error)
	assert.Zero(t, payments)
}
