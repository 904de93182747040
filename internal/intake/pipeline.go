// edumanage/internal/intake/pipeline.go
package intake

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrReplay marks a webhook delivery whose reference was already
	// finalized. Handlers ack it with 200 and change nothing.
	ErrReplay = errors.New("charge already completed")

	// ErrChargeNotFound means the reference matches no pending charge.
	ErrChargeNotFound = errors.New("no pending charge for reference")

	// ErrChargeClosed marks a success event for a charge already swept to
	// Failed. Failed is terminal; the settlement never runs.
	ErrChargeClosed = errors.New("charge already closed as failed")

	// ErrUnknownPlan rejects subscription pushes for plans outside
	// Basic/Standard/Enterprise.
	ErrUnknownPlan = errors.New("unknown subscription plan")
)

// subscriptionExtensionDays is added to the later of (now, current end) on
// every completed upgrade.
const subscriptionExtensionDays = 31

// Pipeline coordinates the two-phase mobile-money protocol: phase 1
// dispatches STK pushes and stores PendingCharges; phase 2 finalizes them
// from webhooks or manual verification, exactly once per reference.
type Pipeline struct {
	Gateway Gateway

	// now is swappable in tests; references embed its second-granularity
	// timestamp.
	now func() time.Time
}

// NewPipeline wires a pipeline around a gateway client.
func NewPipeline(gw Gateway) *Pipeline {
	return &Pipeline{Gateway: gw, now: time.Now}
}

// InitiateStudentCharge runs phase 1 for a student tuition payment. A
// PendingCharge is stored only when the gateway accepts; a reference
// collision (double submit within one second) is retried once with a fresh
// timestamp.
func (p *Pipeline) InitiateStudentCharge(db *gorm.DB, tenantID, studentID uint, amount decimal.Decimal, phone, email string) (*models.PendingCharge, error) {
	if !amount.IsPositive() {
		return nil, ledger.ErrAmountInvalid
	}

	var student models.Student
	if err := db.Where("tenant_id = ?", tenantID).First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}

	at := p.now()
	for attempt := 0; attempt < 2; attempt++ {
		reference := StudentFeeReference(studentID, at)
		charge, err := p.dispatch(db, &models.PendingCharge{
			TenantID:  tenantID,
			Reference: reference,
			StudentID: &studentID,
			Amount:    amount,
			Phone:     phone,
		}, email, phone, amount)
		if err == nil {
			return charge, nil
		}
		if !isUniqueReference(err) {
			return nil, err
		}
		at = at.Add(time.Second)
	}
	return nil, ErrReplay
}

// InitiateSubscriptionCharge runs phase 1 for a tenant plan upgrade.
func (p *Pipeline) InitiateSubscriptionCharge(db *gorm.DB, tenantID uint, plan string, amount decimal.Decimal, phone, email string) (*models.PendingCharge, error) {
	if !amount.IsPositive() {
		return nil, ledger.ErrAmountInvalid
	}
	switch plan {
	case models.PlanBasic, models.PlanStandard, models.PlanEnterprise:
	default:
		return nil, ErrUnknownPlan
	}

	at := p.now()
	for attempt := 0; attempt < 2; attempt++ {
		reference := SubscriptionReference(plan, tenantID, at)
		charge, err := p.dispatch(db, &models.PendingCharge{
			TenantID:  tenantID,
			Reference: reference,
			Plan:      plan,
			Amount:    amount,
			Phone:     phone,
		}, email, phone, amount)
		if err == nil {
			return charge, nil
		}
		if !isUniqueReference(err) {
			return nil, err
		}
		at = at.Add(time.Second)
	}
	return nil, ErrReplay
}

// dispatch sends the push and persists the PendingCharge on acceptance.
// Nothing is written when the gateway rejects or the outcome is unknown.
func (p *Pipeline) dispatch(db *gorm.DB, charge *models.PendingCharge, email, phone string, amount decimal.Decimal) (*models.PendingCharge, error) {
	gatewayRef, err := p.Gateway.InitiateCharge(email, phone, MinorUnits(amount), charge.Reference, map[string]interface{}{
		"tenant_id": charge.TenantID,
	})
	if err != nil {
		return nil, err
	}

	charge.GatewayRef = gatewayRef
	charge.Status = models.ChargePending
	if err := db.Create(charge).Error; err != nil {
		return nil, err
	}
	return charge, nil
}

// FinalizeSuccess applies a confirmed charge exactly once: a student-fee
// reference materializes a tuition Payment, a subscription reference
// upgrades the tenant. The Pending-to-Completed transition is a single
// guarded update, so of two concurrent deliveries only one settles; the
// other sees zero rows claimed and reports ErrReplay (already Completed)
// or ErrChargeClosed (already Failed).
func (p *Pipeline) FinalizeSuccess(db *gorm.DB, reference, gatewayTxnID string) error {
	parsed, ok := ParseReference(reference)
	if !ok {
		return ErrChargeNotFound
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var charge models.PendingCharge
		if err := tx.Where("reference = ?", reference).First(&charge).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChargeNotFound
			}
			return err
		}

		claim := tx.Model(&models.PendingCharge{}).
			Where("id = ? AND status = ?", charge.ID, models.ChargePending).
			Updates(map[string]interface{}{
				"status":         models.ChargeCompleted,
				"gateway_txn_id": gatewayTxnID,
				"completed_at":   p.now(),
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			// The guarded update re-checks the status against the latest
			// committed row, so a concurrent finalizer or the expiry sweep
			// got here first. Re-read to tell which.
			if err := tx.Where("id = ?", charge.ID).First(&charge).Error; err != nil {
				return err
			}
			if charge.Status == models.ChargeCompleted {
				return ErrReplay
			}
			return ErrChargeClosed
		}

		switch parsed.Prefix {
		case PrefixStudentFee:
			return p.settleStudentFee(tx, &charge)
		case PrefixSubscriptionUpgrade:
			return p.settleSubscription(tx, &charge, parsed.Plan)
		}
		return nil
	})
}

func (p *Pipeline) settleStudentFee(tx *gorm.DB, charge *models.PendingCharge) error {
	if charge.StudentID == nil {
		return ErrChargeNotFound
	}
	account, err := ledger.AccountFor(tx, charge.TenantID, *charge.StudentID, models.StreamTuition)
	if err != nil {
		return err
	}
	_, err = ledger.RecordPayment(tx, charge.TenantID, account.ID, ledger.PaymentInput{
		Amount:      charge.Amount,
		Method:      models.MethodMpesa,
		Reference:   charge.Reference,
		Description: "Mobile money fee payment",
	})
	return err
}

func (p *Pipeline) settleSubscription(tx *gorm.DB, charge *models.PendingCharge, plan string) error {
	var tenant models.Tenant
	if err := tx.First(&tenant, charge.TenantID).Error; err != nil {
		return err
	}

	// The new period starts from the later of now and the current end, so
	// early renewals never lose paid-for days.
	now := p.now()
	base := now
	if tenant.TrialEndDate != nil && tenant.TrialEndDate.After(now) {
		base = *tenant.TrialEndDate
	}
	newEnd := base.AddDate(0, 0, subscriptionExtensionDays)

	if err := tx.Model(&tenant).Updates(map[string]interface{}{
		"subscription_plan":   plan,
		"subscription_status": models.SubscriptionActive,
		"trial_end_date":      newEnd,
	}).Error; err != nil {
		return err
	}

	return tx.Create(&models.SubscriptionPayment{
		TenantID:  charge.TenantID,
		Plan:      plan,
		Amount:    charge.Amount,
		Reference: charge.Reference,
		Status:    models.ChargeCompleted,
		PaidAt:    now,
	}).Error
}

// FinalizeFailure marks a pending charge Failed. Completed charges are left
// alone: a late failure event can never undo a settlement.
func (p *Pipeline) FinalizeFailure(db *gorm.DB, reference string) error {
	result := db.Model(&models.PendingCharge{}).
		Where("reference = ? AND status = ?", reference, models.ChargePending).
		Update("status", models.ChargeFailed)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// VerifyPending is the caller-driven fallback: it asks the gateway's verify
// endpoint synchronously and finalizes on confirmation. The reference-keyed
// idempotency in FinalizeSuccess resolves any race with a late webhook.
func (p *Pipeline) VerifyPending(db *gorm.DB, reference string) (*models.PendingCharge, error) {
	var charge models.PendingCharge
	if err := db.Where("reference = ?", reference).First(&charge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChargeNotFound
		}
		return nil, err
	}
	if charge.Status == models.ChargeCompleted {
		return &charge, nil
	}

	success, data, err := p.Gateway.VerifyCharge(reference)
	if err != nil {
		return nil, err
	}
	if success {
		err := p.FinalizeSuccess(db, reference, FormatGatewayID(data.ID))
		if err != nil && !errors.Is(err, ErrReplay) && !errors.Is(err, ErrChargeClosed) {
			return nil, err
		}
		if errors.Is(err, ErrChargeClosed) {
			slog.Warn("Gateway confirmed a charge already closed as failed", "reference", reference)
		}
	}

	if err := db.Where("reference = ?", reference).First(&charge).Error; err != nil {
		return nil, err
	}
	return &charge, nil
}

// ExpireStale moves charges that stayed Pending past the TTL to Failed.
// Returns how many rows were swept.
func (p *Pipeline) ExpireStale(db *gorm.DB, ttl time.Duration) (int64, error) {
	cutoff := p.now().Add(-ttl)
	result := db.Model(&models.PendingCharge{}).
		Where("status = ? AND created_at < ?", models.ChargePending, cutoff).
		Update("status", models.ChargeFailed)
	return result.RowsAffected, result.Error
}

// StartExpirySweep runs ExpireStale on a ticker until the context ends.
func (p *Pipeline) StartExpirySweep(ctx context.Context, db *gorm.DB, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := p.ExpireStale(db, ttl)
				if err != nil {
					slog.Error("Pending charge sweep failed", "error", err)
				} else if swept > 0 {
					slog.Info("Expired stale pending charges", "count", swept)
				}
			}
		}
	}()
}

// MinorUnits converts a 2-decimal amount to the gateway's integer minor
// units (amount × 100).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MajorUnits converts gateway minor units back to a 2-decimal amount.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100))
}

// FormatGatewayID renders the gateway's numeric transaction id for storage;
// zero means the gateway sent none.
func FormatGatewayID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// isUniqueReference matches a duplicate-reference insert.
func isUniqueReference(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
