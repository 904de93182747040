// edumanage/internal/intake/reference.go
package intake

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Reference prefixes recognized by the intake pipeline. Anything else is an
// unrecognized intake: logged and never acknowledged as success.
const (
	PrefixStudentFee          = "STU_FEE"
	PrefixSubscriptionUpgrade = "SUB_UP"
)

// referenceTimestamp is the 14-digit yyyymmddHHMMSS layout the grammar
// requires.
const referenceTimestamp = "20060102150405"

var (
	studentRefPattern      = regexp.MustCompile(`^STU_FEE_(\d+)_(\d{14})$`)
	subscriptionRefPattern = regexp.MustCompile(`^SUB_UP_(Basic|Standard|Enterprise)_(\d+)_(\d{14})$`)
)

// Reference is a parsed intake reference.
type Reference struct {
	Prefix    string
	StudentID uint
	Plan      string
	TenantID  uint
	Timestamp time.Time
}

// StudentFeeReference builds STU_FEE_{student_id}_{yyyymmddHHMMSS}.
func StudentFeeReference(studentID uint, at time.Time) string {
	return fmt.Sprintf("%s_%d_%s", PrefixStudentFee, studentID, at.Format(referenceTimestamp))
}

// SubscriptionReference builds SUB_UP_{plan}_{tenant_id}_{yyyymmddHHMMSS}.
func SubscriptionReference(plan string, tenantID uint, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%s", PrefixSubscriptionUpgrade, plan, tenantID, at.Format(referenceTimestamp))
}

// ParseReference validates a reference against the grammar and extracts its
// parts. The boolean is false for anything outside the two known shapes.
func ParseReference(reference string) (Reference, bool) {
	if m := studentRefPattern.FindStringSubmatch(reference); m != nil {
		id, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return Reference{}, false
		}
		ts, err := time.ParseInLocation(referenceTimestamp, m[2], time.UTC)
		if err != nil {
			return Reference{}, false
		}
		return Reference{Prefix: PrefixStudentFee, StudentID: uint(id), Timestamp: ts}, true
	}

	if m := subscriptionRefPattern.FindStringSubmatch(reference); m != nil {
		id, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return Reference{}, false
		}
		ts, err := time.ParseInLocation(referenceTimestamp, m[3], time.UTC)
		if err != nil {
			return Reference{}, false
		}
		return Reference{Prefix: PrefixSubscriptionUpgrade, Plan: m[1], TenantID: uint(id), Timestamp: ts}, true
	}

	return Reference{}, false
}
