// edumanage/internal/ledger/errors.go
package ledger

import "errors"

// Error taxonomy surfaced by the financial core. Handlers translate these to
// HTTP statuses; storage errors bubble through untranslated.
var (
	ErrUnauthorized       = errors.New("caller is not authorized for this tenant")
	ErrNoTenant           = errors.New("no resolvable tenant for caller")
	ErrDuplicateStructure = errors.New("a fee structure already exists for this grade, term, year and category")
	ErrAmountInvalid      = errors.New("amount is zero, negative or malformed")
	ErrTermInvalid        = errors.New("term is outside the school's configured range")
	ErrReferenceRequired  = errors.New("non-cash payments require an external reference")
	ErrTenantMismatch     = errors.New("cross-tenant write attempted")
	ErrAdmissionExhausted = errors.New("admission number allocation failed after retries")
	ErrNotFound           = errors.New("record not found")
)
