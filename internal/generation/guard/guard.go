package guard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShouldGenerate reports whether automatic generation is eligible for the
// day. It never looks at the period marker; idempotency is enforced by the
// generation record's create-if-absent claim, not by this predicate.
func ShouldGenerate(today time.Time, billingDay int) bool {
	if billingDay <= 0 {
		return false
	}
	return today.Day() >= billingDay
}

// PeriodKeyFor derives the automatic period key (YYYY-MM) for a point in time.
func PeriodKeyFor(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ManualPeriodKey returns a unique tag for an ad-hoc bill. Manual bills
// bypass the period gate and are never deduplicated.
func ManualPeriodKey() string {
	return "manual_" + uuid.NewString()
}
