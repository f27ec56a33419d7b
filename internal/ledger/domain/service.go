package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
)

type Service interface {
	// ApplyPayment applies a positive amount to one bill and advances its
	// settlement state. The update is a compare-and-swap on the observed
	// amount_paid, so concurrent payments against the same bill never lose
	// an update; the loser gets billdomain.ErrConcurrentUpdate and retries.
	ApplyPayment(ctx context.Context, billID snowflake.ID, amount int64) (*billdomain.Bill, error)

	// ListByStudent returns a student's bills, newest first.
	ListByStudent(ctx context.Context, studentID snowflake.ID) ([]*billdomain.Bill, error)
}
