package domain

import (
	"context"
	"errors"
	"time"

	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
)

var (
	ErrInvalidAmount = errors.New("invalid_bill_amount")
	ErrEmptyBill     = errors.New("empty_bill")
)

type Service interface {
	// CheckAndGenerateBills runs the period gate and, when due and
	// unclaimed, materializes one bill per active student. Safe to call
	// from any number of triggers; repeat calls for a processed period
	// are no-ops.
	CheckAndGenerateBills(ctx context.Context, now time.Time) (GenerationResult, error)

	// GenerateManualBill creates an ad-hoc bill outside any period.
	GenerateManualBill(ctx context.Context, req ManualBillRequest) (*billdomain.Bill, error)
}
