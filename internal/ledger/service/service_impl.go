package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	ledgerdomain "github.com/pesantrenhub/sppbill/internal/ledger/domain"
	"github.com/pesantrenhub/sppbill/internal/metrics"
	"github.com/pesantrenhub/sppbill/pkg/db/option"
	"github.com/pesantrenhub/sppbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	billrepo repository.Repository[billdomain.Bill]
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("ledger.service"),

		billrepo: repository.ProvideStore[billdomain.Bill](p.DB),
	}
}

func (s *Service) ApplyPayment(ctx context.Context, billID snowflake.ID, amount int64) (*billdomain.Bill, error) {
	m := metrics.Billing()

	if amount <= 0 {
		m.IncPayment("invalid_amount")
		return nil, billdomain.ErrInvalidAmount
	}

	var updated *billdomain.Bill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.billrepo.WithTrx(tx).FindOne(ctx, &billdomain.Bill{ID: billID})
		if err != nil {
			return fmt.Errorf("load bill: %w", err)
		}
		if bill == nil {
			return billdomain.ErrBillNotFound
		}
		if bill.Status == billdomain.BillStatusPaid {
			return billdomain.ErrAlreadyPaid
		}
		if amount > bill.Remaining() {
			return billdomain.ErrExceedsRemaining
		}

		now := time.Now().UTC()
		newPaid := bill.AmountPaid + amount
		newStatus := billdomain.BillStatusUnpaid
		var paidAt *time.Time
		if newPaid >= bill.TotalAmount {
			newStatus = billdomain.BillStatusPaid
			paidAt = &now
		}

		// CAS against the amount_paid we read; a concurrent payment that
		// landed in between makes this match zero rows.
		res := tx.Model(&billdomain.Bill{}).
			Where("id = ? AND amount_paid = ? AND status = ?", billID, bill.AmountPaid, billdomain.BillStatusUnpaid).
			Updates(map[string]any{
				"amount_paid":     newPaid,
				"status":          newStatus,
				"last_payment_at": now,
				"paid_at":         paidAt,
				"updated_at":      now,
			})
		if res.Error != nil {
			return fmt.Errorf("update bill: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return billdomain.ErrConcurrentUpdate
		}

		bill.AmountPaid = newPaid
		bill.Status = newStatus
		bill.LastPaymentAt = &now
		bill.PaidAt = paidAt
		bill.UpdatedAt = now
		updated = bill
		return nil
	})
	if err != nil {
		m.IncPayment(paymentResultLabel(err))
		return nil, err
	}

	s.log.Info("payment applied",
		zap.String("bill_id", billID.String()),
		zap.Int64("amount", amount),
		zap.Int64("amount_paid", updated.AmountPaid),
		zap.String("status", string(updated.Status)),
	)
	m.IncPayment("applied")
	return updated, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID snowflake.ID) ([]*billdomain.Bill, error) {
	return s.billrepo.Find(ctx,
		&billdomain.Bill{StudentID: studentID},
		option.WithOrder("created_at desc, id desc"),
	)
}

func paymentResultLabel(err error) string {
	switch {
	case errors.Is(err, billdomain.ErrBillNotFound):
		return "not_found"
	case errors.Is(err, billdomain.ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, billdomain.ErrExceedsRemaining):
		return "exceeds_remaining"
	case errors.Is(err, billdomain.ErrConcurrentUpdate):
		return "conflict"
	default:
		return "error"
	}
}
