package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	ledgerdomain "github.com/pesantrenhub/sppbill/internal/ledger/domain"
	"github.com/pesantrenhub/sppbill/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func setupService(t *testing.T, db *gorm.DB) ledgerdomain.Service {
	t.Helper()
	return NewService(ServiceParam{DB: db, Log: zap.NewNop()})
}

func seedBill(t *testing.T, db *gorm.DB, total int64) *billdomain.Bill {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := time.Now().UTC()
	bill := &billdomain.Bill{
		ID:           node.Generate(),
		StudentID:    node.Generate(),
		StudentName:  "Ahmad Fauzi",
		StudentNIS:   "NIS-001",
		StudentClass: "2B",
		Year:         2025,
		Month:        3,
		PeriodKey:    "2025-03",
		SppAmount:    total,
		TotalAmount:  total,
		Status:       billdomain.BillStatusUnpaid,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(bill).Error)
	return bill
}

func TestApplyPayment_PartialThenFull(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	bill := seedBill(t, db, 70000)

	updated, err := svc.ApplyPayment(context.Background(), bill.ID, 40000)
	require.NoError(t, err)
	assert.EqualValues(t, 40000, updated.AmountPaid)
	assert.EqualValues(t, 30000, updated.Remaining())
	assert.Equal(t, billdomain.BillStatusUnpaid, updated.Status)
	assert.True(t, updated.Partial())
	assert.Nil(t, updated.PaidAt)
	require.NotNil(t, updated.LastPaymentAt)

	updated, err = svc.ApplyPayment(context.Background(), bill.ID, 30000)
	require.NoError(t, err)
	assert.EqualValues(t, 70000, updated.AmountPaid)
	assert.EqualValues(t, 0, updated.Remaining())
	assert.Equal(t, billdomain.BillStatusPaid, updated.Status)
	require.NotNil(t, updated.PaidAt)

	var stored billdomain.Bill
	require.NoError(t, db.First(&stored, "id = ?", bill.ID).Error)
	assert.EqualValues(t, 70000, stored.AmountPaid)
	assert.Equal(t, billdomain.BillStatusPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)
}

func TestApplyPayment_AlreadyPaid(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	bill := seedBill(t, db, 70000)

	_, err := svc.ApplyPayment(context.Background(), bill.ID, 70000)
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), bill.ID, 1)
	assert.ErrorIs(t, err, billdomain.ErrAlreadyPaid)

	var stored billdomain.Bill
	require.NoError(t, db.First(&stored, "id = ?", bill.ID).Error)
	assert.EqualValues(t, 70000, stored.AmountPaid)
}

func TestApplyPayment_ExceedsRemaining(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	bill := seedBill(t, db, 70000)

	_, err := svc.ApplyPayment(context.Background(), bill.ID, 80000)
	assert.ErrorIs(t, err, billdomain.ErrExceedsRemaining)

	var stored billdomain.Bill
	require.NoError(t, db.First(&stored, "id = ?", bill.ID).Error)
	assert.EqualValues(t, 0, stored.AmountPaid)
	assert.Equal(t, billdomain.BillStatusUnpaid, stored.Status)
	assert.Nil(t, stored.LastPaymentAt)
}

func TestApplyPayment_ExceedsRemainingAfterPartial(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	bill := seedBill(t, db, 70000)

	_, err := svc.ApplyPayment(context.Background(), bill.ID, 40000)
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), bill.ID, 30001)
	assert.ErrorIs(t, err, billdomain.ErrExceedsRemaining)

	var stored billdomain.Bill
	require.NoError(t, db.First(&stored, "id = ?", bill.ID).Error)
	assert.EqualValues(t, 40000, stored.AmountPaid)
}

func TestApplyPayment_InvalidAmount(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	bill := seedBill(t, db, 70000)

	for _, amount := range []int64{0, -500} {
		_, err := svc.ApplyPayment(context.Background(), bill.ID, amount)
		assert.ErrorIs(t, err, billdomain.ErrInvalidAmount)
	}
}

func TestApplyPayment_ConflictOnInterleavedPayment(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	bill := seedBill(t, db, 70000)

	// Slip a competing payment in after the read so the compare-and-swap
	// sees a stale amount_paid and matches zero rows.
	interleaved := false
	err := db.Callback().Query().After("gorm:query").Register("interleave_payment", func(tx *gorm.DB) {
		if interleaved || tx.Statement.Table != "bills" {
			return
		}
		interleaved = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE bills SET amount_paid = amount_paid + ? WHERE id = ?", int64(10000), bill.ID)
	})
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), bill.ID, 40000)
	assert.ErrorIs(t, err, billdomain.ErrConcurrentUpdate)

	// The losing payment left nothing behind; a retry observes the fresh
	// state and lands cleanly.
	updated, err := svc.ApplyPayment(context.Background(), bill.ID, 40000)
	require.NoError(t, err)
	assert.EqualValues(t, 40000, updated.AmountPaid)
	assert.LessOrEqual(t, updated.AmountPaid, updated.TotalAmount)
	assert.Equal(t, billdomain.BillStatusUnpaid, updated.Status)
}

func TestApplyPayment_NotFound(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), node.Generate(), 1000)
	assert.ErrorIs(t, err, billdomain.ErrBillNotFound)
}

func TestListByStudent(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)

	first := seedBill(t, db, 70000)
	second := &billdomain.Bill{
		ID:          first.ID + 1,
		StudentID:   first.StudentID,
		StudentName: first.StudentName, StudentNIS: first.StudentNIS, StudentClass: first.StudentClass,
		Year: 2025, Month: 4, PeriodKey: "2025-04",
		SppAmount: 70000, TotalAmount: 70000,
		Status:    billdomain.BillStatusUnpaid,
		CreatedAt: first.CreatedAt.Add(time.Hour),
		UpdatedAt: first.CreatedAt.Add(time.Hour),
	}
	require.NoError(t, db.Create(second).Error)

	bills, err := svc.ListByStudent(context.Background(), first.StudentID)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "2025-04", bills[0].PeriodKey)
	assert.Equal(t, "2025-03", bills[1].PeriodKey)
}
