package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	feesettingsservice "github.com/pesantrenhub/sppbill/internal/feesettings/service"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
	"github.com/pesantrenhub/sppbill/internal/migration"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	studentservice "github.com/pesantrenhub/sppbill/internal/student/service"
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

func setupService(t *testing.T, db *gorm.DB) generationdomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()

	studentSvc := studentservice.NewService(studentservice.ServiceParam{
		DB:    db,
		Log:   logger,
		GenID: node,
	})
	settingsSvc := feesettingsservice.NewService(feesettingsservice.ServiceParam{
		DB:  db,
		Log: logger,
	})

	return NewService(ServiceParam{
		DB:          db,
		Log:         logger,
		GenID:       node,
		StudentSvc:  studentSvc,
		SettingsSvc: settingsSvc,
	})
}

func seedSettings(t *testing.T, db *gorm.DB, spp, catering int64, billingDay int) {
	t.Helper()
	require.NoError(t, db.Create(&feesettingsdomain.FeeSettings{
		ID:             feesettingsdomain.SingletonID,
		SppAmount:      spp,
		CateringAmount: catering,
		BillingDay:     billingDay,
	}).Error)
}

func seedStudents(t *testing.T, db *gorm.DB, n int) []*studentdomain.Student {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	students := make([]*studentdomain.Student, 0, n)
	for i := 0; i < n; i++ {
		s := &studentdomain.Student{
			ID:     node.Generate(),
			NIS:    fmt.Sprintf("NIS-%03d", i+1),
			Name:   fmt.Sprintf("Santri %02d", i+1),
			Class:  "1A",
			Active: true,
		}
		require.NoError(t, db.Create(s).Error)
		students = append(students, s)
	}
	return students
}

func billCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&billdomain.Bill{}).Count(&count).Error)
	return count
}

func recordCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&generationdomain.GenerationRecord{}).Count(&count).Error)
	return count
}

func TestCheckAndGenerateBills_BeforeBillingDay(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 10)
	seedStudents(t, db, 3)

	result, err := svc.CheckAndGenerateBills(context.Background(), time.Date(2025, time.March, 9, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.False(t, result.Ran)
	assert.Equal(t, "not_due", result.Reason)
	assert.EqualValues(t, 0, billCount(t, db))
	assert.EqualValues(t, 0, recordCount(t, db))
}

func TestCheckAndGenerateBills_OnBillingDay(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 10)
	seedStudents(t, db, 5)

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	result, err := svc.CheckAndGenerateBills(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, result.Ran)
	assert.Equal(t, "2025-03", result.PeriodKey)
	assert.Equal(t, 5, result.Eligible)
	assert.Equal(t, 5, result.Inserted)

	var bills []*billdomain.Bill
	require.NoError(t, db.Find(&bills).Error)
	require.Len(t, bills, 5)
	for _, bill := range bills {
		assert.EqualValues(t, 50000, bill.SppAmount)
		assert.EqualValues(t, 20000, bill.CateringAmount)
		assert.EqualValues(t, 70000, bill.TotalAmount)
		assert.EqualValues(t, 0, bill.AmountPaid)
		assert.Equal(t, billdomain.BillStatusUnpaid, bill.Status)
		assert.Nil(t, bill.PaidAt)
		assert.Equal(t, 2025, bill.Year)
		assert.Equal(t, 3, bill.Month)
		assert.Equal(t, "2025-03", bill.PeriodKey)
	}

	var record generationdomain.GenerationRecord
	require.NoError(t, db.First(&record, "period_key = ?", "2025-03").Error)
	assert.Equal(t, 5, record.Count)
	assert.Equal(t, 2025, record.Year)
	assert.Equal(t, 3, record.Month)
}

func TestCheckAndGenerateBills_SecondRunIsNoop(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 10)
	seedStudents(t, db, 5)

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	_, err := svc.CheckAndGenerateBills(context.Background(), now)
	require.NoError(t, err)

	result, err := svc.CheckAndGenerateBills(context.Background(), now)
	require.NoError(t, err)

	assert.False(t, result.Ran)
	assert.Equal(t, "already_generated", result.Reason)
	assert.EqualValues(t, 5, billCount(t, db))
	assert.EqualValues(t, 1, recordCount(t, db))
}

func TestCheckAndGenerateBills_NoSettings(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedStudents(t, db, 2)

	result, err := svc.CheckAndGenerateBills(context.Background(), time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.False(t, result.Ran)
	assert.Equal(t, "settings_missing", result.Reason)
	assert.EqualValues(t, 0, billCount(t, db))
}

func TestCheckAndGenerateBills_BillingDayUnset(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 0)
	seedStudents(t, db, 2)

	result, err := svc.CheckAndGenerateBills(context.Background(), time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.False(t, result.Ran)
	assert.Equal(t, "not_due", result.Reason)
	assert.EqualValues(t, 0, billCount(t, db))
}

func TestCheckAndGenerateBills_SkipsInactiveStudents(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 10)
	students := seedStudents(t, db, 4)
	require.NoError(t, db.Model(students[0]).Update("active", false).Error)

	result, err := svc.CheckAndGenerateBills(context.Background(), time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Inserted)

	var count int64
	require.NoError(t, db.Model(&billdomain.Bill{}).Where("student_id = ?", students[0].ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCheckAndGenerateBills_RetryAfterPartialRun(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 10)
	students := seedStudents(t, db, 3)

	// A previous run billed one student and crashed before writing the
	// generation record. The per-student key makes the retry skip the
	// existing bill instead of duplicating it.
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	require.NoError(t, db.Create(&billdomain.Bill{
		ID:           node.Generate(),
		StudentID:    students[0].ID,
		StudentName:  students[0].Name,
		StudentNIS:   students[0].NIS,
		StudentClass: students[0].Class,
		Year:         2025,
		Month:        3,
		PeriodKey:    "2025-03",
		SppAmount:    50000, CateringAmount: 20000, TotalAmount: 70000,
		Status:    billdomain.BillStatusUnpaid,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	result, err := svc.CheckAndGenerateBills(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, result.Ran)
	assert.Equal(t, 3, result.Eligible)
	assert.Equal(t, 2, result.Inserted)
	assert.EqualValues(t, 3, billCount(t, db))

	var count int64
	require.NoError(t, db.Model(&billdomain.Bill{}).Where("student_id = ?", students[0].ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCheckAndGenerateBills_SnapshotSurvivesSettingsChange(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	seedSettings(t, db, 50000, 20000, 10)
	seedStudents(t, db, 2)

	_, err := svc.CheckAndGenerateBills(context.Background(), time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Raising the fees later must not touch bills already issued.
	require.NoError(t, db.Model(&feesettingsdomain.FeeSettings{}).
		Where("id = ?", feesettingsdomain.SingletonID).
		Updates(map[string]any{"spp_amount": 99000, "catering_amount": 31000}).Error)

	var bills []*billdomain.Bill
	require.NoError(t, db.Find(&bills).Error)
	for _, bill := range bills {
		assert.EqualValues(t, 70000, bill.TotalAmount)
	}
}

func TestGenerateManualBill(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	students := seedStudents(t, db, 1)

	bill, err := svc.GenerateManualBill(context.Background(), generationdomain.ManualBillRequest{
		StudentID:      students[0].ID.String(),
		SppAmount:      120000,
		CateringAmount: 0,
		Description:    "Tagihan awal pendaftaran",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 120000, bill.TotalAmount)
	assert.Equal(t, billdomain.BillStatusUnpaid, bill.Status)
	assert.Equal(t, 0, bill.Year)
	assert.Equal(t, 0, bill.Month)
	assert.Contains(t, bill.PeriodKey, "manual_")

	// Manual bills are never deduplicated.
	again, err := svc.GenerateManualBill(context.Background(), generationdomain.ManualBillRequest{
		StudentID: students[0].ID.String(),
		SppAmount: 120000,
	})
	require.NoError(t, err)
	assert.NotEqual(t, bill.PeriodKey, again.PeriodKey)
	assert.EqualValues(t, 2, billCount(t, db))
}

func TestGenerateManualBill_Validation(t *testing.T) {
	db := setupDB(t)
	svc := setupService(t, db)
	students := seedStudents(t, db, 1)

	_, err := svc.GenerateManualBill(context.Background(), generationdomain.ManualBillRequest{
		StudentID: students[0].ID.String(),
		SppAmount: -1,
	})
	assert.ErrorIs(t, err, generationdomain.ErrInvalidAmount)

	_, err = svc.GenerateManualBill(context.Background(), generationdomain.ManualBillRequest{
		StudentID: students[0].ID.String(),
	})
	assert.ErrorIs(t, err, generationdomain.ErrEmptyBill)

	_, err = svc.GenerateManualBill(context.Background(), generationdomain.ManualBillRequest{
		StudentID: "not-a-snowflake",
		SppAmount: 1000,
	})
	assert.ErrorIs(t, err, studentdomain.ErrInvalidID)

	_, err = svc.GenerateManualBill(context.Background(), generationdomain.ManualBillRequest{
		StudentID: "999999999",
		SppAmount: 1000,
	})
	assert.ErrorIs(t, err, studentdomain.ErrNotFound)
}
