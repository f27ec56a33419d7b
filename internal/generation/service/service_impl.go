package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
	"github.com/pesantrenhub/sppbill/internal/generation/guard"
	"github.com/pesantrenhub/sppbill/internal/metrics"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	"github.com/pesantrenhub/sppbill/pkg/db"
	"github.com/pesantrenhub/sppbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// chunkSize bounds each atomic bill insert. Mirrors the 500-document batch
// limit of the store the schema was designed against.
const chunkSize = 500

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	StudentSvc  studentdomain.Service
	SettingsSvc feesettingsdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	studentSvc  studentdomain.Service
	settingsSvc feesettingsdomain.Service
	recordrepo  repository.Repository[generationdomain.GenerationRecord]
	billrepo    repository.Repository[billdomain.Bill]
}

func NewService(p ServiceParam) generationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("generation.service"),

		genID:       p.GenID,
		studentSvc:  p.StudentSvc,
		settingsSvc: p.SettingsSvc,
		recordrepo:  repository.ProvideStore[generationdomain.GenerationRecord](p.DB),
		billrepo:    repository.ProvideStore[billdomain.Bill](p.DB),
	}
}

func (s *Service) CheckAndGenerateBills(ctx context.Context, now time.Time) (generationdomain.GenerationResult, error) {
	m := metrics.Billing()

	settings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		return generationdomain.GenerationResult{}, fmt.Errorf("load fee settings: %w", err)
	}
	if settings == nil {
		s.log.Debug("no fee settings, skipping generation")
		m.IncGenerationRun("settings_missing")
		return generationdomain.GenerationResult{Reason: "settings_missing"}, nil
	}

	if !guard.ShouldGenerate(now, settings.BillingDay) {
		m.IncGenerationRun("not_due")
		return generationdomain.GenerationResult{Reason: "not_due"}, nil
	}

	periodKey := guard.PeriodKeyFor(now)
	existing, err := s.recordrepo.FindOne(ctx, &generationdomain.GenerationRecord{PeriodKey: periodKey})
	if err != nil {
		return generationdomain.GenerationResult{}, fmt.Errorf("load generation record: %w", err)
	}
	if existing != nil {
		m.IncGenerationRun("already_generated")
		return generationdomain.GenerationResult{PeriodKey: periodKey, Reason: "already_generated"}, nil
	}

	students, err := s.studentSvc.ListActive(ctx)
	if err != nil {
		return generationdomain.GenerationResult{}, fmt.Errorf("list active students: %w", err)
	}
	if len(students) == 0 {
		s.log.Info("no active students, skipping generation", zap.String("period", periodKey))
		m.IncGenerationRun("no_active_students")
		return generationdomain.GenerationResult{PeriodKey: periodKey, Reason: "no_active_students"}, nil
	}

	bills := s.buildPeriodBills(students, settings, now, periodKey)

	inserted := 0
	for start := 0; start < len(bills); start += chunkSize {
		end := min(start+chunkSize, len(bills))
		n, err := s.insertChunk(ctx, bills[start:end])
		if err != nil {
			// The chunk rolled back as a unit; a retry re-enters here and
			// the (period_key, student_id) key skips students already billed.
			m.IncGenerationRun("chunk_failed")
			return generationdomain.GenerationResult{}, fmt.Errorf("insert bill chunk: %w", err)
		}
		inserted += n
	}

	// The record is the claim. It goes in only after every chunk committed,
	// so its existence always implies a fully generated period.
	record := &generationdomain.GenerationRecord{
		PeriodKey:   periodKey,
		Year:        now.Year(),
		Month:       int(now.Month()),
		GeneratedAt: now,
		Count:       len(students),
		Metadata: map[string]any{
			"spp_amount":      settings.SppAmount,
			"catering_amount": settings.CateringAmount,
		},
	}
	if err := s.recordrepo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// A concurrent trigger claimed the period. Its bills and ours
			// are the same rows thanks to the per-student key.
			m.IncGenerationRun("claim_lost")
			return generationdomain.GenerationResult{PeriodKey: periodKey, Reason: "already_generated"}, nil
		}
		return generationdomain.GenerationResult{}, fmt.Errorf("create generation record: %w", err)
	}

	s.log.Info("generated bills for period",
		zap.String("period", periodKey),
		zap.Int("eligible", len(students)),
		zap.Int("inserted", inserted),
	)
	m.IncGenerationRun("generated")
	m.AddBillsGenerated(inserted)

	return generationdomain.GenerationResult{
		Ran:       true,
		PeriodKey: periodKey,
		Eligible:  len(students),
		Inserted:  inserted,
	}, nil
}

func (s *Service) buildPeriodBills(
	students []*studentdomain.Student,
	settings *feesettingsdomain.FeeSettings,
	now time.Time,
	periodKey string,
) []*billdomain.Bill {
	bills := make([]*billdomain.Bill, 0, len(students))
	for _, student := range students {
		bills = append(bills, &billdomain.Bill{
			ID:             s.genID.Generate(),
			StudentID:      student.ID,
			StudentName:    student.Name,
			StudentNIS:     student.NIS,
			StudentClass:   student.Class,
			Year:           now.Year(),
			Month:          int(now.Month()),
			PeriodKey:      periodKey,
			SppAmount:      settings.SppAmount,
			CateringAmount: settings.CateringAmount,
			TotalAmount:    settings.SppAmount + settings.CateringAmount,
			AmountPaid:     0,
			Status:         billdomain.BillStatusUnpaid,
			Description:    fmt.Sprintf("Tagihan Bulan %d/%d", int(now.Month()), now.Year()),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return bills
}

func (s *Service) insertChunk(ctx context.Context, bills []*billdomain.Bill) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period_key"}, {Name: "student_id"}},
			DoNothing: true,
		}).Create(bills)
		if res.Error != nil {
			return res.Error
		}
		inserted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Service) GenerateManualBill(ctx context.Context, req generationdomain.ManualBillRequest) (*billdomain.Bill, error) {
	if req.SppAmount < 0 || req.CateringAmount < 0 {
		return nil, generationdomain.ErrInvalidAmount
	}
	total := req.SppAmount + req.CateringAmount
	if total <= 0 {
		return nil, generationdomain.ErrEmptyBill
	}

	studentID, err := snowflake.ParseString(strings.TrimSpace(req.StudentID))
	if err != nil {
		return nil, studentdomain.ErrInvalidID
	}
	student, err := s.studentSvc.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bill := &billdomain.Bill{
		ID:             s.genID.Generate(),
		StudentID:      student.ID,
		StudentName:    student.Name,
		StudentNIS:     student.NIS,
		StudentClass:   student.Class,
		PeriodKey:      guard.ManualPeriodKey(),
		SppAmount:      req.SppAmount,
		CateringAmount: req.CateringAmount,
		TotalAmount:    total,
		AmountPaid:     0,
		Status:         billdomain.BillStatusUnpaid,
		Description:    strings.TrimSpace(req.Description),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.billrepo.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("create manual bill: %w", err)
	}

	s.log.Info("manual bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("student_id", student.ID.String()),
		zap.Int64("total_amount", bill.TotalAmount),
	)
	return bill, nil
}
