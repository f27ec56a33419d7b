package service

import (
	"context"
	"sort"

	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	reportdomain "github.com/pesantrenhub/sppbill/internal/report/domain"
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
}

func NewService(p ServiceParam) reportdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("report.service"),
	}
}

func (s *Service) GetArrearsReport(ctx context.Context, classFilter string) (*reportdomain.ArrearsReport, error) {
	stmt := s.db.WithContext(ctx).
		Model(&billdomain.Bill{}).
		Where("status = ?", billdomain.BillStatusUnpaid)
	if classFilter != "" {
		stmt = stmt.Where("student_class = ?", classFilter)
	}

	var bills []*billdomain.Bill
	if err := stmt.Order("created_at asc, id asc").Find(&bills).Error; err != nil {
		return nil, err
	}

	byStudent := make(map[string]*reportdomain.StudentArrears)
	for _, bill := range bills {
		key := bill.StudentID.String()
		entry, ok := byStudent[key]
		if !ok {
			entry = &reportdomain.StudentArrears{
				StudentID:    key,
				StudentName:  bill.StudentName,
				StudentNIS:   bill.StudentNIS,
				StudentClass: bill.StudentClass,
			}
			byStudent[key] = entry
		}
		entry.TotalDebt += bill.Remaining()
		entry.Bills = append(entry.Bills, bill)
	}

	report := &reportdomain.ArrearsReport{
		Students: make([]*reportdomain.StudentArrears, 0, len(byStudent)),
	}
	for _, entry := range byStudent {
		report.Students = append(report.Students, entry)
		report.GrandTotal += entry.TotalDebt
	}
	sort.Slice(report.Students, func(i, j int) bool {
		a, b := report.Students[i], report.Students[j]
		if a.StudentName != b.StudentName {
			return a.StudentName < b.StudentName
		}
		return a.StudentID < b.StudentID
	})

	return report, nil
}

func (s *Service) GetPeriodReport(ctx context.Context, year, month int, status reportdomain.PeriodStatusFilter, classFilter string) (*reportdomain.PeriodReport, error) {
	if year < 2000 || month < 1 || month > 12 {
		return nil, reportdomain.ErrInvalidPeriod
	}

	stmt := s.db.WithContext(ctx).
		Model(&billdomain.Bill{}).
		Where("year = ? AND month = ?", year, month)
	switch status {
	case reportdomain.PeriodStatusPaid:
		stmt = stmt.Where("status = ?", billdomain.BillStatusPaid)
	case reportdomain.PeriodStatusAll, "":
	default:
		return nil, reportdomain.ErrInvalidStatusFilter
	}
	if classFilter != "" {
		stmt = stmt.Where("student_class = ?", classFilter)
	}

	var bills []*billdomain.Bill
	if err := stmt.Order("created_at asc, id asc").Find(&bills).Error; err != nil {
		return nil, err
	}

	report := &reportdomain.PeriodReport{
		Year:  year,
		Month: month,
		Bills: bills,
	}
	for _, bill := range bills {
		report.Totals.SppAmount += bill.SppAmount
		report.Totals.CateringAmount += bill.CateringAmount
		report.Totals.TotalAmount += bill.TotalAmount
		report.Totals.AmountPaid += bill.AmountPaid
	}

	return report, nil
}
