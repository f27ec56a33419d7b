package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidPeriod       = errors.New("invalid_report_period")
	ErrInvalidStatusFilter = errors.New("invalid_status_filter")
)

type Service interface {
	// GetArrearsReport aggregates every unpaid bill across all periods per
	// student. classFilter narrows by exact class; empty means all classes.
	GetArrearsReport(ctx context.Context, classFilter string) (*ArrearsReport, error)

	// GetPeriodReport lists bills for one (year, month) with column totals.
	GetPeriodReport(ctx context.Context, year, month int, status PeriodStatusFilter, classFilter string) (*PeriodReport, error)
}
