package domain

import (
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
)

// StudentArrears is one student's all-time outstanding position with the
// constituent unpaid bills kept for drill-down.
type StudentArrears struct {
	StudentID    string             `json:"student_id"`
	StudentName  string             `json:"student_name"`
	StudentNIS   string             `json:"student_nis"`
	StudentClass string             `json:"student_class"`
	TotalDebt    int64              `json:"total_debt"`
	Bills        []*billdomain.Bill `json:"bills"`
}

// ArrearsReport spans all periods: it selects every unpaid bill regardless
// of month and does not accept a period filter.
type ArrearsReport struct {
	Students   []*StudentArrears `json:"students"`
	GrandTotal int64             `json:"grand_total"`
}

// PeriodStatusFilter narrows the period view. The unpaid-all-time
// semantics belong to the arrears view, so "unpaid" is not accepted here.
type PeriodStatusFilter string

const (
	PeriodStatusPaid PeriodStatusFilter = "paid"
	PeriodStatusAll  PeriodStatusFilter = "all"
)

type PeriodTotals struct {
	SppAmount      int64 `json:"spp_amount"`
	CateringAmount int64 `json:"catering_amount"`
	TotalAmount    int64 `json:"total_amount"`
	AmountPaid     int64 `json:"amount_paid"`
}

// PeriodReport is the raw monthly recap: per-bill rows plus column totals,
// no per-student aggregation.
type PeriodReport struct {
	Year   int                `json:"year"`
	Month  int                `json:"month"`
	Bills  []*billdomain.Bill `json:"bills"`
	Totals PeriodTotals       `json:"totals"`
}
