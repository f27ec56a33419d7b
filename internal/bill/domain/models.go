package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillStatus is the stored settlement state. Storage only knows these two
// values; "partially paid" is a derived view, see Bill.Partial.
type BillStatus string

const (
	BillStatusUnpaid BillStatus = "unpaid"
	BillStatusPaid   BillStatus = "paid"
)

// Bill is one tuition/meal-fee charge against a student. Amounts are a
// snapshot of the fee settings at creation time and never change afterwards;
// only amount_paid, status and the payment timestamps move.
type Bill struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StudentID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_bills_period_student,priority:2" json:"student_id"`

	// Roster snapshot, denormalized so reports survive roster edits.
	StudentName  string `gorm:"size:255;not null" json:"student_name"`
	StudentNIS   string `gorm:"size:32;not null" json:"student_nis"`
	StudentClass string `gorm:"size:64;index" json:"student_class"`

	// Year/Month are zero for manual bills; PeriodKey is YYYY-MM for
	// automatic periods or an opaque manual_<uuid> tag.
	Year      int    `gorm:"not null;index:ix_bills_year_month,priority:1" json:"year"`
	Month     int    `gorm:"not null;index:ix_bills_year_month,priority:2" json:"month"`
	PeriodKey string `gorm:"size:64;not null;uniqueIndex:ux_bills_period_student,priority:1" json:"period_key"`

	SppAmount      int64 `gorm:"not null" json:"spp_amount"`
	CateringAmount int64 `gorm:"not null" json:"catering_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`
	AmountPaid     int64 `gorm:"not null;default:0" json:"amount_paid"`

	Status      BillStatus `gorm:"type:text;not null;default:'unpaid';index" json:"status"`
	Description string     `gorm:"size:255" json:"description"`

	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
	LastPaymentAt *time.Time `json:"last_payment_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// TableName sets the database table name.
func (Bill) TableName() string { return "bills" }

// Remaining returns the outstanding amount on the bill.
func (b *Bill) Remaining() int64 {
	return b.TotalAmount - b.AmountPaid
}

// Partial reports whether the bill has received money without settling.
// It is derived, never stored as a third status value.
func (b *Bill) Partial() bool {
	return b.Status == BillStatusUnpaid && b.AmountPaid > 0
}
