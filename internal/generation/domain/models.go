package domain

import (
	"time"

	"gorm.io/datatypes"
)

// GenerationRecord proves that automatic generation for a period completed.
// It is created exactly once per period, after all bill chunks committed,
// and is never mutated or deleted.
type GenerationRecord struct {
	PeriodKey   string            `gorm:"primaryKey;size:16" json:"period_key"`
	Year        int               `gorm:"not null" json:"year"`
	Month       int               `gorm:"not null" json:"month"`
	GeneratedAt time.Time         `gorm:"not null" json:"generated_at"`
	Count       int               `gorm:"not null" json:"count"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// TableName sets the database table name.
func (GenerationRecord) TableName() string { return "generation_records" }

// GenerationResult summarizes one CheckAndGenerateBills invocation.
type GenerationResult struct {
	Ran       bool   `json:"ran"`
	PeriodKey string `json:"period_key,omitempty"`
	Eligible  int    `json:"eligible"`
	Inserted  int    `json:"inserted"`
	Reason    string `json:"reason,omitempty"`
}

type ManualBillRequest struct {
	StudentID      string `json:"student_id"`
	SppAmount      int64  `json:"spp_amount"`
	CateringAmount int64  `json:"catering_amount"`
	Description    string `json:"description"`
}
