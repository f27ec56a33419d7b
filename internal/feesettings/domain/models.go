package domain

import "time"

// FeeSettings is the single current fee snapshot. One row, id = 1; no
// history is kept, bills copy the amounts at generation time instead.
type FeeSettings struct {
	ID             int64     `gorm:"primaryKey" json:"-"`
	SppAmount      int64     `gorm:"not null;default:0" json:"spp_amount"`
	CateringAmount int64     `gorm:"not null;default:0" json:"catering_amount"`
	BillingDay     int       `gorm:"not null;default:0" json:"billing_day"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (FeeSettings) TableName() string { return "fee_settings" }

// SingletonID is the fixed primary key of the settings row.
const SingletonID int64 = 1

type UpdateFeeSettingsRequest struct {
	SppAmount      int64 `json:"spp_amount"`
	CateringAmount int64 `json:"catering_amount"`
	BillingDay     int   `json:"billing_day"`
}
