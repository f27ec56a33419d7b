package seed

import (
	"context"
	"errors"

	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureFeeSettings makes sure the singleton settings row exists so the
// settings API can always read-modify-write it. billing_day stays 0
// (generation disabled) until an operator configures it.
func EnsureFeeSettings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&feesettingsdomain.FeeSettings{
		ID: feesettingsdomain.SingletonID,
	}).Error
}
