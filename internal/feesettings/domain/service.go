package domain

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured     = errors.New("fee_settings_not_configured")
	ErrInvalidBillingDay = errors.New("invalid_billing_day")
	ErrInvalidAmount     = errors.New("invalid_fee_amount")
)

type Service interface {
	// Get returns the current snapshot, or nil when settings were never saved.
	Get(ctx context.Context) (*FeeSettings, error)
	Update(ctx context.Context, req UpdateFeeSettingsRequest) (*FeeSettings, error)
}
