package service

import (
	"context"

	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	"github.com/pesantrenhub/sppbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	settingsrepo repository.Repository[feesettingsdomain.FeeSettings]
}

func NewService(p ServiceParam) feesettingsdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("feesettings.service"),

		settingsrepo: repository.ProvideStore[feesettingsdomain.FeeSettings](p.DB),
	}
}

func (s *Service) Get(ctx context.Context) (*feesettingsdomain.FeeSettings, error) {
	return s.settingsrepo.FindOne(ctx, &feesettingsdomain.FeeSettings{ID: feesettingsdomain.SingletonID})
}

func (s *Service) Update(ctx context.Context, req feesettingsdomain.UpdateFeeSettingsRequest) (*feesettingsdomain.FeeSettings, error) {
	if req.SppAmount < 0 || req.CateringAmount < 0 {
		return nil, feesettingsdomain.ErrInvalidAmount
	}
	// Day 0 means "not configured yet"; 29-31 would skip short months.
	if req.BillingDay < 0 || req.BillingDay > 28 {
		return nil, feesettingsdomain.ErrInvalidBillingDay
	}

	settings := &feesettingsdomain.FeeSettings{
		ID:             feesettingsdomain.SingletonID,
		SppAmount:      req.SppAmount,
		CateringAmount: req.CateringAmount,
		BillingDay:     req.BillingDay,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"spp_amount", "catering_amount", "billing_day", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return nil, err
	}

	s.log.Info("fee settings updated",
		zap.Int64("spp_amount", settings.SppAmount),
		zap.Int64("catering_amount", settings.CateringAmount),
		zap.Int("billing_day", settings.BillingDay),
	)
	return settings, nil
}
