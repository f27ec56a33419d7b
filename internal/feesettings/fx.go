package feesettings

import (
	"github.com/pesantrenhub/sppbill/internal/feesettings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feesettings.service",
	fx.Provide(service.NewService),
)
