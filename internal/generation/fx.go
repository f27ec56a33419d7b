package generation

import (
	"github.com/pesantrenhub/sppbill/internal/generation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generation.service",
	fx.Provide(service.NewService),
)
