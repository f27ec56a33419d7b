package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pesantrenhub/sppbill/internal/config"
	"github.com/pesantrenhub/sppbill/internal/feesettings"
	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	"github.com/pesantrenhub/sppbill/internal/generation"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
	"github.com/pesantrenhub/sppbill/internal/ledger"
	ledgerdomain "github.com/pesantrenhub/sppbill/internal/ledger/domain"
	"github.com/pesantrenhub/sppbill/internal/report"
	reportdomain "github.com/pesantrenhub/sppbill/internal/report/domain"
	"github.com/pesantrenhub/sppbill/internal/student"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	student.Module,
	feesettings.Module,
	generation.Module,
	ledger.Module,
	report.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParam struct {
	fx.In

	Engine        *gin.Engine
	Config        config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	StudentSvc    studentdomain.Service
	SettingsSvc   feesettingsdomain.Service
	GenerationSvc generationdomain.Service
	LedgerSvc     ledgerdomain.Service
	ReportSvc     reportdomain.Service
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger

	studentSvc    studentdomain.Service
	settingsSvc   feesettingsdomain.Service
	generationSvc generationdomain.Service
	ledgerSvc     ledgerdomain.Service
	reportSvc     reportdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		engine: p.Engine,
		cfg:    p.Config,
		db:     p.DB,
		log:    p.Log.Named("http.server"),

		studentSvc:    p.StudentSvc,
		settingsSvc:   p.SettingsSvc,
		generationSvc: p.GenerationSvc,
		ledgerSvc:     p.LedgerSvc,
		reportSvc:     p.ReportSvc,
	}
}

// RegisterAPIRoutes wires the versioned API surface.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/billing/run", s.RunBilling)

	v1.POST("/bills", s.CreateManualBill)
	v1.GET("/bills", s.ListBills)
	v1.POST("/bills/:id/payments", s.ApplyPayment)

	v1.GET("/reports/arrears", s.GetArrearsReport)
	v1.GET("/reports/period", s.GetPeriodReport)

	v1.GET("/students", s.ListStudents)
	v1.GET("/students/:id", s.GetStudent)
	v1.POST("/students", s.CreateStudent)

	v1.GET("/settings/fees", s.GetFeeSettings)
	v1.PUT("/settings/fees", s.UpdateFeeSettings)
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
