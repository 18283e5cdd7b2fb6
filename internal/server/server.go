// Package server exposes a thin HTTP surface for triggering engine
// operations. It owns no domain logic; callers are trusted
// collaborators (cron jobs, admin actions).
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/apexmed/commission/internal/assignment"
	assignmentdomain "github.com/apexmed/commission/internal/assignment/domain"
	"github.com/apexmed/commission/internal/commission"
	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	"github.com/apexmed/commission/internal/config"
	"github.com/apexmed/commission/internal/payout"
	payoutdomain "github.com/apexmed/commission/internal/payout/domain"
	paymentproviders "github.com/apexmed/commission/internal/providers/payment"
	"github.com/apexmed/commission/internal/rule"
	ruledomain "github.com/apexmed/commission/internal/rule/domain"
	"github.com/apexmed/commission/internal/runlock"
	"github.com/apexmed/commission/internal/salesrep"
	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/apexmed/commission/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	engine *gin.Engine
	log    *zap.Logger

	salesRepSvc   salesrepdomain.Service
	assignmentSvc assignmentdomain.Service
	ruleSvc       ruledomain.Service
	commissionSvc commissiondomain.Service
	payoutSvc     payoutdomain.Service
}

type ServerParams struct {
	fx.In

	Engine        *gin.Engine
	Log           *zap.Logger
	SalesRepSvc   salesrepdomain.Service
	AssignmentSvc assignmentdomain.Service
	RuleSvc       ruledomain.Service
	CommissionSvc commissiondomain.Service
	PayoutSvc     payoutdomain.Service
	Registry      *prometheus.Registry
}

func NewEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(orgFromHeader())
	return r
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Engine,
		log:           p.Log.Named("server"),
		salesRepSvc:   p.SalesRepSvc,
		assignmentSvc: p.AssignmentSvc,
		ruleSvc:       p.RuleSvc,
		commissionSvc: p.CommissionSvc,
		payoutSvc:     p.PayoutSvc,
	}
	s.registerRoutes(p.Registry)
	return s
}

func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/v1")

	v1.POST("/orders/:id/commissions", s.ProcessOrder)
	v1.POST("/orders/:id/commissions/recalculate", s.RecalculateOrder)
	v1.POST("/orders/:id/commissions/approve", s.ApproveOrderCommissions)
	v1.GET("/orders/:id/commissions", s.ListOrderCommissions)

	v1.POST("/rules", s.CreateRule)
	v1.POST("/rules/:id/supersede", s.SupersedeRule)

	v1.PUT("/reps/:id/parent", s.SetRepParent)
	v1.POST("/reps/:id/deactivate", s.DeactivateRep)

	v1.POST("/assignments/providers", s.AssignProviderRep)
	v1.POST("/assignments/facilities", s.AssignFacilityRep)

	v1.POST("/payouts/generate", s.GeneratePayouts)
	v1.GET("/payouts/summary", s.GetPayoutSummary)
	v1.GET("/payouts/:id", s.GetPayout)
	v1.POST("/payouts/:id/approve", s.ApprovePayout)
	v1.POST("/payouts/:id/cancel", s.CancelPayout)
	v1.POST("/payouts/process-payments", s.ProcessPayments)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}

// orgFromHeader scopes the request to the tenant named by X-Org-ID.
func orgFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Org-ID"))
		if raw != "" {
			if orgID, err := snowflake.ParseString(raw); err == nil {
				ctx := tenantctx.WithOrgID(c.Request.Context(), orgID)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("http.server",
	salesrep.Module,
	assignment.Module,
	rule.Module,
	commission.Module,
	payout.Module,
	paymentproviders.Module,
	runlock.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)
