package server

import (
	"context"
	"net/http"
	"time"

	"github.com/elclub/paquetes/internal/config"
	customerdomain "github.com/elclub/paquetes/internal/customer/domain"
	eventdomain "github.com/elclub/paquetes/internal/event/domain"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	parceldomain "github.com/elclub/paquetes/internal/parcel/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	parcelSvc    parceldomain.Service
	eventSvc     eventdomain.Service
	notifSvc     notifdomain.Service
	customerRepo customerdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	ParcelSvc    parceldomain.Service
	EventSvc     eventdomain.Service
	NotifSvc     notifdomain.Service
	CustomerRepo customerdomain.Repository
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		parcelSvc:    p.ParcelSvc,
		eventSvc:     p.EventSvc,
		notifSvc:     p.NotifSvc,
		customerRepo: p.CustomerRepo,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	// -------- Packages --------
	api.POST("/packages/announce", s.AnnouncePackage)
	api.GET("/packages/:id", s.GetPackageByID)
	api.POST("/packages/:id/receive", s.ReceivePackage)
	api.POST("/packages/:id/deliver", s.DeliverPackage)
	api.POST("/packages/:id/cancel", s.CancelPackage)
	api.GET("/packages/:id/history", s.GetPackageHistory)

	// -------- Customers --------
	api.GET("/customers/:phone", s.GetCustomerByPhone)

	// -------- Notifications --------
	api.GET("/notifications/stats", s.GetNotificationStats)
	api.POST("/notifications/bulk", s.BulkSendNotification)
	api.POST("/notifications/test", s.TestSendNotification)
	api.POST("/notifications/delivery-callback", s.NotificationDeliveryCallback)

	// -------- Public tracking --------
	public := s.engine.Group("/public")
	public.GET("/tracking/:code", s.TrackPackage)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
