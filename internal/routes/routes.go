package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"garage-backend/internal/config"
	handler "garage-backend/internal/handlers"
	"garage-backend/internal/repository"
	"garage-backend/internal/services/audit"
	"garage-backend/internal/services/billing"
	"garage-backend/internal/services/catalog"
	"garage-backend/internal/services/scheduling"
)

// Options carries what the services need beyond the database handle. Redis is optional.
type Options struct {
	Config *config.Config
	Redis  *redis.Client
	Logger *zap.Logger
	Clock  func() time.Time
}

func RegisterRoutes(r *gin.Engine, db *gorm.DB, opts Options) error {
	if opts.Config == nil {
		return errors.New("routes: config is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	appointmentRepo := repository.NewAppointmentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	uow := repository.NewUnitOfWork(db, opts.Config.LockTimeout)
	recorder := audit.NewRecorder(repository.NewAuditRepository(db), log.Named("audit"))

	schedulingService, err := scheduling.NewService(scheduling.ServiceDeps{
		Appointments: appointmentRepo,
		Customers:    customerRepo,
		UnitOfWork:   uow,
		Audit:        recorder,
		Logger:       log,
		Clock:        opts.Clock,
		Config:       opts.Config.Scheduling,
	})
	if err != nil {
		return err
	}

	billingService, err := billing.NewService(billing.ServiceDeps{
		Invoices:     invoiceRepo,
		Payments:     paymentRepo,
		Appointments: appointmentRepo,
		Packages:     catalogRepo,
		Catalog:      catalog.NewLookup(catalogRepo, opts.Redis, opts.Config.CatalogCacheTTL, log),
		UnitOfWork:   uow,
		Audit:        recorder,
		Logger:       log,
		Clock:        opts.Clock,
	})
	if err != nil {
		return err
	}

	appointmentHandler := handler.NewAppointmentHandler(schedulingService)
	invoiceHandler := handler.NewInvoiceHandler(billingService)

	api := r.Group("/api")
	api.Use(handler.ActorMiddleware())

	// Health check
	api.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	appointments := api.Group("/appointments")
	{
		appointments.POST("", appointmentHandler.Create)
		appointments.GET("/conflicts", appointmentHandler.Conflicts)
		appointments.GET("/:id", appointmentHandler.Get)
		appointments.PATCH("/:id", appointmentHandler.Patch)
		appointments.POST("/:id/move", appointmentHandler.Move)
		appointments.POST("/:id/invoice", invoiceHandler.Generate)
	}

	invoices := api.Group("/invoices")
	{
		invoices.GET("", invoiceHandler.List)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.POST("/:id/payments", invoiceHandler.ApplyPayment)
		invoices.POST("/:id/void", invoiceHandler.Void)
		invoices.POST("/:id/send", invoiceHandler.Send)
		invoices.POST("/:id/packages", invoiceHandler.AddPackage)
	}
	return nil
}
