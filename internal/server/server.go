package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zevohq/zevo/config"
	"github.com/zevohq/zevo/internal/handlers"
	"github.com/zevohq/zevo/internal/middleware"
	"github.com/zevohq/zevo/internal/models"
	"github.com/zevohq/zevo/internal/queue"
	"github.com/zevohq/zevo/internal/repository"
	"github.com/zevohq/zevo/internal/services"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	r.Use(middleware.DatabaseMiddleware(db))

	tickets := repository.NewTicketRepository(db)
	bookingHandler := &handlers.BookingHandler{
		Service: services.NewBookingService(tickets, cfg.PerUserTicketLimit),
		Notify:  queue.PublishBookingConfirmed,
	}
	ticketHandler := &handlers.TicketHandler{
		Service: services.NewValidationService(tickets),
	}

	// Redis may be absent; the limiter degrades to a no-op.
	rateLimit := middleware.RateLimitMiddleware(config.NewRedisClient(), cfg.RateLimitPerMinute, cfg.RateLimitWindow)

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", handlers.GetProfile)
		protected.GET("/bookings", bookingHandler.ListBookings)

		eventProtected := protected.Group("/events")
		eventProtected.Use(middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin))
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id", handlers.UpdateEvent)
			eventProtected.DELETE("/:id", handlers.DeleteEvent)
		}

		ticketProtected := protected.Group("/tickets")
		ticketProtected.Use(rateLimit)
		{
			ticketProtected.POST("/book", middleware.RequireRoles(models.RoleUser), bookingHandler.Book)
			ticketProtected.POST("/validate", middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin), ticketHandler.ValidateTicket)
			ticketProtected.GET("/:id/qr", handlers.GenerateTicketQR)
		}
	}
}
