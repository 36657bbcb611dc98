package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/fkhayef/groupbook/internal/booking"
	"github.com/fkhayef/groupbook/internal/config"
	"github.com/fkhayef/groupbook/internal/database"
	"github.com/fkhayef/groupbook/internal/hours"
	"github.com/fkhayef/groupbook/internal/notification"
	"github.com/fkhayef/groupbook/internal/user"
	"github.com/fkhayef/groupbook/internal/wallet"
	mw "github.com/fkhayef/groupbook/pkg/middleware"
)

// @title           Groupbook API
// @version         1.0
// @description     Group booking orchestration: invitations, payments and cancellations.
// @BasePath        /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database")

	txRunner := database.NewTxRunner(db)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Wallet feature
	walletRepo := wallet.NewRepository()
	walletService := wallet.NewService(db, walletRepo)
	walletHandler := wallet.NewHandler(walletService)

	// Prepaid hours feature
	hoursRepo := hours.NewRepository()
	hoursService := hours.NewService(db, hoursRepo)
	hoursHandler := hours.NewHandler(hoursService)

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	// Booking feature (orchestrates wallet, hours, users and notifications)
	bookingRepo := booking.NewRepository()
	bookingService := booking.NewService(
		txRunner,
		bookingRepo,
		walletRepo,
		hoursRepo,
		userService,
		notificationService,
		logger,
	)
	bookingHandler := booking.NewHandler(bookingService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Routes that act on behalf of an identified caller
		r.Group(func(r chi.Router) {
			r.Use(mw.CallerIdentity)

			r.Mount("/users", userHandler.Routes())
			r.Mount("/wallet", walletHandler.Routes())
			r.Mount("/packages", hoursHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
			r.Mount("/bookings", bookingHandler.Routes())
			r.Mount("/participants", bookingHandler.ParticipantRoutes())
		})

		// Token routes resolve their caller from the invitation token, so an
		// invitee without an account can still view or decline. Redeeming
		// guards its own accept route.
		r.Mount("/invitations", bookingHandler.InvitationRoutes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("Server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
