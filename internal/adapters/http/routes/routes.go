package routes

import (
	"hospital-directory/internal/adapters/http/handlers"
	"hospital-directory/internal/adapters/http/middleware"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/config"
	"hospital-directory/internal/core/services"
	"hospital-directory/internal/pkg/jwt"
	"hospital-directory/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Repositories are the stores the routes are served from
type Repositories struct {
	Users     repositories.UserRepository
	Hospitals repositories.HospitalRepository
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	Register(app, Repositories{
		Users:     repositories.NewUserRepository(db),
		Hospitals: repositories.NewHospitalRepository(db),
	}, cfg, func() error { return config.PingDatabase(db) })
}

// Register wires services and handlers over repos and mounts every route
func Register(app *fiber.App, repos Repositories, cfg *config.Config, pingDB func() error) {
	// Initialize services
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.TokenValidity())
	hasher := password.NewHasher(cfg.BcryptCost)

	authService := services.NewAuthService(repos.Users, tokens, hasher)
	otpService := services.NewOTPService(repos.Users, newOTPDispatcher(cfg), hasher, cfg.OTPValidity())
	hospitalService := services.NewHospitalService(repos.Hospitals, repos.Users)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, pingDB)
	authHandler := handlers.NewAuthHandler(authService, otpService, cfg)
	hospitalHandler := handlers.NewHospitalHandler(hospitalService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	auth := middleware.AuthMiddleware(tokens)
	rl := newLimits(cfg)

	// Mounted at the root and under /api, where the web client calls them
	for _, prefix := range []string{"", "/api"} {
		// User routes
		userRoutes := app.Group(prefix+"/users", middleware.NoStore())
		setupUserRoutes(userRoutes, authHandler, rl)

		// Hospital routes
		hospitalRoutes := app.Group(prefix + "/hospitals")
		setupHospitalRoutes(hospitalRoutes, hospitalHandler, auth)
	}
}

// limits holds the rate limiters shared by both mounts
type limits struct {
	auth fiber.Handler
	otp  fiber.Handler
}

func newLimits(cfg *config.Config) limits {
	if !cfg.RateLimit {
		return limits{auth: passThrough, otp: passThrough}
	}
	return limits{auth: middleware.AuthRateLimiter(), otp: middleware.StrictRateLimiter()}
}

// setupUserRoutes configures account and session routes (public)
func setupUserRoutes(router fiber.Router, h *handlers.AuthHandler, l limits) {
	router.Post("/signup", l.auth, h.Signup)
	router.Post("/login", l.auth, h.Login)
	router.Post("/logout", h.Logout)
	router.Get("/me", h.Me)

	// Password reset
	router.Post("/forgotPassword", l.otp, h.ForgotPassword)
	router.Post("/verifyOtp", l.otp, h.VerifyOtp)
	router.Post("/resetPassword", l.otp, h.ResetPassword)
}

// setupHospitalRoutes configures directory routes. Mutations need a session;
// the service checks the live user's role and ownership.
func setupHospitalRoutes(router fiber.Router, h *handlers.HospitalHandler, auth fiber.Handler) {
	// Public
	router.Get("/all", h.ListHospitals)
	router.Get("/:id", h.GetHospital)

	// Doctor only
	router.Post("/registerHospital", auth, h.RegisterHospital)
	router.Put("/:id", auth, h.UpdateHospital)
	router.Delete("/:id", auth, h.DeleteHospital)
}

// newOTPDispatcher posts codes to the configured webhook, or logs them
func newOTPDispatcher(cfg *config.Config) services.OTPDispatcher {
	if cfg.OTP.WebhookURL != "" {
		return services.NewWebhookDispatcher(cfg.OTP.WebhookURL, nil)
	}
	return services.NewLogDispatcher(cfg.IsDev())
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}
