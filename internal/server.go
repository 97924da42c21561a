package internal

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/internal/config"
	"asset-tracker-api/internal/handlers"
	"asset-tracker-api/internal/warranty"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Server struct {
	DB         *sql.DB
	Pool       *pgxpool.Pool
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Warranty   *warranty.Client
	Statuses   *warranty.Cache
}

func NewServer(dsn string, cfg *config.Config) *Server {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Database ping failed:", err)
	}

	// Also create a pgxpool for the exporter
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal("Failed to create pgxpool:", err)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)

	// Validate JWT configuration
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatal("JWT configuration validation failed:", err)
	}

	// Initialize metrics
	metrics := NewMetrics()

	s := &Server{
		DB:         db,
		Pool:       pool,
		Router:     chi.NewRouter(),
		JWTManager: jwtManager,
		Metrics:    metrics,
		Warranty:   warranty.NewClient(cfg.WarrantyBaseURL, cfg.WarrantyTimeout),
		Statuses:   warranty.NewCache(),
	}

	// Metrics middleware must be attached before any route is registered
	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Router.Use(s.Metrics.Middleware())
	}

	// Mount public routes FIRST (no auth middleware)
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("db: ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	// Public auth routes (no JWT required)
	s.Router.Post("/auth/login", s.loginUser)

	// Mount the metrics endpoint if enabled
	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Create a protected route group with middleware
	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		r.Use(s.withDBRole)
		r.Use(s.withRLSSession)

		s.mountProtectedRoutes(r)
	})

	return s
}

// Close properly shuts down the server and cleans up resources
func (s *Server) Close(ctx context.Context) error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// withRLSSession middleware pins a DB connection with the caller's user GUC
func (s *Server) withRLSSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		conn, ctx2, err := withDBConn(r.Context(), s.DB, userID)
		if err != nil {
			http.Error(w, "db acquire: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if conn != nil {
			defer conn.Close()
		}
		next.ServeHTTP(w, r.WithContext(ctx2))
	})
}

// mountProtectedRoutes mounts all protected routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Assets - users see their own, admins see everything; ownership is
	// enforced inside the handlers
	r.Get("/assets", s.listAssets)
	r.Get("/assets/{id}", s.getAsset)
	r.Post("/assets", s.createAsset)
	r.Put("/assets/{id}", s.updateAsset)
	r.Delete("/assets/{id}", s.deleteAsset)

	// Warranty integration
	r.Post("/assets/{id}/warranty", s.registerWarranty)
	r.Get("/assets/{id}/warranty", s.getWarrantyStatus)
	r.Post("/warranty/status", s.batchWarrantyStatus)

	// Categories - admin-only writes
	r.Get("/categories", s.listCategories)
	r.Get("/categories/{id}", s.getCategory)
	r.Post("/categories", auth.MustRole("admin")(http.HandlerFunc(s.createCategory)).(http.HandlerFunc))
	r.Put("/categories/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateCategory)).(http.HandlerFunc))
	r.Delete("/categories/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteCategory)).(http.HandlerFunc))

	// Departments - admin-only writes
	r.Get("/departments", s.listDepartments)
	r.Get("/departments/{id}", s.getDepartment)
	r.Post("/departments", auth.MustRole("admin")(http.HandlerFunc(s.createDepartment)).(http.HandlerFunc))
	r.Put("/departments/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateDepartment)).(http.HandlerFunc))
	r.Delete("/departments/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteDepartment)).(http.HandlerFunc))

	// User management - admin only
	r.Post("/users", auth.MustRole("admin")(http.HandlerFunc(s.createUser)).(http.HandlerFunc))
	r.Get("/users", auth.MustRole("admin")(http.HandlerFunc(s.listUsers)).(http.HandlerFunc))
	r.Get("/users/{id}", auth.MustRole("admin")(http.HandlerFunc(s.getUser)).(http.HandlerFunc))
	r.Put("/users/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateUser)).(http.HandlerFunc))
	r.Delete("/users/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteUser)).(http.HandlerFunc))

	// Dashboards
	r.Get("/dashboard/stats", s.getDashboardStats)
	r.Get("/admin/stats", auth.MustRole("admin")(http.HandlerFunc(s.getAdminStats)).(http.HandlerFunc))

	// Asset export (CSV/XLSX)
	exportsHandler := handlers.NewExportsHandler(s.Pool)
	r.Get("/exports/assets", exportsHandler.ExportAssets)

	// Self-service routes
	r.Get("/auth/profile", s.getUserProfile)
	r.Put("/auth/profile", s.updateUserProfile)
	r.Put("/auth/change-password", s.changePassword)
}
