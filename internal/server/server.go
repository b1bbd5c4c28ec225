// Package server exposes a user's ledger as a JSON API. Requests are
// authenticated with "Authorization: Bearer <email>"; there is no password.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/importer"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/service"
	"github.com/Veraticus/zenith/internal/workspace"
)

// Config holds server dependencies. Assistant may be nil, in which case
// the /api/ai routes answer 503.
type Config struct {
	Store          service.Storage
	Manager        *workspace.Manager
	Assistant      *assistant.Assistant
	Logger         *slog.Logger
	TLS            *tls.Config
	AllowedOrigins []string
	MinPayment     metrics.MinPaymentPolicy
	Port           int
}

// Server is the HTTP API.
type Server struct {
	store      service.Storage
	manager    *workspace.Manager
	assistant  *assistant.Assistant
	importer   *importer.Importer
	router     *chi.Mux
	server     *http.Server
	logger     *slog.Logger
	chats      map[string]*assistant.Chat
	minPayment metrics.MinPaymentPolicy
	chatMu     sync.Mutex
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:      cfg.Store,
		manager:    cfg.Manager,
		assistant:  cfg.Assistant,
		router:     chi.NewRouter(),
		logger:     logger.With("component", "server"),
		chats:      make(map[string]*assistant.Chat),
		minPayment: cfg.MinPayment,
	}
	if s.minPayment.Floor.IsZero() && s.minPayment.Rate.IsZero() {
		s.minPayment = metrics.DefaultMinPaymentPolicy()
	}
	var opts []importer.Option
	if cfg.Assistant != nil {
		opts = append(opts, importer.WithCategorizer(cfg.Assistant))
	}
	s.importer = importer.New(cfg.Store, opts...)

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		TLSConfig:         cfg.TLS,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/me", s.handleMe)
			r.Post("/me/upgrade", s.handleUpgrade)
			r.Post("/reset", s.handleReset)
			r.Get("/state", s.handleState)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleListAccounts)
				r.Post("/", s.handleAddAccount)
				r.Put("/{id}", s.handleEditAccount)
				r.Delete("/{id}", s.handleDeleteAccount)
			})
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleAddTransaction)
				r.Post("/bulk", s.handleAddTransactions)
				r.Put("/{id}", s.handleEditTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.handleListCategories)
				r.Post("/", s.handleAddCategory)
				r.Put("/{id}", s.handleEditCategory)
				r.Delete("/{id}", s.handleDeleteCategory)
			})
			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", s.handleListBudgets)
				r.Put("/{categoryID}", s.handleSetBudget)
				r.Delete("/{id}", s.handleDeleteBudget)
			})
			r.Route("/recurring", func(r chi.Router) {
				r.Get("/", s.handleListRecurring)
				r.Post("/", s.handleAddRecurring)
				r.Put("/{id}", s.handleEditRecurring)
				r.Delete("/{id}", s.handleDeleteRecurring)
				r.Post("/catch-up", s.handleCatchUp)
			})
			r.Route("/goals", func(r chi.Router) {
				r.Get("/", s.handleListGoals)
				r.Post("/", s.handleAddGoal)
				r.Put("/{id}", s.handleEditGoal)
				r.Delete("/{id}", s.handleDeleteGoal)
				r.Post("/{id}/contribute", s.handleContribute)
			})
			r.Route("/bills", func(r chi.Router) {
				r.Get("/", s.handleListBills)
				r.Post("/", s.handleAddBill)
				r.Put("/{id}", s.handleEditBill)
				r.Delete("/{id}", s.handleDeleteBill)
				r.Post("/{id}/pay", s.handlePayBill)
			})
			r.Route("/loans", func(r chi.Router) {
				r.Get("/", s.handleListLoans)
				r.Post("/", s.handleAddLoan)
				r.Put("/{id}", s.handleEditLoan)
				r.Delete("/{id}", s.handleDeleteLoan)
				r.Post("/{id}/pay", s.handlePayLoan)
			})
			r.Route("/investments", func(r chi.Router) {
				r.Get("/", s.handlePortfolio)
				r.Post("/", s.handleAddHolding)
				r.Put("/{id}", s.handleEditHolding)
				r.Delete("/{id}", s.handleDeleteHolding)
			})

			r.Get("/summary", s.handleSummary)
			r.Get("/monthly", s.handleMonthly)
			r.Get("/health", s.handleHealth)
			r.Get("/debt", s.handleDebt)
			r.Get("/forecast", s.handleProjection)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleNotifications)
				r.Post("/read", s.handleMarkAllRead)
				r.Post("/{id}/read", s.handleMarkRead)
			})

			r.Group(func(r chi.Router) {
				r.Use(requirePremium)
				r.Get("/export/{collection}", s.handleExportCSV)
			})
			r.Post("/import/ofx", s.handleImportOFX)

			r.Route("/ai", func(r chi.Router) {
				r.Use(s.requireAssistant)
				r.Post("/suggest-category", s.handleSuggestCategory)
				r.Get("/budgets", s.handleSuggestBudgets)
				r.Get("/briefing", s.handleBriefing)
				r.Get("/forecast", s.handleAIForecast)
				r.Post("/receipt", s.handleReceipt)
				r.Get("/health", s.handleHealthAnalysis)
				r.Get("/report", s.handleReport)
				r.Get("/dashboard", s.handleDashboard)
				r.Post("/chat", s.handleChat)
				r.Delete("/chat", s.handleResetChat)
				r.Post("/tactics/footage", s.handleFootage)
				r.Post("/tactics/drills", s.handleDrills)
				r.Post("/tactics/search", s.handleSearchTactics)
				r.Post("/tactics/feedback", s.handleFeedback)
			})
		})
	})
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if s.server.TLSConfig != nil {
			s.logger.Info("starting HTTPS server", "addr", s.server.Addr)
			errCh <- s.server.ListenAndServeTLS("", "")
			return
		}
		s.logger.Info("starting HTTP server", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
