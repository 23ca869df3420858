package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"caseprep/internal/analysis"
	"caseprep/internal/auth"
	"caseprep/internal/cases"
	"caseprep/internal/config"
	"caseprep/internal/gateway"
	"caseprep/internal/generation"
	"caseprep/internal/handler"
	"caseprep/internal/handler/sse"
	"caseprep/internal/interview"
	"caseprep/internal/middleware"
	"caseprep/internal/repository/postgres"
	"caseprep/internal/security"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	caseRepo := postgres.NewCaseRepository(repoConfig)
	sessionRepo := postgres.NewSessionRepository(repoConfig)
	turnRepo := postgres.NewTurnRepository(repoConfig)
	recordingRepo := postgres.NewRecordingRepository(repoConfig)
	evaluationRepo := postgres.NewEvaluationRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Setup generation backend
	provider, transcriberBackend, err := generation.Setup(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup generation provider: %v", err)
	}
	logger.Info("generation provider initialized", "provider", provider.Name())

	// Conversation engine and interview service
	engine := interview.NewEngine(provider, config.GenerationTimeout, config.MaxExhibits, logger)
	validator := security.NewValidator()
	interviewService := interview.NewService(
		sessionRepo,
		turnRepo,
		caseRepo,
		txManager,
		engine,
		validator,
		logger,
	)

	// Streaming gateway
	gw := gateway.New(interviewService, logger)

	// Case library
	caseService := cases.NewService(caseRepo, logger)
	caseGenerator := cases.NewGenerator(provider, caseService, logger)

	// Analysis subsystem
	transcriber := analysis.NewTranscriber(recordingRepo, transcriberBackend, config.TranscriptionTimeout, logger)
	analysisService := analysis.NewService(sessionRepo, recordingRepo, transcriber, logger)
	coach := analysis.NewCoach(provider, logger)
	evaluator := analysis.NewEvaluator(sessionRepo, turnRepo, caseRepo, evaluationRepo, provider, coach, logger)

	// Create handlers
	sessionHandler := handler.NewSessionHandler(interviewService, logger)
	streamHandler := handler.NewStreamHandler(gw, sse.DefaultConfig(), logger)
	caseHandler := handler.NewCaseHandler(caseService, caseGenerator, logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, evaluator, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Case routes
	mux.HandleFunc("GET /api/cases", caseHandler.ListCases)
	mux.HandleFunc("POST /api/cases", caseHandler.CreateCase)
	mux.HandleFunc("POST /api/cases/generate", caseHandler.GenerateCase) // Must come before {id} route
	mux.HandleFunc("GET /api/cases/{id}", caseHandler.GetCase)
	mux.HandleFunc("DELETE /api/cases/{id}", caseHandler.DeleteCase)

	// Session routes
	mux.HandleFunc("POST /api/sessions", sessionHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions", sessionHandler.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.GetSession)
	mux.HandleFunc("GET /api/sessions/{id}/turns", sessionHandler.ListTurns)

	// Streaming routes
	mux.HandleFunc("GET /api/sessions/{id}/stream", streamHandler.Stream)           // SSE with transcript replay
	mux.HandleFunc("POST /api/sessions/{id}/messages", streamHandler.SubmitMessage) // Serialized per session, broadcast to open streams

	// Analysis routes
	mux.HandleFunc("POST /api/sessions/{id}/recordings", analysisHandler.CreateRecording)
	mux.HandleFunc("GET /api/recordings/{id}", analysisHandler.GetRecording)
	mux.HandleFunc("POST /api/sessions/{id}/evaluation", analysisHandler.Evaluate)
	mux.HandleFunc("GET /api/sessions/{id}/evaluation", analysisHandler.GetEvaluation)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
