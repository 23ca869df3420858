package main

import (
	"context"
	"embed"
	"flag"
	"log"
	"log/slog"
	"os"

	"caseprep/internal/cases"
	"caseprep/internal/config"
	"caseprep/internal/domain/models"
	"caseprep/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed cases/*.yaml
var caseBank embed.FS

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the case bank")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding case bank (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Create case service over the real repository so seed data goes
	// through the same validation as API-authored cases
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	caseService := cases.NewService(postgres.NewCaseRepository(repoConfig), logger)

	// Seed the embedded case bank
	seedCases, err := loadCaseBank()
	if err != nil {
		log.Fatalf("Failed to load case bank: %v", err)
	}

	for i, req := range seedCases {
		c, err := caseService.Create(ctx, req)
		if err != nil {
			log.Printf("❌ Failed to create case '%s': %v", req.Title, err)
			continue
		}
		log.Printf("✅ Created case %d/%d: %s (ID: %s, Exhibits: %d)",
			i+1, len(seedCases), c.Title, c.ID, len(c.Exhibits))
	}

	log.Println("🎉 Seeding complete!")
}

// seedCase mirrors the authoring request with YAML field names
type seedCase struct {
	Title    string                 `yaml:"title"`
	CaseType models.CaseType        `yaml:"case_type"`
	Prompt   string                 `yaml:"prompt"`
	Context  map[string]interface{} `yaml:"context"`
	Exhibits []models.Exhibit       `yaml:"exhibits"`
}

// loadCaseBank parses every embedded YAML case document
func loadCaseBank() ([]*cases.CreateCaseRequest, error) {
	entries, err := caseBank.ReadDir("cases")
	if err != nil {
		return nil, err
	}

	var requests []*cases.CreateCaseRequest
	for _, entry := range entries {
		data, err := caseBank.ReadFile("cases/" + entry.Name())
		if err != nil {
			return nil, err
		}

		var sc seedCase
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, err
		}

		requests = append(requests, &cases.CreateCaseRequest{
			Title:    sc.Title,
			CaseType: sc.CaseType,
			Prompt:   sc.Prompt,
			Context:  sc.Context,
			Exhibits: sc.Exhibits,
		})
	}

	return requests, nil
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create cases table
	createCases := `
		CREATE TABLE IF NOT EXISTS ` + tables.Cases + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			title TEXT NOT NULL,
			case_type TEXT NOT NULL,
			prompt TEXT NOT NULL,
			context JSONB NOT NULL DEFAULT '{}',
			exhibits JSONB NOT NULL DEFAULT '[]',
			created_by UUID,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createCases); err != nil {
		return err
	}

	// Create sessions table
	createSessions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Sessions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL,
			case_id UUID NOT NULL REFERENCES ` + tables.Cases + `(id),
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			phase TEXT NOT NULL,
			exhibits_released INTEGER NOT NULL DEFAULT 0,
			turn_count INTEGER NOT NULL DEFAULT 0,
			phase_turn_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createSessions); err != nil {
		return err
	}

	// Create turns table
	createTurns := `
		CREATE TABLE IF NOT EXISTS ` + tables.Turns + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID NOT NULL REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createTurns); err != nil {
		return err
	}

	// Create recordings table
	createRecordings := `
		CREATE TABLE IF NOT EXISTS ` + tables.Recordings + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID NOT NULL REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			kind TEXT NOT NULL,
			transcription TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createRecordings); err != nil {
		return err
	}

	// Create evaluations table (one per session)
	createEvaluations := `
		CREATE TABLE IF NOT EXISTS ` + tables.Evaluations + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID NOT NULL UNIQUE REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			structure_score INTEGER NOT NULL DEFAULT 0,
			hypothesis_score INTEGER NOT NULL DEFAULT 0,
			math_score INTEGER NOT NULL DEFAULT 0,
			insight_score INTEGER NOT NULL DEFAULT 0,
			overall_score INTEGER NOT NULL DEFAULT 0,
			strengths JSONB NOT NULL DEFAULT '[]',
			improvements JSONB NOT NULL DEFAULT '[]',
			analysis TEXT NOT NULL DEFAULT '',
			coaching TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createEvaluations); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sessions_user ON ` + tables.Sessions + `(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `turns_session ON ` + tables.Turns + `(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `recordings_session ON ` + tables.Recordings + `(session_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Evaluations,
		tables.Recordings,
		tables.Turns,
		tables.Sessions,
		tables.Cases,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
	}

	return nil
}
