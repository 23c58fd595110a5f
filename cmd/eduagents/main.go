// Command eduagents runs the assessment-generation pipeline's HTTP server.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/andymattick/eduagents/pkg/api"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/database"
	"github.com/andymattick/eduagents/pkg/forbidden"
	"github.com/andymattick/eduagents/pkg/llmtransport"
	"github.com/andymattick/eduagents/pkg/orchestrator"
	"github.com/andymattick/eduagents/pkg/promptengineer"
	"github.com/andymattick/eduagents/pkg/services"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", ""), "Path to YAML configuration override file")
	llmAddr := flag.String("llm-addr", getEnv("LLM_SERVICE_ADDR", "localhost:9090"), "Address of the LLM transport service")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
		log.Printf("Continuing with existing environment variables...")
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	log.Printf("Starting eduagents")
	log.Printf("HTTP Port: %s", httpPort)

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	transport, err := llmtransport.Dial(*llmAddr, slog.Default())
	if err != nil {
		log.Fatalf("Failed to connect to LLM service: %v", err)
	}
	defer transport.Close()
	log.Printf("✓ Connected to LLM service at %s", *llmAddr)

	scanner := forbidden.NewScanner(cfg.ForbiddenPhraseGroups)
	orch := orchestrator.New(transport, cfg, scanner)
	promptEngine := promptengineer.New(cfg)

	var resolver *services.EntryResolver
	var dbClient *database.Client
	if dbCfg, dbErr := database.LoadConfigFromEnv(); dbErr == nil {
		dbClient, err = database.NewClient(ctx, dbCfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbClient.Close()
		log.Println("✓ Connected to PostgreSQL database")

		resolver = services.NewEntryResolver(
			services.NewPostgresDefaultsStore(dbClient.Pool),
			services.NewPostgresTierStore(dbClient.Pool),
		)
	} else {
		log.Printf("Warning: database not configured (%v); teacher-defaults merge and playtest tier gate are disabled", dbErr)
	}

	var pool *pgxpool.Pool
	if dbClient != nil {
		pool = dbClient.Pool
	}

	server := api.NewServer(orch, promptEngine, resolver, pool)

	log.Printf("HTTP server listening on :%s", httpPort)
	log.Printf("Health check available at: http://localhost:%s/health", httpPort)
	if err := server.Start(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
