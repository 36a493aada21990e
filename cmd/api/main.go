package main

import (
	"context"
	"fmt"
	"log"

	"valuegrade/internal/app"
	"valuegrade/internal/config"
	"valuegrade/internal/controllers"
	"valuegrade/internal/db"
	"valuegrade/internal/pkg/dart"
	"valuegrade/internal/routes"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(config.DartAPIKeyEnv, config.OpenAIAPIKeyEnv); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	var store *db.Store
	if cfg.DatabaseURL != "" {
		conn, err := db.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("%v", err)
		}
		store = db.NewStore(conn)
	} else {
		log.Println("DATABASE_URL not set, results will not be stored")
	}

	dartClient := dart.New(cfg.DartAPIKey)

	companies, err := app.LoadCompanies(context.Background(), cfg, dartClient, store)
	if err != nil {
		log.Fatalf("Failed to load company list: %v", err)
	}

	analyzer := app.NewAnalyzer(cfg, dartClient, companies, store)

	var queue controllers.Enqueuer
	if cfg.RedisURL != "" {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		queue = asynqClient
	} else {
		log.Println("REDIS_URL not set, async analyses are disabled")
	}

	router := routes.SetupRouter(analyzer, store, queue)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
