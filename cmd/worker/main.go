package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"valuegrade/internal/app"
	"valuegrade/internal/config"
	"valuegrade/internal/db"
	"valuegrade/internal/pkg/dart"
	"valuegrade/internal/tasks"

	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(config.DartAPIKeyEnv, config.OpenAIAPIKeyEnv, config.DatabaseURLEnv, config.RedisURLEnv); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	conn, err := db.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("Worker connected to database.")

	store := db.NewStore(conn)
	dartClient := dart.New(cfg.DartAPIKey)

	companies, err := app.LoadCompanies(context.Background(), cfg, dartClient, store)
	if err != nil {
		log.Fatalf("Failed to load company list: %v", err)
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	fetchCompaniesTask := tasks.NewFetchCompaniesTask()

	// corpCode.xml is regenerated daily
	entryID, err := scheduler.Register("0 6 * * *", fetchCompaniesTask, asynq.Queue("default"))
	if err != nil {
		log.Fatalf("Failed to register periodic task: %v", err)
	}
	log.Printf("Registered periodic task: %s (EntryID: %s)", fetchCompaniesTask.Type(), entryID)

	count, err := store.CompanyCount(context.Background())
	if err != nil {
		log.Fatalf("Failed to count companies: %v", err)
	}
	if count == 0 {
		if _, err := asynqClient.Enqueue(fetchCompaniesTask); err != nil {
			log.Fatalf("Failed to enqueue fetch companies task: %v", err)
		}
		log.Println("Companies table is empty, enqueued initial fetch")
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
			},
			// bounded by the OpenAI rate limit
			Concurrency: 4,
		},
	)

	taskProcessor := tasks.NewTaskProcessor(conn, cfg, app.NewAnalyzer(cfg, dartClient, companies, store))

	mux := asynq.NewServeMux()
	mux.HandleFunc(
		tasks.TypeTaskFetchCompanies,
		taskProcessor.HandleFetchCompaniesTask,
	)

	mux.HandleFunc(
		tasks.TypeTaskAnalyzeCompany,
		taskProcessor.HandleAnalyzeCompanyTask,
	)

	go func() {
		log.Println("Starting Asynq scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("Could not run Asynq scheduler: %v", err)
		}
	}()

	go func() {
		log.Println("Starting Asynq worker server...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("Could not run Asynq worker server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("Shutdown signal received, shutting down gracefully...")

	scheduler.Shutdown()
	log.Println("Asynq scheduler shut down.")

	srv.Shutdown()
	log.Println("Asynq worker server shut down.")

	log.Println("Worker process shut down complete.")
}
