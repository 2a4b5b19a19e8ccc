package main

import (
	"context"
	"log"
	"os"
	"strings"

	"maritaca/config"
	"maritaca/controllers"
	dbpkg "maritaca/db"
	"maritaca/engine"
	"maritaca/router"
	"maritaca/store"
	"maritaca/tools"
	"maritaca/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env é opcional; em produção as envs vêm do ambiente mesmo.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded .env")
	}

	cfg := config.Get(getenv("CONFIG_PATH", "config.json"))
	dbpkg.SetConfigurations(cfg)

	database, err := dbpkg.Connect()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer database.Close()

	scheduledStore := store.NewScheduledMessages(database)
	transport := tools.WhatsAppTransport{DB: database}

	dispatcher := &workers.ResponderDispatcher{
		DB:        database,
		Respond:   tools.GenerateAIReply,
		Transport: transport,
	}
	aggregator := engine.NewAggregator(dispatcher)
	canceller := engine.NewCanceller(scheduledStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := workers.NewScheduler(
		scheduledStore,
		transport,
		cfg.Engine.PollerInterval(),
		cfg.Engine.PollerBatchSize,
	)
	scheduler.Start(ctx)

	webhook := &controllers.WebhookController{
		Aggregator: aggregator,
		Canceller:  canceller,
		Debounce:   cfg.Engine.Debounce(),
	}

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(database))
	router.Initialize(r, cfg, webhook)

	log.Printf("Maritaca listening on :%s", cfg.ApiPort)
	if err := r.Run(":" + cfg.ApiPort); err != nil {
		log.Fatal(err)
	}
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
