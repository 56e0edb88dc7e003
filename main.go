package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zlnvch/daybook/ai/gemini"
	"github.com/zlnvch/daybook/api"
	"github.com/zlnvch/daybook/cache/redis"
	"github.com/zlnvch/daybook/mq/sqsmq"
	"github.com/zlnvch/daybook/store/dynamo"
	"golang.org/x/oauth2"
)

const (
	DynamoDBTable         = "Daybook"
	SQSPurgeUserDataQueue = "PurgeUserDataQueue"
	SQSLogEmbeddingQueue  = "LogEmbeddingQueue"
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	daybookStore, err := dynamo.NewDynamoDaybookStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), DynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	purgeQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSPurgeUserDataQueue)
	if err != nil {
		log.Fatalf("Failed to create purge queue: %v", err)
	}

	embedQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSLogEmbeddingQueue)
	if err != nil {
		log.Fatalf("Failed to create embedding queue: %v", err)
	}

	daybookCache, err := redis.NewRedisDaybookCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	generator := gemini.NewGeminiGenerator(os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))

	var oauthConfigs = map[string]*oauth2.Config{
		"google": {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OAUTH_REDIRECT_URL"),
		},
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	daybookApi, err := api.NewDaybookAPI(daybookStore, daybookCache, purgeQueue, embedQueue, generator, oauthConfigs, jwtSecret, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create daybook api: %v", err)
	}

	mux := http.NewServeMux()
	daybookApi.RegisterRoutes(mux)

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}
