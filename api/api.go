package api

import (
	"context"
	"log"
	"net/http"

	"github.com/zlnvch/daybook/ai"
	"github.com/zlnvch/daybook/api/rest"
	"github.com/zlnvch/daybook/cache"
	"github.com/zlnvch/daybook/mq"
	"github.com/zlnvch/daybook/ratelimit"
	"github.com/zlnvch/daybook/service"
	"github.com/zlnvch/daybook/store"
	"github.com/zlnvch/daybook/worker"
	"golang.org/x/oauth2"
)

type DaybookAPI struct {
	restHandler *rest.Handler
	shutdownCtx context.Context
}

func NewDaybookAPI(
	daybookStore store.DaybookStore,
	daybookCache cache.DaybookCache,
	purgeQueue mq.MessageQueue,
	embedQueue mq.MessageQueue,
	generator ai.Generator,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
	shutdownCtx context.Context,
) (*DaybookAPI, error) {
	tokenBatcher := worker.NewTokenBatcher(daybookStore, 60000)
	go tokenBatcher.Run(shutdownCtx)

	mqConsumer := worker.NewMQConsumer(purgeQueue, daybookStore)
	go mqConsumer.Run(shutdownCtx)

	limiter := ratelimit.NewLimiter(daybookCache, nil)

	svc, err := service.NewService(
		daybookStore,
		daybookCache,
		purgeQueue,
		embedQueue,
		generator,
		limiter,
		tokenBatcher,
		oauthConfigs,
		jwtSecret,
	)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &DaybookAPI{}, err
	}

	return &DaybookAPI{
		restHandler: rest.NewHandler(svc),
		shutdownCtx: shutdownCtx,
	}, nil
}

func (daybookAPI *DaybookAPI) RegisterRoutes(mux *http.ServeMux) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	h := daybookAPI.restHandler

	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("GET /user", h.HandleGetUser)
	mux.HandleFunc("DELETE /user", h.HandleDeleteUser)
	mux.HandleFunc("GET /streaks", h.HandleGetStreaks)

	mux.HandleFunc("POST /logs", h.HandleCreateLog)
	mux.HandleFunc("GET /logs", h.HandleListLogs)
	// More specific than /logs/{logId}; ServeMux picks this one first
	mux.HandleFunc("GET /logs/calendar/months", h.HandleCalendarMonths)
	mux.HandleFunc("GET /logs/{logId}", h.HandleGetLog)
	mux.HandleFunc("PUT /logs/{logId}", h.HandleUpdateLog)

	mux.HandleFunc("POST /feedback/request", h.HandleRequestFeedback)
	mux.HandleFunc("GET /feedback/{logId}", h.HandleGetFeedback)

	mux.HandleFunc("POST /goals", h.HandleCreateGoal)
	mux.HandleFunc("GET /goals", h.HandleListGoals)
	mux.HandleFunc("PUT /goals/{goalId}", h.HandleUpdateGoal)
	mux.HandleFunc("DELETE /goals/{goalId}", h.HandleDeleteGoal)
	mux.HandleFunc("POST /goals/{goalId}/complete", h.HandleCompleteGoal)

	mux.HandleFunc("POST /chats", h.HandleCreateChat)
	mux.HandleFunc("GET /chats", h.HandleListChats)
	mux.HandleFunc("GET /chats/{chatId}", h.HandleGetChat)
	mux.HandleFunc("POST /chats/{chatId}/messages", h.HandleSendMessage)
}
