package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/config"
	chat_repo "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/repo/chat"
	user_repo "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/repo/user"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/routers"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/websocket"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/worker"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	wsHub := websocket.NewHub()
	log.Info().Msg("Websocket hub initialized")

	wsRouter := websocket.NewRouter(
		wsHub,
		chat_repo.NewChatRepo(appState.DB),
		user_repo.NewUserRepo(appState.DB),
		appState.Redis,
	)

	authFunc := websocket.JWTWebSocketAuth(appState.JwtSecret.Public, appState.Redis)

	wsHandler := websocket.NewWebSocketHandler(wsHub, wsRouter, authFunc)
	wsHandler.MaxConnections = 10000
	wsHandler.RateLimit.ConnectionsPerIP = 20
	go wsHandler.StartCleanup(ctx)

	log.Info().Msg("Websocket handler initialized")

	r := routers.NewRouter(appState, wsHub, wsHandler)

	workerPool := worker.NewWorkerPool(appState.Redis, appState.DB, 5)
	workerPool.Start(ctx)
	workerPool.StartDLQWorker(ctx)
	workerPool.StartDLQRetryConsumer(ctx)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	// gracefully shutdown the application
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}

	wsHub.Close()
	workerPool.Wait()
}
