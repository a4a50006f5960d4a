// Command api starts the Shaktris game server: an HTTP/WebSocket process
// hosting any number of concurrent games behind a single registry.
// Grounded on the teacher's cmd/api/main.go — the godotenv load, gorilla/mux
// router, CORS-then-auth middleware ordering, and signal-driven graceful
// shutdown all carry over; the database/GitHub/deck wiring is gone since
// this server has no persistence layer.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	api "github.com/shaktris/shaktris-server/internal/api/handlers"
	auth "github.com/shaktris/shaktris-server/internal/api/middleware"
	"github.com/shaktris/shaktris-server/internal/config"
	"github.com/shaktris/shaktris-server/internal/registry"
	"github.com/shaktris/shaktris-server/internal/transport"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: could not load .env file (fine in production): %v", err)
		}
	}

	settings := config.FromEnv()
	reg := registry.New(settings)
	sessions := transport.NewSessionManager(reg)
	gameHandler := api.NewGameHandler(reg, sessions)

	r := mux.NewRouter()
	r.Use(auth.CORSHandler())

	gameRouter := r.PathPrefix("/api/games").Subrouter()
	gameRouter.Use(auth.AuthMiddleware)
	gameRouter.Use(auth.CORSHandler())

	gameRouter.HandleFunc("", gameHandler.CreateGame).Methods("POST", "OPTIONS")
	gameRouter.HandleFunc("/ws/{gameId}", gameHandler.HandleWebSocket)
	gameRouter.HandleFunc("/{gameId}/join", gameHandler.JoinGame).Methods("POST", "OPTIONS")
	gameRouter.HandleFunc("/{gameId}", gameHandler.GameStatus).Methods("GET", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	log.Printf("server listening on port %s. press ctrl+c to stop.", port)

	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}

	log.Println("server shut down cleanly.")
}
