package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"coverage-route-server/config"
	"coverage-route-server/handlers"
	"coverage-route-server/storage"
)

// circuit-server exposes stored circuits read-only, next to the editor
func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("Failed to open circuit store: %v", err)
	}
	defer store.Close()

	router := mux.NewRouter()
	handlers.NewCircuitHandler(store).RegisterRoutes(router)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.CircuitPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Circuit server starting on :%s", cfg.CircuitPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down circuit server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
