package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"coverage-route-server/config"
	"coverage-route-server/handlers"
	"coverage-route-server/preprocessing"
	"coverage-route-server/services"
	"coverage-route-server/storage"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("Failed to open graph store: %v", err)
	}
	defer store.Close()

	var streets *preprocessing.StreetIndex
	if cfg.StreetsDir != "" {
		streets, err = preprocessing.LoadStreetIndex(cfg.StreetsDir)
		if err != nil {
			log.Printf("WARNING: failed to load street index: %v", err)
			streets = nil
		} else {
			log.Printf("Street index loaded: %d streets, %d completed", len(streets.All), len(streets.Completed))
		}
	}

	sessions := services.NewSessionService(store, streets, services.SessionOptions{
		Policy:         cfg.TogglePolicy,
		DefaultHighway: cfg.Profile().DefaultHighway,
		TurnBackWeight: cfg.TurnBackWeight,
		AutoSave:       cfg.AutoSave,
	})

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"*"}
	r.Use(cors.New(corsConfig))

	handlers.NewEditorHandler(sessions).RegisterRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "store": string(cfg.StoreDriver)})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Route editor starting on :%s (store: %s, policy: %s)", cfg.Port, cfg.StoreDriver, cfg.TogglePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}
