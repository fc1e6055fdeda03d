/**
 * @description
 * This is the main entry point for the console service. It is responsible for
 * initializing all components of the service, including configuration, the
 * persisted admin session, the marketplace API client, the dashboard
 * controller with its periodic refresher, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/joho/godotenv: Loads a local .env file when present.
 * - internal/api, internal/app, internal/config, internal/session: Internal packages for the service.
 * - pkg/marketplace: Client for the marketplace admin API.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/giftmart/console-service/internal/api"
	"github.com/giftmart/console-service/internal/app"
	"github.com/giftmart/console-service/internal/config"
	"github.com/giftmart/console-service/internal/session"
	"github.com/giftmart/console-service/pkg/marketplace"
)

func main() {
	// Load a local .env file if one exists; real deployments set env vars.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("level=warn component=bootstrap msg=\"dotenv load failed\" err=%v", err)
	}

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.MarketplaceAPIBaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"marketplace api base url must be configured\" env=MARKETPLACE_API_BASE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting console-service\" port=%s backend=%s", cfg.ServerPort, cfg.MarketplaceAPIBaseURL)

	// Restore any persisted admin session from disk.
	sessions := session.NewStore(cfg.SessionFile)
	if err := sessions.Init(); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"session restore failed; starting signed out\" err=%v", err)
	}

	// Initialize the client for the marketplace admin API. The session store
	// supplies the bearer token for every request.
	client := marketplace.NewClient(cfg.MarketplaceAPIBaseURL, sessions, cfg.MarketplaceTimeout())

	// Initialize the dashboard controller and warm it when a session survives
	// a restart. Without a session the first load happens after login.
	dashboard := app.NewDashboard(client, cfg.SuccessNoticeDelay())
	if sessions.Valid() {
		loadCtx, cancelLoad := context.WithTimeout(context.Background(), 60*time.Second)
		dashboard.Load(loadCtx)
		cancelLoad()
	}

	// Keep the dashboard fresh while the console runs.
	refresher := app.NewRefresher(dashboard, cfg.DashboardRefreshSchedule)
	if err := refresher.Start(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"refresher start failed\" schedule=%q err=%v", cfg.DashboardRefreshSchedule, err)
	}

	// Initialize the API handlers.
	consoleHandlers := api.NewConsoleHandlers(client, sessions, dashboard)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/console", api.ConsoleRoutes(consoleHandlers, sessions))

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	// Let any in-flight refresh finish before tearing the server down.
	<-refresher.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
