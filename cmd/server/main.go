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

	"hrassist-backend/internal/api"
	"hrassist-backend/internal/config"
	"hrassist-backend/internal/handlers"
	"hrassist-backend/internal/integrations"
	"hrassist-backend/internal/services"
	"hrassist-backend/internal/store/sqlite"
)

func main() {
	log.Println("Starting HR Assist Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Local Persistence Tier
	localStore, err := sqlite.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("FATAL: Unable to open local chat store: %v", err)
	}
	defer localStore.Close()
	log.Println("SQLite chat store initialized.")

	// 3. Initialize Collaborator Clients
	agentClient := integrations.NewAgentClient(cfg.AgentAPIURL, cfg.AgentAPIToken)
	historyClient := integrations.NewHistoryClient(cfg.HistoryAPIURL, cfg.HistoryAPIToken)
	log.Println("Agent and history collaborator clients initialized.")

	// 4. Initialize Services
	conversationService := services.NewConversationService(localStore)
	log.Println("ConversationService initialized.")
	syncService := services.NewSyncService(conversationService, historyClient, cfg.SyncInterval)
	syncService.Start()
	log.Println("SyncService started.")

	// 5. Initialize Handlers & Router
	chatHandler := handlers.NewChatHandlers(conversationService, agentClient, syncService)
	router := api.NewRouter(api.RouterDependencies{
		ChatHandler: chatHandler,
		Config:      cfg,
	})
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Production hardening: Set timeouts to avoid Slowloris attacks
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	// Stop background sync before flushing final state.
	syncService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Final local flush for every initialized scope.
	for _, scope := range conversationService.Scopes() {
		conversationService.PersistScope(shutdownCtx, scope)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
