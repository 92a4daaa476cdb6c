// Package server provides HTTP server initialization and lifecycle management
// for the Murmur API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/murmur/internal/config"
	"github.com/scrypster/murmur/internal/engine"
	"github.com/scrypster/murmur/internal/importer"
	"github.com/scrypster/murmur/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with port 0)
// and the WebSocketHub so callers can wire additional broadcasts.
// The server runs until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, cfg *config.Config, pipeline *engine.Pipeline, imp *importer.JournalImporter) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	// Create WebSocket hub and push each processed entry to connected clients.
	// Allowed Origin hosts follow the configured bind address; loopback
	// deployments accept both spellings of localhost.
	wsHosts := []string{fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)}
	if cfg.Server.Host == "localhost" || cfg.Server.Host == "127.0.0.1" {
		wsHosts = []string{
			fmt.Sprintf("localhost:%d", cfg.Server.Port),
			fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		}
	}
	wsHub := handlers.NewWebSocketHub(wsHosts...)
	go wsHub.Run()
	pipeline.SetOnEntryProcessed(wsHub.BroadcastEntryProcessed)

	// Create rate limiter (10 req/sec, burst of 20)
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	apiHandlers := handlers.NewAPIHandlers(pipeline, cfg)
	importHandlers := handlers.NewImportHandlers(imp)

	// Authenticated API routes
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/entries", apiHandlers.CreateEntry)
	apiMux.HandleFunc("GET /api/entries/recent", apiHandlers.RecentEntries)
	apiMux.HandleFunc("GET /api/profile", apiHandlers.GetProfile)
	apiMux.HandleFunc("GET /api/stats", apiHandlers.GetStats)
	apiMux.HandleFunc("GET /api/config", apiHandlers.GetConfig)
	apiMux.HandleFunc("POST /api/import/journal", importHandlers.PostJournalImport)
	apiMux.HandleFunc("GET /api/import/status/{job_id}", importHandlers.GetImportStatus)
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint relies on origin validation rather than bearer auth;
	// browsers cannot attach Authorization headers to upgrade requests.
	mux.Handle("/ws", wsHub)

	// Health check stays unauthenticated so probes work in production mode
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","version":"1.0.0"}`)
	})

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Listen explicitly so port 0 resolves to a real address for tests
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		log.Printf("Murmur API listening on http://%s", actualAddr)
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}
