// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/uvpd/cliparse"
	"github.com/danielhkuo/uvpd/db"
	"github.com/danielhkuo/uvpd/handlers"
	"github.com/danielhkuo/uvpd/middleware"
)

func NewRouter(store *db.Store, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	resultsHandler := handlers.NewResultsHandler(store, cfg)
	evaluateHandler := handlers.NewEvaluateHandler(cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Stored simulation output
	mux.HandleFunc("GET /batches", middleware.WithLogging(resultsHandler.ListBatches))
	mux.HandleFunc("GET /batches/{batch}/runs", middleware.WithLogging(resultsHandler.ListRuns))
	mux.HandleFunc("GET /batches/{batch}/runs/{run}/steps", middleware.WithLogging(resultsHandler.GetRunSteps))
	mux.HandleFunc("GET /batches/{batch}/summary", middleware.WithLogging(resultsHandler.GetSummary))

	// Stateless evaluation
	mux.HandleFunc("POST /evaluate", middleware.WithLogging(evaluateHandler.Evaluate))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("uvpd API v1"))
	})

	return mux
}
