// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the uvpd API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, cfg)

# Endpoints

Health:

	GET /health

Stored simulation output (read-only):

	GET /batches                          - All batches, newest first
	GET /batches/{batch}/runs             - Runs of a batch with status
	GET /batches/{batch}/runs/{run}/steps - Winners after every voter
	GET /batches/{batch}/summary          - Condorcet rate, agreement, volatility

Evaluation (stateless):

	POST /evaluate - Winners for posted rankings

Every route except /health and / is wrapped with middleware.WithLogging.
Unknown paths are 404; known paths with the wrong method are 405.
*/
package router
