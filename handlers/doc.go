// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the uvpd API.

# Handler Types

Each handler is a struct with its dependencies and the Config:

  - ResultsHandler: read access to stored batches, runs and steps
  - EvaluateHandler: stateless evaluation of posted rankings

Handlers are created via constructor functions:

	resultsHandler := handlers.NewResultsHandler(store, cfg)
	evaluateHandler := handlers.NewEvaluateHandler(cfg)

# Results

	GET /batches                          → ListBatches
	GET /batches/{batch}/runs             → ListRuns
	GET /batches/{batch}/runs/{run}/steps → GetRunSteps
	GET /batches/{batch}/summary          → GetSummary

Unknown batches and runs are 404. Runs that started but never completed are
listed with status "running" and are left out of summaries.

# Evaluate

	POST /evaluate {"candidates": 5, "rankings": ["A>B>C>D>E", ...]}

Returns the winners after every ranking plus the full rule details (counts,
Borda scores, pairwise matrix, IRV rounds and eliminations) for the final
electorate. Nothing is stored. The same logic backs the evaluate command:

	resp, err := handlers.EvaluateRankings(5, []string{"A>B>C>D>E"})
*/
package handlers
