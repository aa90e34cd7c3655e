// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/uvpd/analysis"
	"github.com/danielhkuo/uvpd/cliparse"
	"github.com/danielhkuo/uvpd/db"
	"github.com/danielhkuo/uvpd/middleware"
	"github.com/danielhkuo/uvpd/models"
)

type ResultsHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewResultsHandler(store *db.Store, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{store: store, cfg: cfg}
}

// ListBatches handles GET /batches
func (h *ResultsHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.ListBatches(r.Context())
	if err != nil {
		slog.Error("failed to list batches", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	batches := make([]models.Batch, 0, len(infos))
	for _, b := range infos {
		batches = append(batches, models.NewBatch(b))
	}
	middleware.JSONResponse(w, http.StatusOK, models.BatchListResponse{Batches: batches})
}

// ListRuns handles GET /batches/{batch}/runs
func (h *ResultsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("batch")
	if batchID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "batch is required")
		return
	}

	batch, err := h.store.GetBatch(r.Context(), batchID)
	if err != nil {
		h.storeError(w, "failed to query batch", err)
		return
	}
	infos, err := h.store.ListRuns(r.Context(), batchID)
	if err != nil {
		h.storeError(w, "failed to list runs", err)
		return
	}

	runs := make([]models.Run, 0, len(infos))
	for _, info := range infos {
		runs = append(runs, models.NewRun(info))
	}
	middleware.JSONResponse(w, http.StatusOK, models.RunListResponse{
		Batch: models.NewBatch(batch),
		Runs:  runs,
	})
}

// GetRunSteps handles GET /batches/{batch}/runs/{run}/steps
// Returns every step of the run in order
func (h *ResultsHandler) GetRunSteps(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("batch")
	runID, err := strconv.Atoi(r.PathValue("run"))
	if batchID == "" || err != nil || runID < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "run must be a positive integer")
		return
	}

	records, err := h.store.RunRecords(r.Context(), batchID, runID)
	if err != nil {
		h.storeError(w, "failed to load run", err)
		return
	}

	steps := make([]models.StepRecord, 0, len(records))
	for _, rec := range records {
		steps = append(steps, models.NewStepRecord("", rec))
	}
	middleware.JSONResponse(w, http.StatusOK, models.StepListResponse{
		BatchID: batchID,
		RunID:   runID,
		Steps:   steps,
	})
}

// GetSummary handles GET /batches/{batch}/summary
// Aggregates completed runs only
func (h *ResultsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("batch")
	if batchID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "batch is required")
		return
	}

	batch, err := h.store.GetBatch(r.Context(), batchID)
	if err != nil {
		h.storeError(w, "failed to query batch", err)
		return
	}
	records, err := h.store.BatchRecords(r.Context(), batchID)
	if err != nil {
		h.storeError(w, "failed to load batch records", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SummaryResponse{
		Batch:   models.NewBatch(batch),
		Summary: analysis.Summarize(records),
	})
}

// storeError maps store errors to responses
func (h *ResultsHandler) storeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, db.ErrBatchNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Batch not found")
	case errors.Is(err, db.ErrRunNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Run not found")
	default:
		slog.Error(msg, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
