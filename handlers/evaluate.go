// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielhkuo/uvpd/cliparse"
	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/middleware"
	"github.com/danielhkuo/uvpd/models"
	"github.com/danielhkuo/uvpd/preference"
	"github.com/danielhkuo/uvpd/rules"
)

// MaxEvaluateRankings bounds one evaluate request. Every step re-evaluates
// the whole electorate, so the cost grows with the square of this.
const MaxEvaluateRankings = 2000

var ErrTooManyRankings = fmt.Errorf("at most %d rankings per request", MaxEvaluateRankings)

type EvaluateHandler struct {
	cfg cliparse.Config
}

func NewEvaluateHandler(cfg cliparse.Config) *EvaluateHandler {
	return &EvaluateHandler{cfg: cfg}
}

// Evaluate handles POST /evaluate
// Runs the accumulator over the given rankings without storing anything
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Candidates == 0 {
		req.Candidates = h.cfg.Candidates
	}

	resp, err := EvaluateRankings(req.Candidates, req.Rankings)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// EvaluateRankings parses rankings for k candidates (0 means the default),
// returns one step record per ranking and the full rule details for the
// final electorate.
func EvaluateRankings(k int, raw []string) (models.EvaluateResponse, error) {
	if k == 0 {
		k = preference.DefaultCandidates
	}
	if len(raw) == 0 {
		return models.EvaluateResponse{}, errors.New("at least one ranking is required")
	}
	if len(raw) > MaxEvaluateRankings {
		return models.EvaluateResponse{}, ErrTooManyRankings
	}

	rankings := make([]preference.Ranking, 0, len(raw))
	for i, s := range raw {
		rk, err := preference.ParseRanking(k, s)
		if err != nil {
			return models.EvaluateResponse{}, fmt.Errorf("ranking %d: %w", i+1, err)
		}
		rankings = append(rankings, rk)
	}

	acc := engine.NewAccumulator(0, k)
	resp := models.EvaluateResponse{
		Candidates: k,
		Steps:      make([]models.StepRecord, 0, len(rankings)),
	}
	for i, rk := range rankings {
		rec, err := acc.Advance(rk)
		if err != nil {
			return models.EvaluateResponse{}, fmt.Errorf("ranking %d: %w", i+1, err)
		}
		resp.Steps = append(resp.Steps, models.NewStepRecord("", rec))
	}

	snap := acc.Snapshot()
	for _, rule := range rules.All() {
		res, err := rule.Evaluate(snap)
		d := models.NewRuleDetail(res, err)
		d.Rule = rule.Name()
		resp.Final = append(resp.Final, d)
	}
	return resp, nil
}
