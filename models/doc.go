// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - EvaluateRequest: candidates, rankings ("A>B>C>D>E")

# Response Types

Types for JSON responses:

  - EvaluateResponse: candidates, steps, final
  - BatchListResponse: batches
  - RunListResponse: batch, runs
  - StepListResponse: batch_id, run_id, steps
  - SummaryResponse: batch, summary (see package analysis)
  - ErrorResponse: error, message

# Domain Types

  - Batch: seed and dimensions of a simulation batch
  - Run: one run and its completion state
  - StepRecord: ranking appended at a step and the four winners
  - Winners: winner letter per rule, null for no winner
  - RuleDetail: a rule's winner plus counts, scores, pairwise matrix or IRV rounds

StepRecord is also the format of run files and broker messages, so every
consumer sees candidates as the same stable letters. NewBatch and NewRun
convert the rows returned by the db package.

# Constants

Run status values:

	StatusRunning   = "running"
	StatusCompleted = "completed"
*/
package models
