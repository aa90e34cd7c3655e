// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package analysis aggregates the step records of a batch.

Summarize groups records by run and computes:

  - the Condorcet rate by step: for each step, the fraction of runs that had
    a Condorcet winner at that electorate size
  - rule agreement: the fraction of steps where at least two rules elected
    the same candidate (AgreeAny), and where every rule that produced a
    winner agreed, with at least two winners present (AgreeAll)
  - volatility: how often the tuple of four winners changed from one step
    to the next within a run
  - the distribution of final-step winners per rule

Report prints the same numbers as plain text.
*/
package analysis
