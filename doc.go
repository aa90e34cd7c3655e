// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the uvpd command.

uvpd studies how Plurality, Borda, Condorcet and instant-runoff voting
diverge as an electorate grows one voter at a time. Each run draws uniform
random rankings of the candidates (A-E by default) and records the four
winners after every new voter.

# Commands

Simulate a batch (default preset: 10 runs x 50 voters):

	uvpd simulate -preset full -seed 42 -out ./data

Resume an interrupted batch:

	uvpd simulate -batch 6f1c... -resume

Evaluate rankings directly:

	uvpd evaluate A>B>C>D>E B>A>C>D>E C>A>B>D>E

Summarize a stored batch:

	uvpd summary -batch 6f1c... -format text

Serve the read API:

	uvpd serve -p 3318

# Configuration

Settings come from flags, environment variables (a .env file in the working
directory is loaded first), a YAML profile and presets, in that order. The
database defaults to a local sqlite file (uvpd.db); set DATABASE_TYPE=postgres
and DATABASE_URL to use PostgreSQL.

# Outputs

Every step record goes to the database. With -out, each run is also written
to DIR/data/raw/<batch>/run_NNNN.json. With -amqp, records are published to
a topic exchange as "<batch>.run.<n>.step".

# Architecture

  - preference: candidates, rankings, electorates, the uniform sampler
  - rules: the four voting rules and the shared tie-break
  - engine: the progressive accumulator and the parallel simulator
  - recorder: run files, AMQP publishing, fan-out
  - db: schema and the SQL store
  - analysis: aggregate statistics
  - handlers, router, middleware, models: the HTTP API
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
