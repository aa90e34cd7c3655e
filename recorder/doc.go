// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package recorder provides engine.Recorder sinks besides the SQL store.

  - JSONRecorder writes one JSON array per run under data/raw/<batch>/
  - Publisher sends every step to an AMQP topic exchange
  - Multi fans one record out to several recorders

All recorders are safe for concurrent use by different runs.
*/
package recorder
