// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /batches", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (status,
duration_ms). Responses with a 5xx status are logged at error level.

# CORS Middleware

The results API is read-mostly and public:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST and OPTIONS with a Content-Type header. Preflight requests
get 204 without reaching the handler.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.EvaluateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

ParseJSONBody rejects unknown fields, trailing data and bodies over
MaxBodyBytes.
*/
package middleware
