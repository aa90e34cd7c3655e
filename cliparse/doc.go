// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Commands

The first argument selects the command:

	uvpd simulate [-preset small|full] [-runs N] [-voters N] [-candidates K]
	              [-seed S] [-workers W] [-resume] [-batch ID]
	              [-out DIR] [-amqp URL] [-exchange NAME]
	uvpd evaluate [-candidates K] RANKING...
	uvpd summary  -batch ID [-format json|text]
	uvpd serve    [-p PORT]

Every command also accepts -d (database URL), -t (sqlite or postgres) and
-config (YAML profile).

# Resolution Order

Each value resolves from the first source that sets it:

 1. command-line flag
 2. environment variable
 3. YAML profile (-config or UVPD_CONFIG)
 4. preset / built-in default

Presets:

	small  10 runs x 50 voters
	full   1000 runs x 500 voters

# Environment Variables

	DATABASE_URL     → -d        (default: uvpd.db)
	DATABASE_TYPE    → -t        (default: sqlite)
	PORT             → -p        (default: 3318)
	UVPD_OUTPUT_DIR  → -out
	AMQP_URL         → -amqp
	AMQP_EXCHANGE    → -exchange
	UVPD_SEED        → -seed     (default: random, logged)
	UVPD_WORKERS     → -workers  (default: CPU count)
	UVPD_CONFIG      → -config

LoadDotEnv copies variables from a .env file into the environment without
overriding what is already set; main calls it before ParseArgs.

# Example

	if err := cliparse.LoadDotEnv(".env"); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}
	cfg, err := cliparse.ParseArgs(os.Args[1:])
	if errors.Is(err, cliparse.ErrUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
*/
package cliparse
