// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Commands
const (
	CmdSimulate = "simulate"
	CmdEvaluate = "evaluate"
	CmdSummary  = "summary"
	CmdServe    = "serve"
)

// Presets
const (
	PresetSmall = "small"
	PresetFull  = "full"
)

const (
	DefaultPort         = 3318
	DefaultDatabaseType = "sqlite"
	DefaultDatabaseURL  = "uvpd.db"
	DefaultCandidates   = 5
)

var ErrUsage = errors.New("usage: uvpd <simulate|evaluate|summary|serve> [flags]")

type preset struct {
	runs   int
	voters int
}

var presets = map[string]preset{
	PresetSmall: {runs: 10, voters: 50},
	PresetFull:  {runs: 1000, voters: 500},
}

type Config struct {
	Command string

	// Simulation
	Preset     string
	Runs       int
	MaxVoters  int
	Candidates int
	Seed       uint64
	SeedSet    bool
	Workers    int
	Resume     bool
	BatchID    string

	// Storage and sinks
	DatabaseURL  string
	DatabaseType string
	OutputDir    string
	AMQPURL      string
	Exchange     string

	// Server
	Port int

	// Summary output: json or text
	Format string

	ConfigFile string
	Rankings   []string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored and existing variables win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ParseArgs parses the command and its flags. Values resolve flag first, then
// environment, then the YAML profile, then the preset.
func ParseArgs(args []string) (Config, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return Config{}, ErrUsage
	}

	cfg := Config{Command: args[0]}
	switch cfg.Command {
	case CmdSimulate, CmdEvaluate, CmdSummary, CmdServe:
	default:
		return Config{}, fmt.Errorf("%w: unknown command %q", ErrUsage, cfg.Command)
	}

	var seed string
	fs := flag.NewFlagSet("uvpd "+cfg.Command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Storage (all commands)
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML simulation profile")

	switch cfg.Command {
	case CmdSimulate:
		fs.StringVar(&cfg.Preset, "preset", "", "Preset (small or full)")
		fs.IntVar(&cfg.Runs, "runs", 0, "Number of runs")
		fs.IntVar(&cfg.MaxVoters, "voters", 0, "Voters per run")
		fs.IntVar(&cfg.Candidates, "candidates", 0, "Number of candidates")
		fs.StringVar(&seed, "seed", "", "Batch seed (random when unset)")
		fs.IntVar(&cfg.Workers, "workers", 0, "Parallel workers (default: CPU count)")
		fs.BoolVar(&cfg.Resume, "resume", false, "Skip runs already recorded")
		fs.StringVar(&cfg.BatchID, "batch", "", "Batch ID (generated when unset)")
		fs.StringVar(&cfg.OutputDir, "out", "", "Directory for JSON run files")
		fs.StringVar(&cfg.AMQPURL, "amqp", "", "AMQP broker URL")
		fs.StringVar(&cfg.Exchange, "exchange", "", "AMQP exchange")
	case CmdEvaluate:
		fs.IntVar(&cfg.Candidates, "candidates", 0, "Number of candidates")
	case CmdSummary:
		fs.StringVar(&cfg.BatchID, "batch", "", "Batch ID")
		fs.StringVar(&cfg.Format, "format", "json", "Output format (json or text)")
	case CmdServe:
		fs.IntVar(&cfg.Port, "p", 0, "Server port")
	}

	if err := fs.Parse(args[1:]); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	cfg.Rankings = fs.Args()

	if seed != "" {
		s, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid -seed %q", seed)
		}
		cfg.Seed, cfg.SeedSet = s, true
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.ConfigFile != "" {
		p, err := LoadProfile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		p.apply(&cfg)
	}

	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, validate(cfg)
}

// applyEnv fills unset values from the environment
func applyEnv(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv("UVPD_CONFIG")
	}

	switch cfg.Command {
	case CmdSimulate:
		if cfg.OutputDir == "" {
			cfg.OutputDir = os.Getenv("UVPD_OUTPUT_DIR")
		}
		if cfg.AMQPURL == "" {
			cfg.AMQPURL = os.Getenv("AMQP_URL")
		}
		if cfg.Exchange == "" {
			cfg.Exchange = os.Getenv("AMQP_EXCHANGE")
		}
		if !cfg.SeedSet {
			if s := os.Getenv("UVPD_SEED"); s != "" {
				seed, err := strconv.ParseUint(s, 10, 64)
				if err != nil {
					return errors.New("invalid UVPD_SEED env variable")
				}
				cfg.Seed, cfg.SeedSet = seed, true
			}
		}
		if cfg.Workers == 0 {
			if s := os.Getenv("UVPD_WORKERS"); s != "" {
				w, err := strconv.Atoi(s)
				if err != nil {
					return errors.New("invalid UVPD_WORKERS env variable")
				}
				cfg.Workers = w
			}
		}
	case CmdServe:
		if cfg.Port == 0 {
			if s := os.Getenv("PORT"); s != "" {
				port, err := strconv.Atoi(s)
				if err != nil {
					return errors.New("invalid PORT env variable")
				}
				cfg.Port = port
			}
		}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = DefaultDatabaseType
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != DefaultDatabaseType {
			return errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = DefaultDatabaseURL
	}
	if cfg.Candidates == 0 {
		cfg.Candidates = DefaultCandidates
	}

	switch cfg.Command {
	case CmdSimulate:
		if cfg.Preset == "" {
			cfg.Preset = PresetSmall
		}
		p, ok := presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown preset %q (use small or full)", cfg.Preset)
		}
		if cfg.Runs == 0 {
			cfg.Runs = p.runs
		}
		if cfg.MaxVoters == 0 {
			cfg.MaxVoters = p.voters
		}
	case CmdServe:
		if cfg.Port == 0 {
			cfg.Port = DefaultPort
		}
	}
	return nil
}

func validate(cfg Config) error {
	switch cfg.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	switch cfg.Command {
	case CmdSimulate:
		if cfg.Runs < 0 || cfg.MaxVoters < 0 || cfg.Workers < 0 {
			return errors.New("runs, voters and workers must not be negative")
		}
		if cfg.Resume && cfg.BatchID == "" {
			return errors.New("-resume requires -batch")
		}
		if len(cfg.Rankings) > 0 {
			return fmt.Errorf("%w: unexpected arguments %v", ErrUsage, cfg.Rankings)
		}
	case CmdEvaluate:
		if len(cfg.Rankings) == 0 {
			return fmt.Errorf("%w: evaluate needs at least one ranking such as A>B>C>D>E", ErrUsage)
		}
	case CmdSummary:
		if cfg.BatchID == "" {
			return errors.New("-batch required")
		}
		if cfg.Format != "json" && cfg.Format != "text" {
			return fmt.Errorf("unsupported format %q (use json or text)", cfg.Format)
		}
	}
	return nil
}
