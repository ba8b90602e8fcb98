package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Search      SearchConfig    `toml:"search"`
	Reviewer    ReviewerConfig  `toml:"reviewer"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Repos  ReposConfig  `toml:"repos"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// ReposConfig controls where tutorial repositories are cloned
type ReposConfig struct {
	Dir string `toml:"dir"` // Local directory for cloned tutorial repos (default: "./data/repos")
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`      // Google Gemini API key
	Model       string  `toml:"model"`        // Model for evaluation calls (default: "gemini-2.0-flash")
	SearchModel string  `toml:"search_model"` // Model for grounded web search (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`      // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`   // Minimum interval between calls (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"`  // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for evaluation calls (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
}

// SearchConfig contains configuration for reference search behavior
type SearchConfig struct {
	Enabled            bool `toml:"enabled"`               // Disable to evaluate without external references
	MaxRounds          int  `toml:"max_rounds"`            // Search rounds per chapter (default: 2)
	MaxSummaryQueries  int  `toml:"max_summary_queries"`   // Queries taken from the analyzer summary in round one (default: 3)
	MaxTermQueries     int  `toml:"max_term_queries"`      // Key-term queries in round two (default: 2)
	MaxResultsPerQuery int  `toml:"max_results_per_query"` // Result cap per query (default: 5)
}

// ReviewerConfig contains evaluation pipeline tuning
type ReviewerConfig struct {
	RelevanceThreshold float64 `toml:"relevance_threshold"` // Minimum reference relevance to keep (default: 0.3)
	MaxReferences      int     `toml:"max_references"`      // Top-K references passed to evaluators (default: 5)
	TopicWeight        float64 `toml:"topic_weight"`        // Relevance weight for topic match (default: 0.3)
	TermWeight         float64 `toml:"term_weight"`         // Relevance weight for key-term overlap (default: 0.4)
	ClaimWeight        float64 `toml:"claim_weight"`        // Relevance weight for claim support (default: 0.3)
	EventBuffer        int     `toml:"event_buffer"`        // Progress events buffered per subscriber (default: 64)

	Weights ScoreWeightsConfig `toml:"weights"` // Optional fixed score weights replacing the per-content-type table
}

// ScoreWeightsConfig overrides the per-content-type dimension weights with
// one fixed set. Unset (all zero) means the content-type table applies.
// Weights are normalized by their sum, so they need not add up to 1.0.
type ScoreWeightsConfig struct {
	Depth        float64 `toml:"depth"`
	Accuracy     float64 `toml:"accuracy"`
	Completeness float64 `toml:"completeness"`
	Logic        float64 `toml:"logic"`
	Readability  float64 `toml:"readability"`
}

// IsSet reports whether any dimension weight was configured
func (w ScoreWeightsConfig) IsSet() bool {
	return w.Depth+w.Accuracy+w.Completeness+w.Logic+w.Readability > 0
}

// SchedulerConfig controls periodic re-evaluation of registered tutorials
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default
	Schedule string `toml:"schedule"` // Cron schedule format (default: "0 3 * * *")
}

// WebSocketConfig contains configuration for WebSocket progress broadcasting
type WebSocketConfig struct {
	MinLevel      string   `toml:"min_level"`      // Minimum log level to broadcast ("debug", "info", "warn", "error")
	AllowedEvents []string `toml:"allowed_events"` // Whitelist of event types to broadcast. Empty list allows all events.
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in lector.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Repos: ReposConfig{
				Dir: "./data/repos",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Format: "text",                     // Human-readable text format (text|json)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		Gemini: GeminiConfig{
			APIKey:      "",                 // User must provide API key (no fallback)
			Model:       "gemini-2.0-flash", // Model for evaluation calls
			SearchModel: "gemini-2.0-flash", // Model for grounded web search
			Timeout:     "2m",
			RateLimit:   "4s", // Default to 4s (15 RPM) for free tier
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for evaluation calls
			MaxTokens:   8192,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Search: SearchConfig{
			Enabled:            true,
			MaxRounds:          2,
			MaxSummaryQueries:  3,
			MaxTermQueries:     2,
			MaxResultsPerQuery: 5,
		},
		Reviewer: ReviewerConfig{
			RelevanceThreshold: 0.3,
			MaxReferences:      5,
			TopicWeight:        0.3,
			TermWeight:         0.4,
			ClaimWeight:        0.3,
			EventBuffer:        64,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,       // Disabled by default - user must explicitly opt-in
			Schedule: "0 3 * * *", // Daily at 03:00
		},
		WebSocket: WebSocketConfig{
			MinLevel:      "info",
			AllowedEvents: []string{},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: LECTOR_ENV, fallback: GO_ENV)
	if env := os.Getenv("LECTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("LECTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LECTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("LECTOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reposDir := os.Getenv("LECTOR_REPOS_DIR"); reposDir != "" {
		config.Storage.Repos.Dir = reposDir
	}

	// Logging configuration
	if level := os.Getenv("LECTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("LECTOR_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("LECTOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("LECTOR_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("LECTOR_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("LECTOR_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("LECTOR_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("LECTOR_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("LECTOR_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // LECTOR_ prefix takes priority
	}
	if model := os.Getenv("LECTOR_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("LECTOR_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("LECTOR_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("LECTOR_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}

	// LLM provider configuration
	if provider := os.Getenv("LECTOR_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Search configuration
	if enabled := os.Getenv("LECTOR_SEARCH_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Search.Enabled = e
		}
	}
	if rounds := os.Getenv("LECTOR_SEARCH_MAX_ROUNDS"); rounds != "" {
		if r, err := strconv.Atoi(rounds); err == nil {
			config.Search.MaxRounds = r
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("LECTOR_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("LECTOR_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a cron schedule expression
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
