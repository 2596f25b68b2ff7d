package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Submission SubmissionConfig `mapstructure:"submission" validate:"required"`
	Dedup      DedupConfig      `mapstructure:"dedup" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// CORSAllowedOrigins lists the origins browsers may call the API from.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"required,min=1,dive,required"`

	// ShutdownTimeoutSeconds bounds how long in-flight requests may run after a
	// shutdown signal.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Supported values for DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the persistence backend. The memory driver keeps all data
	// in process and is intended for local runs and tests.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`

	MaxOpenConns           int `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// PromptTemplatePath overrides the embedded extraction prompt when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`

	// RequestTimeoutSeconds bounds a single extraction call. Zero means no
	// timeout, so a generator that never answers stalls the job queue.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"gte=0"`
}

// RequestTimeout returns RequestTimeoutSeconds as a duration; zero disables it.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SubmissionConfig controls validation of submitted transcripts.
type SubmissionConfig struct {
	// MinLength is the minimum transcript length in characters after trimming.
	MinLength int `mapstructure:"min_length" validate:"gt=0"`
}

// DedupConfig controls content-hash deduplication.
type DedupConfig struct {
	// HashAlgorithm names the digest used for content hashes. Changing it on
	// an existing database makes previously stored hashes unmatchable.
	HashAlgorithm string `mapstructure:"hash_algorithm" validate:"required,oneof=sha256 blake2b"`
}

// SchedulerConfig controls the in-process job scheduler.
type SchedulerConfig struct {
	// JobRetentionMinutes is how long finished jobs stay visible in job
	// status and queue stats. Zero keeps them until the process exits.
	JobRetentionMinutes int `mapstructure:"job_retention_minutes" validate:"gte=0"`
}

// JobRetention returns JobRetentionMinutes as a duration.
func (c SchedulerConfig) JobRetention() time.Duration {
	return time.Duration(c.JobRetentionMinutes) * time.Minute
}
