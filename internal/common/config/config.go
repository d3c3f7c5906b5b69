// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Analysis      AnalysisConfig          `mapstructure:"analysis"`
	Server        ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	SSLEnabled  bool     `mapstructure:"ssl_enabled"`
	URL         string   `mapstructure:"url"` // Single URL for backwards compatibility
	ReportIndex string   `mapstructure:"report_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// APIsConfig holds settings for the signal extraction collaborator.
type APIsConfig struct {
	GenAI struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"genai"`

	LLM LLMConfig `mapstructure:"llm"`
}

// LLMConfig selects a langchaingo provider for the LLM-backed extractor.
type LLMConfig struct {
	Provider  string `mapstructure:"provider"` // openai | anthropic | ollama
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	ServerURL string `mapstructure:"server_url"`
}

// NotificationConfig holds settings for the notify-critical-themes worker.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	// SES sends a plain-text digest of the same alert to people who do not
	// subscribe to the topic.
	SES struct {
		Enabled bool     `mapstructure:"enabled"`
		From    string   `mapstructure:"from"`
		To      []string `mapstructure:"to"`
	} `mapstructure:"ses"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// AnalysisConfig holds the tunables of the health analysis pipeline.
type AnalysisConfig struct {
	// Extractor is "http" (GenAI service) or "llm" (langchaingo model).
	Extractor        string        `mapstructure:"extractor"`
	Parallelism      int           `mapstructure:"parallelism"`
	ExtractorTimeout int           `mapstructure:"extractor_timeout"` // milliseconds
	Breaker          BreakerConfig `mapstructure:"breaker"`
	CacheTTL         int           `mapstructure:"cache_ttl"` // seconds, 0 disables the result cache

	// StrictInvariants fails a run on the first clamped value instead of
	// only logging it. Forced on when app.environment is development.
	StrictInvariants bool `mapstructure:"strict_invariants"`

	RootCause    RootCauseConfig    `mapstructure:"root_cause"`
	Intervention InterventionConfig `mapstructure:"intervention"`
	Prediction   PredictionConfig   `mapstructure:"prediction"`
}

type BreakerConfig struct {
	MaxRequests         uint32 `mapstructure:"max_requests"`
	Interval            int    `mapstructure:"interval"` // milliseconds
	OpenTimeout         int    `mapstructure:"open_timeout"`
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures"`
}

type RootCauseConfig struct {
	ReachWeight    float64 `mapstructure:"reach_weight"`
	SeverityWeight float64 `mapstructure:"severity_weight"`
}

type InterventionConfig struct {
	PlaybookPath          string  `mapstructure:"playbook_path"`
	CriticalAffectedFloor int     `mapstructure:"critical_affected_floor"`
	QuickWinThreshold     float64 `mapstructure:"quick_win_threshold"` // 0 = relative top tertile
}

type PredictionConfig struct {
	Decay float64 `mapstructure:"decay"`
}

// DefaultAnalysis returns the analysis settings used when no file is loaded.
func DefaultAnalysis() AnalysisConfig {
	var a AnalysisConfig
	applyAnalysisDefaults(&a)
	return a
}
