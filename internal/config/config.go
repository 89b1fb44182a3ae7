package config

// Config represents the full application configuration.
type Config struct {
	Queue         QueueConfig               `yaml:"queue"`
	LLM           LLMConfig                 `yaml:"llm"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	HTTP          HTTPConfig                `yaml:"http"`
	Analysis      AnalysisConfig            `yaml:"analysis"`
	Git           GitConfig                 `yaml:"git"`
	ConfigManager ConfigManagerConfig       `yaml:"configManager"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// QueueConfig configures the Pub/Sub subscription the worker consumes.
type QueueConfig struct {
	Project      string `yaml:"project"`
	Subscription string `yaml:"subscription"`
}

// LLMConfig selects which provider performs analysis.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, gemini
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// AnalysisConfig bounds how much of a repository gets analyzed per request.
type AnalysisConfig struct {
	MaxFiles int `yaml:"maxFiles"`
}

// GitConfig configures where clones are materialized.
type GitConfig struct {
	WorkDir string `yaml:"workDir"` // Base directory for temp clones; empty means os.TempDir
}

// ConfigManagerConfig configures the quota and integration service client.
type ConfigManagerConfig struct {
	BaseURL   string `yaml:"baseURL"`
	AuthToken string `yaml:"authToken"`
	CacheSize int    `yaml:"cacheSize"`
	CacheTTL  string `yaml:"cacheTTL"`
}

// StoreConfig configures the run-history persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, error
	Format        string `yaml:"format"`        // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}
