package config

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Twitter holds the OAuth1 user-context credentials used for both
	// reading tweets and publishing replies.
	Twitter TwitterConfig `json:"twitter"`

	// Providers configures the generative-text backends. At least one
	// provider must be configured; Default names the one tried first.
	Providers ProvidersConfig `json:"providers"`

	Agent AgentConfig `json:"agent"`

	Server   *ServerConfig   `json:"server,omitempty"`
	Mentions *MentionsConfig `json:"mentions,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LoggingFile   `json:"file"`
	Memory  LoggingMemory `json:"memory"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingMemory retains recent log lines in memory so the HTTP /logs
// endpoint can serve them without touching disk.
type LoggingMemory struct {
	Enabled bool `json:"enabled"`
	Size    int  `json:"size,omitempty"` // max retained lines (default 500)
}

type TwitterConfig struct {
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`

	// Username is the bot's own handle, used to skip self-mentions.
	Username string `json:"username,omitempty"`

	// BaseURL overrides the API host. Leave empty for api.twitter.com.
	BaseURL string `json:"base_url,omitempty"`
}

type ProvidersConfig struct {
	// Default is the provider tried first ("gemini" or "azure").
	// Empty means gemini when configured, otherwise azure.
	Default string `json:"default,omitempty"`

	Gemini *GeminiConfig `json:"gemini,omitempty"`
	Azure  *AzureConfig  `json:"azure,omitempty"`
}

type GeminiConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model,omitempty"`    // default: "gemini-2.0-flash-lite"
	BaseURL string `json:"base_url,omitempty"` // default: generativelanguage.googleapis.com
}

type AzureConfig struct {
	Endpoint   string `json:"endpoint"`
	APIKey     string `json:"api_key"`
	Deployment string `json:"deployment"`
	APIVersion string `json:"api_version,omitempty"` // default: "2023-12-01-preview"
}

// AgentConfig controls reply generation and pacing.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "16m").
//
// Defaults (when fields are omitted/zero):
//   - max_replies: 10
//   - reply_interval: "16m"
//   - retry.attempts: 3
//   - retry.base: "1s"
type AgentConfig struct {
	MaxReplies    int         `json:"max_replies,omitempty"`
	ReplyInterval string      `json:"reply_interval,omitempty"`
	Retry         RetryConfig `json:"retry,omitempty"`
}

type RetryConfig struct {
	Attempts int    `json:"attempts,omitempty"`
	Base     string `json:"base,omitempty"`
}

// ServerConfig controls the HTTP API.
//
// Security note:
//   - JWTSecret signs the session cookie; requests without a valid
//     cookie are rejected on authenticated routes.
//   - Prefer binding to localhost unless fronted by a proxy.
type ServerConfig struct {
	Enabled   bool   `json:"enabled"`
	Addr      string `json:"addr,omitempty"` // default: "127.0.0.1:8080"
	JWTSecret string `json:"jwt_secret"`     // do not log

	// RateLimit bounds requests per client IP. Default: 100 per "15m".
	RateLimit RateLimitConfig `json:"rate_limit,omitempty"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type RateLimitConfig struct {
	Requests int    `json:"requests,omitempty"`
	Window   string `json:"window,omitempty"` // Go duration string
}

// MentionsConfig controls the background mention poller.
type MentionsConfig struct {
	Enabled bool `json:"enabled"`
	// Spec is a cron spec; "@every 2m" style intervals are the common case.
	Spec string `json:"spec,omitempty"`
}

// StorageConfig controls schedule persistence.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./replybot.db" }
//
// Nil or an empty driver means the in-memory store.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
