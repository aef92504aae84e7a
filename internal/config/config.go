package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"reel-quizzer/internal/domain"
)

// Generator providers.
const (
	ProviderReplicate = "replicate"
	ProviderGemini    = "gemini"
	ProviderLangchain = "langchain"
)

type Config struct {
	Logger    LoggerConfig
	Batch     BatchConfig
	Generator GeneratorConfig
	Redis     RedisConfig
	History   HistoryConfig
	Server    ServerConfig
}

type LoggerConfig struct {
	Env   string
	Level string
}

// BatchConfig drives one pass over the data root.
type BatchConfig struct {
	DataDir          string
	PromptFile       string
	BaseURL          string
	OnlyMissing      bool
	Overwrite        bool
	Sleep            time.Duration
	SizeWarnMB       float64
	VideoExt         string
	StrictValidation bool
}

type GeneratorConfig struct {
	Provider          string
	Model             string
	TopP              float64
	Temperature       float64
	DynamicThinking   bool
	MaxOutputTokens   int
	Timeout           time.Duration
	ReplicateAPIToken string
	GeminiAPIKey      string
}

// RedisConfig is optional; an empty Address disables the Redis outcome recorder.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// HistoryConfig is optional; an empty DSN disables the attempt history table.
type HistoryConfig struct {
	Driver string
	DSN    string
}

type ServerConfig struct {
	Port         int
	DataRoot     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// credentialAliases maps a primary environment variable to the alternate
// name it may be supplied under.
var credentialAliases = map[string]string{
	"REPLICATE_API_TOKEN": "REPLICATE_API_KEY",
	"GEMINI_API_KEY":      "GOOGLE_API_KEY",
}

// flagKeys binds command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"data":              "batch.data_dir",
	"prompt-file":       "batch.prompt_file",
	"remote-base-url":   "batch.base_url",
	"only-missing":      "batch.only_missing",
	"overwrite":         "batch.overwrite",
	"sleep":             "batch.sleep",
	"size-warn-mb":      "batch.size_warn_mb",
	"strict":            "batch.strict_validation",
	"provider":          "generator.provider",
	"model":             "generator.model",
	"top-p":             "generator.top_p",
	"temperature":       "generator.temperature",
	"dynamic-thinking":  "generator.dynamic_thinking",
	"max-output-tokens": "generator.max_output_tokens",
	"history-driver":    "history.driver",
	"history-dsn":       "history.dsn",
	"redis-address":     "redis.address",
	"port":              "server.port",
	"data-root":         "server.data_root",
	"log-level":         "logger.level",
}

// envKeys lists the unprefixed environment names honored for each key, in
// priority order, in addition to the REEL_ prefixed form.
var envKeys = map[string][]string{
	"batch.base_url":                {"REMOTE_BASE_URL"},
	"generator.replicate_api_token": {"REPLICATE_API_TOKEN"},
	"generator.gemini_api_key":      {"GEMINI_API_KEY"},
	"redis.address":                 {"REDIS_ADDRESS"},
	"redis.password":                {"REDIS_PASSWORD"},
	"history.dsn":                   {"HISTORY_DSN"},
	"server.port":                   {"PORT"},
	"server.data_root":              {"DATA_ROOT"},
	"logger.env":                    {"ENV"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")

	v.SetDefault("batch.data_dir", "data")
	v.SetDefault("batch.sleep", 0.0)
	v.SetDefault("batch.size_warn_mb", 150.0)
	v.SetDefault("batch.video_ext", ".mp4")
	v.SetDefault("batch.strict_validation", false)

	v.SetDefault("generator.provider", ProviderReplicate)
	v.SetDefault("generator.model", "google/gemini-2.5-flash")
	v.SetDefault("generator.top_p", 0.95)
	v.SetDefault("generator.temperature", 0.7)
	v.SetDefault("generator.dynamic_thinking", true)
	v.SetDefault("generator.max_output_tokens", 12000)
	v.SetDefault("generator.timeout", 10*time.Minute)

	v.SetDefault("history.driver", "sqlite")

	v.SetDefault("server.port", 5174)
	v.SetDefault("server.data_root", "data")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
}

// LoadConfig resolves configuration from defaults, an optional config.yaml,
// the environment and flags, in increasing priority. flags may be nil.
// Call LoadEnvFiles first so that .env values are visible here.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	NormalizeCredentialAliases()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, domain.NewError(domain.CodeConfiguration, "failed to read config file", err)
		}
	}

	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envKeys {
		prefixed := "REEL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, domain.NewError(domain.CodeConfiguration, "failed to bind environment", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, domain.NewError(domain.CodeConfiguration, fmt.Sprintf("failed to bind flag --%s", name), err)
			}
		}
	}

	return &Config{
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		Batch: BatchConfig{
			DataDir:          v.GetString("batch.data_dir"),
			PromptFile:       v.GetString("batch.prompt_file"),
			BaseURL:          strings.TrimRight(v.GetString("batch.base_url"), "/"),
			OnlyMissing:      v.GetBool("batch.only_missing"),
			Overwrite:        v.GetBool("batch.overwrite"),
			Sleep:            time.Duration(v.GetFloat64("batch.sleep") * float64(time.Second)),
			SizeWarnMB:       v.GetFloat64("batch.size_warn_mb"),
			VideoExt:         v.GetString("batch.video_ext"),
			StrictValidation: v.GetBool("batch.strict_validation"),
		},
		Generator: GeneratorConfig{
			Provider:          strings.ToLower(v.GetString("generator.provider")),
			Model:             v.GetString("generator.model"),
			TopP:              v.GetFloat64("generator.top_p"),
			Temperature:       v.GetFloat64("generator.temperature"),
			DynamicThinking:   v.GetBool("generator.dynamic_thinking"),
			MaxOutputTokens:   v.GetInt("generator.max_output_tokens"),
			Timeout:           v.GetDuration("generator.timeout"),
			ReplicateAPIToken: v.GetString("generator.replicate_api_token"),
			GeminiAPIKey:      v.GetString("generator.gemini_api_key"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		History: HistoryConfig{
			Driver: v.GetString("history.driver"),
			DSN:    v.GetString("history.dsn"),
		},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			DataRoot:     v.GetString("server.data_root"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
	}, nil
}

// NormalizeCredentialAliases copies an alias into its primary variable when
// only the alias is set. SDKs that read the primary name directly rely on this.
func NormalizeCredentialAliases() {
	for primary, alias := range credentialAliases {
		if os.Getenv(primary) != "" {
			continue
		}
		if value := os.Getenv(alias); value != "" {
			_ = os.Setenv(primary, value)
		}
	}
}

// ValidateForBatch runs the pre-flight checks of the generate command. The
// first failure is returned as a configuration error. DataDir is made absolute.
func (c *Config) ValidateForBatch() error {
	switch c.Generator.Provider {
	case ProviderReplicate:
		if c.Generator.ReplicateAPIToken == "" {
			return domain.NewConfigurationError("REPLICATE_API_TOKEN not set")
		}
	case ProviderGemini, ProviderLangchain:
		if c.Generator.GeminiAPIKey == "" {
			return domain.NewConfigurationError("GEMINI_API_KEY not set")
		}
	default:
		return domain.NewConfigurationError(fmt.Sprintf("unknown generator provider %q", c.Generator.Provider))
	}

	c.Batch.BaseURL = strings.TrimRight(c.Batch.BaseURL, "/")
	if c.Batch.BaseURL == "" {
		return domain.NewConfigurationError("--remote-base-url or REMOTE_BASE_URL env var is required (public URL of mirrored data)")
	}

	dataDir, err := expandPath(c.Batch.DataDir)
	if err != nil {
		return domain.NewError(domain.CodeConfiguration, "invalid data dir", err)
	}
	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		return domain.NewConfigurationError(fmt.Sprintf("data dir not found: %s", dataDir))
	}
	c.Batch.DataDir = dataDir

	if !strings.HasPrefix(c.Batch.VideoExt, ".") {
		return domain.NewConfigurationError(fmt.Sprintf("video extension must start with a dot: %q", c.Batch.VideoExt))
	}
	if c.Generator.MaxOutputTokens <= 0 {
		return domain.NewConfigurationError("max output tokens must be positive")
	}
	return nil
}

func expandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
