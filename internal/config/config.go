// Package config loads the ema-chat configuration from defaults, an optional
// YAML file, a .env file, the environment and command line flags, in
// increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/koscakluka/ema-chat/core/audio"
	"github.com/koscakluka/ema-chat/core/connectivity"
	"github.com/koscakluka/ema-chat/core/llms"
	"github.com/koscakluka/ema-chat/core/llms/completions"
	"github.com/koscakluka/ema-chat/core/retry"
	"github.com/koscakluka/ema-chat/core/speechtotext"
	"github.com/koscakluka/ema-chat/core/speechtotext/deepgram"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const (
	AppName   = "ema-chat"
	EnvPrefix = "EMA"

	ProviderIONet  = "ionet"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"

	AudioMiniaudio = "miniaudio"
	AudioPortaudio = "portaudio"
)

var ErrMissingAPIKey = errors.New("missing api key")

type Config struct {
	Provider  string `json:"provider" mapstructure:"provider" jsonschema:"enum=ionet,enum=openai,enum=groq,default=ionet"`
	Model     string `json:"model" mapstructure:"model" jsonschema:"enum=gpt-3.5-turbo,enum=gpt-4,enum=gpt-4-turbo,default=gpt-3.5-turbo"`
	SessionID string `json:"session_id,omitempty" mapstructure:"session_id" jsonschema:"description=Server-side chat session prompts are threaded into"`

	LLM          LLM          `json:"llm" mapstructure:"llm"`
	Speech       Speech       `json:"speech" mapstructure:"speech"`
	Retry        retry.Policy `json:"retry" mapstructure:"retry"`
	Connectivity Connectivity `json:"connectivity" mapstructure:"connectivity"`

	PrefsFile string `json:"prefs_file,omitempty" mapstructure:"prefs_file"`
	LogFile   string `json:"log_file,omitempty" mapstructure:"log_file"`
	LogLevel  string `json:"log_level" mapstructure:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

type LLM struct {
	IONetAPIKey  string `json:"ionet_api_key,omitempty" mapstructure:"ionet_api_key"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty" mapstructure:"openai_api_key"`
	GroqAPIKey   string `json:"groq_api_key,omitempty" mapstructure:"groq_api_key"`

	// Endpoint overrides the provider's chat completions URL.
	Endpoint        string        `json:"endpoint,omitempty" mapstructure:"endpoint" jsonschema:"format=uri"`
	Temperature     float64       `json:"temperature" mapstructure:"temperature" jsonschema:"minimum=0,maximum=2,default=0.7"`
	SystemPrompt    string        `json:"system_prompt" mapstructure:"system_prompt"`
	Streaming       bool          `json:"streaming" mapstructure:"streaming" jsonschema:"default=true"`
	IdleTimeout     time.Duration `json:"idle_timeout" mapstructure:"idle_timeout" jsonschema:"type=string,default=30s"`
	ResponseTimeout time.Duration `json:"response_timeout" mapstructure:"response_timeout" jsonschema:"type=string,default=2m"`
}

type Speech struct {
	DeepgramAPIKey string `json:"deepgram_api_key,omitempty" mapstructure:"deepgram_api_key"`
	Model          string `json:"model" mapstructure:"model" jsonschema:"default=nova-3"`
	ListenURL      string `json:"listen_url" mapstructure:"listen_url" jsonschema:"format=uri"`
	Language       string `json:"language" mapstructure:"language" jsonschema:"description=BCP 47 tag used until one is saved in the preferences,default=en-US"`
	Audio          string `json:"audio" mapstructure:"audio" jsonschema:"enum=miniaudio,enum=portaudio,default=miniaudio"`
	SampleRate     int    `json:"sample_rate" mapstructure:"sample_rate" jsonschema:"minimum=8000,default=16000"`
}

type Connectivity struct {
	CheckURL      string        `json:"check_url" mapstructure:"check_url" jsonschema:"format=uri"`
	CheckInterval time.Duration `json:"check_interval" mapstructure:"check_interval" jsonschema:"type=string,default=15s"`
	CheckTimeout  time.Duration `json:"check_timeout" mapstructure:"check_timeout" jsonschema:"type=string,default=5s"`
}

// envAliases are read in addition to the EMA_ prefixed names.
var envAliases = map[string]string{
	"llm.ionet_api_key":       "IONET_API_KEY",
	"llm.openai_api_key":      "OPENAI_API_KEY",
	"llm.groq_api_key":        "GROQ_API_KEY",
	"speech.deepgram_api_key": "DEEPGRAM_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderIONet)
	v.SetDefault("model", string(llms.DefaultModel))
	v.SetDefault("session_id", "")
	v.SetDefault("prefs_file", "")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.temperature", completions.DefaultTemperature)
	v.SetDefault("llm.system_prompt", completions.DefaultSystemPrompt)
	v.SetDefault("llm.streaming", true)
	v.SetDefault("llm.idle_timeout", completions.DefaultIdleTimeout)
	v.SetDefault("llm.response_timeout", 2*time.Minute)

	v.SetDefault("speech.model", deepgram.DefaultModel)
	v.SetDefault("speech.listen_url", deepgram.DefaultListenURL)
	v.SetDefault("speech.language", speechtotext.DefaultLanguage)
	v.SetDefault("speech.audio", AudioMiniaudio)
	v.SetDefault("speech.sample_rate", audio.DefaultSampleRate)

	policy := retry.DefaultPolicy()
	v.SetDefault("retry.initial_delay", policy.InitialDelay)
	v.SetDefault("retry.max_delay", policy.MaxDelay)
	v.SetDefault("retry.max_attempts", policy.MaxAttempts)

	v.SetDefault("connectivity.check_url", connectivity.DefaultCheckURL)
	v.SetDefault("connectivity.check_interval", connectivity.DefaultCheckInterval)
	v.SetDefault("connectivity.check_timeout", connectivity.DefaultCheckTimeout)
}

type loader struct {
	viper      *viper.Viper
	configFile string
	envFile    string
}

type Option func(*loader)

// WithViper loads into v, typically one that already has command line flags
// bound to it.
func WithViper(v *viper.Viper) Option {
	return func(l *loader) {
		if v != nil {
			l.viper = v
		}
	}
}

// WithConfigFile reads path instead of searching for a config file.
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile loads path instead of ./.env.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

func Load(opts ...Option) (*Config, error) {
	l := &loader{viper: viper.New(), envFile: ".env"}
	for _, opt := range opts {
		opt(l)
	}
	v := l.viper

	if err := loadEnvFile(l.envFile); err != nil {
		return nil, err
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", alias, err)
		}
	}

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads a .env file if there is one. Variables already set in
// the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{ProviderIONet, ProviderOpenAI, ProviderGroq}, c.Provider) {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if _, err := llms.ParseModel(c.Model); err != nil {
		errs = append(errs, err)
	}
	if _, err := language.Parse(c.Speech.Language); err != nil {
		errs = append(errs, fmt.Errorf("invalid speech language %q: %w", c.Speech.Language, err))
	}
	if !slices.Contains([]string{AudioMiniaudio, AudioPortaudio}, c.Speech.Audio) {
		errs = append(errs, fmt.Errorf("unknown audio backend %q", c.Speech.Audio))
	}
	if c.Speech.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.Speech.SampleRate))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.IdleTimeout <= 0 || c.LLM.ResponseTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry max attempts must not be negative, got %d", c.Retry.MaxAttempts))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() (string, error) {
	var key, env string
	switch c.Provider {
	case ProviderOpenAI:
		key, env = c.LLM.OpenAIAPIKey, "OPENAI_API_KEY"
	case ProviderGroq:
		key, env = c.LLM.GroqAPIKey, "GROQ_API_KEY"
	default:
		key, env = c.LLM.IONetAPIKey, "IONET_API_KEY"
	}
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, env)
	}
	return key, nil
}

// Dir is where the config file and preferences live by default.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// Schema returns the JSON schema of the config file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(&Config{})
	schema.Title = AppName + " configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config schema: %w", err)
	}
	return data, nil
}
