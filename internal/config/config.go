// Package config handles vrcsubs configuration
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/store"
)

const envPrefix = "VRCSUBS"

// Recognizer and translator provider names.
const (
	ProviderGoogle  = "google"
	ProviderWhisper = "whisper"
	ProviderOpenAI  = "openai"
)

type Config struct {
	Audio      AudioConfig
	Output     OutputConfig
	Recognizer RecognizerConfig
	Translator TranslatorConfig
	Breaker    BreakerConfig
	Server     ServerConfig
	OSCQuery   OSCQueryConfig
	LogLevel   string

	// Runtime seeds the runtime config store, keyed by canonical key name.
	Runtime map[string]any

	// File is the config file that was read, empty when built-in defaults were used.
	File string
}

type AudioConfig struct {
	Device          string
	ExcludedDevices []string
	SampleRate      int
	FramesPerBuffer int
	EnergyThreshold float64
	DynamicEnergy   bool
	PauseThreshold  time.Duration
	PhraseLimit     time.Duration
	WaitTimeout     time.Duration
}

type OutputConfig struct {
	Host string
	Port int
}

type RecognizerConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

type TranslatorConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

type BreakerConfig struct {
	Threshold    int
	ResetTimeout time.Duration
}

type ServerConfig struct {
	HTTPAddr     string
	HistorySize  int
	HistoryLimit time.Duration
}

type OSCQueryConfig struct {
	Enabled bool
}

// legacyAliases maps misspelled or renamed keys accepted from older config files.
var legacyAliases = map[string]string{
	"TranslateInterumResults": store.KeyTranslateInterimResults,
	"OSCControlPort":          store.KeyControlPort,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.device", "")
	v.SetDefault("audio.excluded_devices", []string{"iphone", "teams", "zoom"})
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.frames_per_buffer", 1024)
	v.SetDefault("audio.energy_threshold", 300.0)
	v.SetDefault("audio.dynamic_energy", true)
	v.SetDefault("audio.pause_threshold", "800ms")
	v.SetDefault("audio.phrase_limit", "1s")
	v.SetDefault("audio.wait_timeout", "100ms")

	v.SetDefault("output.host", "127.0.0.1")
	v.SetDefault("output.port", 9000)

	v.SetDefault("recognizer.provider", ProviderGoogle)
	v.SetDefault("recognizer.api_key", "")
	v.SetDefault("recognizer.endpoint", "")
	v.SetDefault("recognizer.model", "")
	v.SetDefault("recognizer.timeout", "10s")

	v.SetDefault("translator.provider", ProviderGoogle)
	v.SetDefault("translator.api_key", "")
	v.SetDefault("translator.endpoint", "")
	v.SetDefault("translator.model", "")
	v.SetDefault("translator.timeout", "5s")

	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.reset_timeout", "30s")

	v.SetDefault("server.http_addr", "127.0.0.1:8765")
	v.SetDefault("server.history_size", 200)
	v.SetDefault("server.history_limit", "10m")

	v.SetDefault("oscquery.enabled", true)

	v.SetDefault("log.level", "info")
}

// Load reads configuration from path, or from Config.yml in the working
// directory or next to the executable when path is empty. A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("Config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case stderrors.As(err, &notFound):
		case stderrors.Is(err, fs.ErrNotExist):
			return nil, apperrors.Wrapf(err, apperrors.CodeConfigMissing, "config file %s not found", path)
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "read config file")
		}
	}

	cfg := &Config{
		Audio: AudioConfig{
			Device:          v.GetString("audio.device"),
			ExcludedDevices: v.GetStringSlice("audio.excluded_devices"),
			SampleRate:      v.GetInt("audio.sample_rate"),
			FramesPerBuffer: v.GetInt("audio.frames_per_buffer"),
			EnergyThreshold: v.GetFloat64("audio.energy_threshold"),
			DynamicEnergy:   v.GetBool("audio.dynamic_energy"),
			PauseThreshold:  v.GetDuration("audio.pause_threshold"),
			PhraseLimit:     v.GetDuration("audio.phrase_limit"),
			WaitTimeout:     v.GetDuration("audio.wait_timeout"),
		},
		Output: OutputConfig{
			Host: v.GetString("output.host"),
			Port: v.GetInt("output.port"),
		},
		Recognizer: RecognizerConfig{
			Provider: strings.ToLower(v.GetString("recognizer.provider")),
			APIKey:   v.GetString("recognizer.api_key"),
			Endpoint: v.GetString("recognizer.endpoint"),
			Model:    v.GetString("recognizer.model"),
			Timeout:  v.GetDuration("recognizer.timeout"),
		},
		Translator: TranslatorConfig{
			Provider: strings.ToLower(v.GetString("translator.provider")),
			APIKey:   v.GetString("translator.api_key"),
			Endpoint: v.GetString("translator.endpoint"),
			Model:    v.GetString("translator.model"),
			Timeout:  v.GetDuration("translator.timeout"),
		},
		Breaker: BreakerConfig{
			Threshold:    v.GetInt("breaker.threshold"),
			ResetTimeout: v.GetDuration("breaker.reset_timeout"),
		},
		Server: ServerConfig{
			HTTPAddr:     v.GetString("server.http_addr"),
			HistorySize:  v.GetInt("server.history_size"),
			HistoryLimit: v.GetDuration("server.history_limit"),
		},
		OSCQuery: OSCQueryConfig{
			Enabled: v.GetBool("oscquery.enabled"),
		},
		LogLevel: v.GetString("log.level"),
		Runtime:  runtimeValues(v),
		File:     v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtimeValues collects runtime keys from the runtime section, falling back
// to the legacy layout where they sit at the document root. Viper folds key
// case, so lookups go through the canonical names.
func runtimeValues(v *viper.Viper) map[string]any {
	out := make(map[string]any)
	for key := range store.ConfigDefaults() {
		if v.IsSet("runtime." + key) {
			out[key] = v.Get("runtime." + key)
		} else if v.InConfig(strings.ToLower(key)) {
			out[key] = v.Get(key)
		}
	}
	for alias, key := range legacyAliases {
		if _, ok := out[key]; ok {
			continue
		}
		if v.IsSet("runtime." + alias) {
			out[key] = v.Get("runtime." + alias)
		} else if v.InConfig(strings.ToLower(alias)) {
			out[key] = v.Get(alias)
		}
	}
	return out
}

// Validate checks provider names, numeric ranges and the runtime section.
func (c *Config) Validate() error {
	switch c.Recognizer.Provider {
	case ProviderGoogle, ProviderWhisper:
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "unknown recognizer provider %q", c.Recognizer.Provider)
	}
	switch c.Translator.Provider {
	case ProviderGoogle, ProviderOpenAI:
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "unknown translator provider %q", c.Translator.Provider)
	}
	if c.Audio.SampleRate <= 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Output.Port <= 0 || c.Output.Port > 65535 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "output.port out of range: %d", c.Output.Port)
	}
	if _, err := store.NewConfig(c.Runtime); err != nil {
		return fmt.Errorf("runtime section: %w", err)
	}
	return nil
}

// RuntimeStore builds the runtime config store from the runtime section.
func (c *Config) RuntimeStore() (*store.Store, error) {
	return store.NewConfig(c.Runtime)
}
