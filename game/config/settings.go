package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/wricardo/robot-sim/game/engine"
)

// EnvPrefix prefixes every environment override, e.g. ROBOSIM_PORT
const EnvPrefix = "ROBOSIM"

// Settings holds the server configuration
type Settings struct {
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	TickInterval    time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
	ScenarioDir     string        `json:"scenarioDir" mapstructure:"scenarioDir"`
	DatabasePath    string        `json:"databasePath" mapstructure:"databasePath"`
	LogLevel        string        `json:"logLevel" mapstructure:"logLevel"`
	SessionMaxAge   time.Duration `json:"sessionMaxAge" mapstructure:"sessionMaxAge"`
	CleanupInterval time.Duration `json:"cleanupInterval" mapstructure:"cleanupInterval"`
	Ngrok           NgrokSettings `json:"ngrok" mapstructure:"ngrok"`
}

// NgrokSettings configures the optional public tunnel
type NgrokSettings struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	AuthToken string `json:"-" mapstructure:"authToken"`
	Domain    string `json:"domain" mapstructure:"domain"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
	v.SetDefault("tickInterval", fmt.Sprintf("%dms", engine.TickInterval))
	v.SetDefault("scenarioDir", "configs/scenarios")
	v.SetDefault("databasePath", "robosim.db")
	v.SetDefault("logLevel", "info")
	v.SetDefault("sessionMaxAge", "24h")
	v.SetDefault("cleanupInterval", "1h")

	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.authToken", "")
	v.SetDefault("ngrok.domain", "")
}

// LoadSettings reads settings from defaults, an optional config file and the
// environment, in increasing priority. With an empty configFile it looks for
// robosim.yaml in the working directory and carries on without one.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names the previous server honored
	_ = v.BindEnv("scenarioDir", EnvPrefix+"_SCENARIODIR", "CONFIG_DIR")
	_ = v.BindEnv("ngrok.enabled", EnvPrefix+"_NGROK_ENABLED", "NGROK_ENABLED")
	_ = v.BindEnv("ngrok.authToken", EnvPrefix+"_NGROK_AUTHTOKEN", "NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")
	_ = v.BindEnv("ngrok.domain", EnvPrefix+"_NGROK_DOMAIN", "NGROK_DOMAIN")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("robosim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the server cannot start with
func (s *Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", s.TickInterval)
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses the configured log level
func (s *Settings) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// Addr returns the HTTP listen address
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
