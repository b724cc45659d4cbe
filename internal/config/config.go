package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	// SecureCookies marks session cookies Secure; enable behind TLS only.
	SecureCookies bool `mapstructure:"secure_cookies"`

	DefaultMaxPlayers int           `mapstructure:"default_max_players"`
	LobbyTick         time.Duration `mapstructure:"lobby_tick"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	Backpressure      string        `mapstructure:"backpressure"`
	RateLimit         int           `mapstructure:"rate_limit"`
	RateInterval      time.Duration `mapstructure:"rate_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("secure_cookies", false)

	v.SetDefault("default_max_players", 20)
	v.SetDefault("lobby_tick", "1s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("rate_interval", "10s")
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName on top of the defaults; LOBBY_* env vars win over both.
// A missing file is not an error.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("lobby")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DefaultMaxPlayers < 1 || cfg.DefaultMaxPlayers > 255 {
		return nil, fmt.Errorf("default_max_players %d not in [1, 255]", cfg.DefaultMaxPlayers)
	}
	if cfg.LobbyTick <= 0 {
		return nil, fmt.Errorf("lobby_tick must be positive, got %s", cfg.LobbyTick)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Int("default_max_players", cfg.DefaultMaxPlayers).
		Msg("config ready")
	return &cfg, nil
}
