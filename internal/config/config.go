package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
	Chat       Chat   `yaml:"chat"`
	CORS       CORS   `yaml:"cors"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	// BotDelay is the pause before the computer answers a move.
	BotDelay time.Duration `yaml:"bot-delay" env:"GAME_BOT_DELAY" env-default:"700ms"`
}

type Chat struct {
	ReplyMinDelay time.Duration `yaml:"reply-min-delay" env:"CHAT_REPLY_MIN_DELAY" env-default:"1s"`
	ReplyMaxDelay time.Duration `yaml:"reply-max-delay" env:"CHAT_REPLY_MAX_DELAY" env-default:"3s"`
	HistoryTTL    time.Duration `yaml:"history-ttl" env:"CHAT_HISTORY_TTL" env-default:"1h"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed-origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if config.Chat.ReplyMaxDelay < config.Chat.ReplyMinDelay {
		panic(fmt.Errorf("chat reply-max-delay %s is less than reply-min-delay %s",
			config.Chat.ReplyMaxDelay, config.Chat.ReplyMinDelay))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
