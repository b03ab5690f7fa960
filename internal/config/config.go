package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// MaxBoardSize bounds the snapshot sent after every move.
const MaxBoardSize = 20

var (
	ErrUnknownStorage   = errors.New("unknown storage")
	ErrInvalidBoardSize = errors.New("invalid board size")
)

type Config struct {
	LogLevel   string        `yaml:"log-level"   env:"LOG_LEVEL"   env-default:"info"`
	HTTPPort   string        `yaml:"http-port"   env:"HTTP_PORT"   env-default:"9090"`
	SocketPort string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3001"`
	Storage    string        `yaml:"storage"     env:"STORAGE"     env-default:"memory"`
	Redis      Redis         `yaml:"redis"`
	Game       Game          `yaml:"game"`
	Socket     Socket        `yaml:"socket"`
	InviteURL  string        `yaml:"invite-url"  env:"INVITE_URL"  env-default:"http://localhost:3000/"`
	Shutdown   time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Host     string        `yaml:"host"     env:"REDIS_HOST"     env-default:"localhost"`
	Port     string        `yaml:"port"     env:"REDIS_PORT"     env-default:"6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	TTL      time.Duration `yaml:"ttl"      env:"REDIS_TTL"      env-default:"24h"`
}

// Game holds match settings. A board-size of 0 is treated as unset and
// takes the default.
type Game struct {
	BoardSize int `yaml:"board-size" env:"BOARD_SIZE" env-default:"5"`
}

type Socket struct {
	RateLimit  float64 `yaml:"rate-limit"  env:"SOCKET_RATE_LIMIT"  env-default:"10"`
	RateBurst  int     `yaml:"rate-burst"  env:"SOCKET_RATE_BURST"  env-default:"20"`
	SendBuffer int     `yaml:"send-buffer" env:"SOCKET_SEND_BUFFER" env-default:"64"`
}

// Load reads the config file at path. A missing file is not an error,
// the environment and defaults are used instead.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if exists(path) {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	if that.Storage != StorageMemory && that.Storage != StorageRedis {
		return fmt.Errorf("%w: %q", ErrUnknownStorage, that.Storage)
	}

	if that.Game.BoardSize <= 0 || that.Game.BoardSize > MaxBoardSize {
		return fmt.Errorf("%w: %d, want 1..%d", ErrInvalidBoardSize, that.Game.BoardSize, MaxBoardSize)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
