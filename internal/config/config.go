package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env             string        `yaml:"env" env:"ENV" env-default:"local"`
	JwtSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-required:"true"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-required:"true"`
	GRPC            GRPC          `yaml:"grpc"`
	HTTP            HTTP          `yaml:"http"`
	Storage         Storage       `yaml:"storage"`
	Postgres        Postgres      `yaml:"postgres"`
	Messenger       Messenger     `yaml:"messenger"`
}

type GRPC struct {
	Port    int           `yaml:"port" env:"GRPC_PORT" env-default:"44044"`
	Timeout time.Duration `yaml:"timeout" env:"GRPC_TIMEOUT" env-default:"10s"`
}

type HTTP struct {
	Address            string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env-default:"10s"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"HTTP_CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type Postgres struct {
	Host              string        `yaml:"host" env:"POSTGRES_HOST"`
	Port              int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User              string        `yaml:"user" env:"POSTGRES_USER"`
	Password          string        `yaml:"password" env:"POSTGRES_PASSWORD"`
	DBName            string        `yaml:"dbname" env:"POSTGRES_DB"`
	SSLMode           string        `yaml:"sslmode" env-default:"disable"`
	MaxConns          int32         `yaml:"max_conns" env-default:"10"`
	MinConns          int32         `yaml:"min_conns" env-default:"2"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" env-default:"5s"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime" env-default:"1h"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time" env-default:"30m"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period" env-default:"1m"`
	ApplicationName   string        `yaml:"application_name" env-default:"go-messenger-server"`
	AutoMigrate       bool          `yaml:"auto_migrate" env:"POSTGRES_AUTO_MIGRATE" env-default:"true"`
}

type Messenger struct {
	DefaultPageSize    int `yaml:"default_page_size" env-default:"50"`
	MaxPageSize        int `yaml:"max_page_size" env-default:"100"`
	InviteCodeAttempts int `yaml:"invite_code_attempts" env-default:"5"`
}

// Load читает конфиг из файла, переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	return MustLoadPath(fetchConfigPath())
}

func MustLoadPath(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DBName == "" {
			return fmt.Errorf("postgres host, user and dbname are required for the %q driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Messenger.DefaultPageSize <= 0 || c.Messenger.MaxPageSize < c.Messenger.DefaultPageSize {
		return fmt.Errorf("invalid page size limits: default %d, max %d",
			c.Messenger.DefaultPageSize, c.Messenger.MaxPageSize)
	}

	if c.Messenger.InviteCodeAttempts <= 0 {
		return fmt.Errorf("invite_code_attempts must be positive")
	}

	return nil
}

func fetchConfigPath() string {
	var res string

	// --config
	if f := flag.Lookup("config"); f != nil {
		res = f.Value.String()
	} else {
		flag.StringVar(&res, "config", "", "path to config file")
		flag.Parse()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
