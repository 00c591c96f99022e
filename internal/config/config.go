package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// EnvPrefix prefixes every environment override, e.g. SHORTLINK_POSTGRES_PASSWORD.
const EnvPrefix = "SHORTLINK"

// Leaf fields use split_words rather than envconfig tags: a tag would make
// envconfig fall back to the bare name, so PATH would set SQLite.Path.
type Config struct {
	Env        string     `yaml:"env" split_words:"true"`
	BaseURL    string     `yaml:"base_url" split_words:"true"`
	Log        Log        `yaml:"log" envconfig:"log"`
	Slug       Slug       `yaml:"slug" envconfig:"slug"`
	Clicks     Clicks     `yaml:"clicks" envconfig:"clicks"`
	HTTPServer HTTPServer `yaml:"http_server" envconfig:"http_server"`
	Storage    Storage    `yaml:"storage" envconfig:"storage"`
	Postgres   Postgres   `yaml:"postgres" envconfig:"postgres"`
	SQLite     SQLite     `yaml:"sqlite" envconfig:"sqlite"`
	Redis      Redis      `yaml:"redis" envconfig:"redis"`
}

type Log struct {
	Level   string `yaml:"level" split_words:"true"`
	JSON    bool   `yaml:"json" split_words:"true"`
	Concise bool   `yaml:"concise" split_words:"true"`
}

var defaultLog = Log{
	Level:   "info",
	Concise: true,
}

// SlogLevel parses Level, falling back to info.
func (l *Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type Slug struct {
	Length      int `yaml:"length" split_words:"true"`
	MaxAttempts int `yaml:"max_attempts" split_words:"true"`
}

var defaultSlug = Slug{
	Length:      6,
	MaxAttempts: 10,
}

type Clicks struct {
	Timeout     time.Duration `yaml:"timeout" split_words:"true"`
	MaxInFlight int           `yaml:"max_in_flight" split_words:"true"`
}

var defaultClicks = Clicks{
	Timeout:     5 * time.Second,
	MaxInFlight: 128,
}

type HTTPServer struct {
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	CertFile        string        `yaml:"cert_file" split_words:"true"`
	KeyFile         string        `yaml:"key_file" split_words:"true"`
}

var defaultHTTPServer = HTTPServer{
	Port:            8080,
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
	ShutdownTimeout: 10 * time.Second,
	MaxHeaderBytes:  1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// TLS reports whether both a certificate and a key are configured.
func (s *HTTPServer) TLS() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

type Storage struct {
	Driver string `yaml:"driver" split_words:"true"`
}

var defaultStorage = Storage{
	Driver: StorageSQLite,
}

type Postgres struct {
	User            string        `yaml:"user" split_words:"true"`
	Password        string        `yaml:"password" split_words:"true"`
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	DB              string        `yaml:"db" split_words:"true"`
	SSLMode         string        `yaml:"sslmode" split_words:"true"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" split_words:"true"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" split_words:"true"`
	MaxIdleConns    int           `yaml:"max_idle_conns" split_words:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" split_words:"true"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnectTimeout:  10 * time.Second,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type SQLite struct {
	Path string `yaml:"path" split_words:"true"`
}

var defaultSQLite = SQLite{
	Path: "shortlink.db",
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" split_words:"true"`
	Addr     string        `yaml:"addr" split_words:"true"`
	Password string        `yaml:"password" split_words:"true"`
	DB       int           `yaml:"db" split_words:"true"`
	TTL      time.Duration `yaml:"ttl" split_words:"true"`
}

var defaultRedis = Redis{
	Addr: "localhost:6379",
	TTL:  24 * time.Hour,
}

// Load reads the YAML config file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to process env overrides: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	const op = "config.LoadEnvFile"

	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: failed to load env file: %w", op, err)
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("unknown env %q", c.Env))
	}

	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, errors.New("base_url must start with http:// or https://"))
	}

	if c.Slug.Length < 4 {
		errs = append(errs, errors.New("slug.length must be at least 4"))
	}
	if c.Slug.MaxAttempts <= 0 {
		errs = append(errs, errors.New("slug.max_attempts must be positive"))
	}

	if c.Clicks.Timeout <= 0 {
		errs = append(errs, errors.New("clicks.timeout must be positive"))
	}
	if c.Clicks.MaxInFlight <= 0 {
		errs = append(errs, errors.New("clicks.max_in_flight must be positive"))
	}

	if c.HTTPServer.Port <= 0 || c.HTTPServer.Port > 65535 {
		errs = append(errs, errors.New("http_server.port out of range"))
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite.path is required"))
		}
	case StoragePostgres:
		if c.Postgres.DB == "" {
			errs = append(errs, errors.New("postgres.db is required"))
		}
		if c.Postgres.ConnectTimeout <= 0 {
			errs = append(errs, errors.New("postgres.connect_timeout must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.Log = defaultLog
	cfg.Slug = defaultSlug
	cfg.Clicks = defaultClicks
	cfg.HTTPServer = defaultHTTPServer
	cfg.Storage = defaultStorage
	cfg.Postgres = defaultPostgres
	cfg.SQLite = defaultSQLite
	cfg.Redis = defaultRedis
}
