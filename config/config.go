// Package config loads the settings of jetcd tools and services.
//
// Settings come from three layers, each overriding the previous one: an
// optional YAML file, an optional dotenv file and JETCD_* environment variables.
package config

import (
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Dataman-Cloud/jetcd/errdefs"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "JETCD_"

// Backend names accepted in Config.Backend.
const (
	BackendEtcd      = "etcd"
	BackendMemory    = "memory"
	BackendBolt      = "bolt"
	BackendTarantool = "tarantool"
)

const (
	defaultDialTimeout    = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultBoltPath       = "jetcd.db"
	defaultLogLevel       = "info"
)

// Config is the complete configuration.
type Config struct {
	Backend   string    `yaml:"backend"   env:"BACKEND"`
	Etcd      Etcd      `yaml:"etcd"      envPrefix:"ETCD_"`
	Bolt      Bolt      `yaml:"bolt"      envPrefix:"BOLT_"`
	Tarantool Tarantool `yaml:"tarantool" envPrefix:"TARANTOOL_"`
	Log       Log       `yaml:"log"       envPrefix:"LOG_"`
}

// Etcd configures the connection to an etcd cluster.
type Etcd struct {
	Endpoints      []string      `yaml:"endpoints"       env:"ENDPOINTS" envSeparator:","`
	DialTimeout    time.Duration `yaml:"dial_timeout"    env:"DIAL_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	Username       string        `yaml:"username"        env:"USERNAME"`
	Password       string        `yaml:"password"        env:"PASSWORD"`
}

// Bolt configures the embedded bbolt store.
type Bolt struct {
	Path string `yaml:"path" env:"PATH"`
}

// Tarantool configures the connection to a Tarantool config storage.
type Tarantool struct {
	Addrs          []string      `yaml:"addrs"           env:"ADDRS" envSeparator:","`
	User           string        `yaml:"user"            env:"USER"`
	Password       string        `yaml:"password"        env:"PASSWORD"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Backend: BackendEtcd,
		Etcd: Etcd{
			Endpoints:      []string{"127.0.0.1:2379"},
			DialTimeout:    defaultDialTimeout,
			RequestTimeout: defaultRequestTimeout,
			Username:       "",
			Password:       "",
		},
		Bolt: Bolt{Path: defaultBoltPath},
		Tarantool: Tarantool{
			Addrs:          []string{"127.0.0.1:3301"},
			User:           "",
			Password:       "",
			RequestTimeout: defaultRequestTimeout,
		},
		Log: Log{Level: defaultLogLevel},
	}
}

// Load builds a Config from the defaults, the YAML file at path and the environment.
// An empty path skips the file. envFiles are dotenv files loaded into the process
// environment before it is read; a missing ".env" is ignored when none are given.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "failed to read config file %q", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errdefs.InvalidArgument("failed to parse config file %q: %v", path, err)
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errdefs.InvalidArgument("failed to parse environment variables: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(err, "failed to load .env")
		}

		return nil
	}

	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "failed to load environment files")
	}

	return nil
}

// Validate reports the first inconsistent setting as errdefs.ErrInvalidArgument.
func (c Config) Validate() error {
	backends := []string{BackendEtcd, BackendMemory, BackendBolt, BackendTarantool}
	if !slices.Contains(backends, c.Backend) {
		return errdefs.InvalidArgument("unknown backend %q, expected one of %v", c.Backend, backends)
	}

	switch c.Backend {
	case BackendEtcd:
		if len(c.Etcd.Endpoints) == 0 {
			return errdefs.InvalidArgument("etcd backend requires at least one endpoint")
		}

		if c.Etcd.DialTimeout < 0 || c.Etcd.RequestTimeout < 0 {
			return errdefs.InvalidArgument("etcd timeouts must not be negative")
		}
	case BackendBolt:
		if c.Bolt.Path == "" {
			return errdefs.InvalidArgument("bolt backend requires a path")
		}
	case BackendTarantool:
		if len(c.Tarantool.Addrs) == 0 {
			return errdefs.InvalidArgument("tarantool backend requires at least one address")
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errdefs.InvalidArgument("invalid log level %q", c.Log.Level)
	}

	return nil
}

// NewLogger builds a production logger writing at the configured level.
func (l Log) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, errdefs.InvalidArgument("invalid log level %q", l.Level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}

	return logger, nil
}
