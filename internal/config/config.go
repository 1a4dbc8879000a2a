package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAddr    = "127.0.0.1:3000"
	DefaultTodoURL = "https://jsonplaceholder.typicode.com"
	DefaultCatsURL = "https://cat-fact.herokuapp.com"
)

// Keys used in the config file, the environment and on the command line.
const (
	KeyAddr             = "addr"
	KeyTodoURL          = "todo-url"
	KeyCatsURL          = "cats-url"
	KeyMetricsAddr      = "metrics-addr"
	KeyUpstreamTimeout  = "upstream-timeout"
	KeyConcurrentDouble = "concurrent-double"
	KeyLogLevel         = "log-level"
	KeyLogJSON          = "log-json"
)

// ServerConfig is built once at startup and handed to every request by
// value. Nothing mutates it afterwards.
type ServerConfig struct {
	Addr             string
	TodoURL          string
	CatsURL          string
	MetricsAddr      string
	UpstreamTimeout  time.Duration
	ConcurrentDouble bool
	LogLevel         string
	LogJSON          bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyTodoURL, DefaultTodoURL)
	v.SetDefault(KeyCatsURL, DefaultCatsURL)
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyUpstreamTimeout, time.Duration(0))
	v.SetDefault(KeyConcurrentDouble, false)
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyLogJSON, false)
}

// BindEnv maps every key to a FACTFAN_ prefixed environment variable,
// e.g. todo-url reads FACTFAN_TODO_URL.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("factfan")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// ReadFile loads config.yaml from the usual locations, or from path when it
// is set. A missing file in the search path is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/factfan/")
		v.AddConfigPath("$HOME/.factfan")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Load snapshots v into a ServerConfig and validates the base URLs.
func Load(v *viper.Viper) (ServerConfig, error) {
	cfg := ServerConfig{
		Addr:             v.GetString(KeyAddr),
		TodoURL:          strings.TrimRight(v.GetString(KeyTodoURL), "/"),
		CatsURL:          strings.TrimRight(v.GetString(KeyCatsURL), "/"),
		MetricsAddr:      v.GetString(KeyMetricsAddr),
		UpstreamTimeout:  v.GetDuration(KeyUpstreamTimeout),
		ConcurrentDouble: v.GetBool(KeyConcurrentDouble),
		LogLevel:         v.GetString(KeyLogLevel),
		LogJSON:          v.GetBool(KeyLogJSON),
	}
	if cfg.Addr == "" {
		return ServerConfig{}, fmt.Errorf("%s must not be empty", KeyAddr)
	}
	if err := checkBaseURL(KeyTodoURL, cfg.TodoURL); err != nil {
		return ServerConfig{}, err
	}
	if err := checkBaseURL(KeyCatsURL, cfg.CatsURL); err != nil {
		return ServerConfig{}, err
	}
	if cfg.UpstreamTimeout < 0 {
		return ServerConfig{}, fmt.Errorf("%s must not be negative, got %s", KeyUpstreamTimeout, cfg.UpstreamTimeout)
	}
	return cfg, nil
}

func checkBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme %q in %q", key, u.Scheme, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host in %q", key, raw)
	}
	return nil
}
