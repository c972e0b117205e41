package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/loykin/docserve/internal/lifecycle"
	"github.com/loykin/docserve/internal/logger"
	"github.com/spf13/viper"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Env      []string       `toml:"env" mapstructure:"env"`
	EnvFiles []string       `toml:"env_files" mapstructure:"env_files"`
	UseOSEnv bool           `toml:"use_os_env" mapstructure:"use_os_env"`
	Service  ServiceConfig  `toml:"service" mapstructure:"service"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Cache    CacheConfig    `toml:"cache" mapstructure:"cache"`
	Metrics  MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
	Log      *logger.Config `toml:"log" mapstructure:"log"`
}

// ServiceConfig describes the wrapped parsing service and its lifecycle.
type ServiceConfig struct {
	Command   string        `toml:"command" mapstructure:"command"`
	Args      []string      `toml:"args" mapstructure:"args"`
	WorkDir   string        `toml:"workdir" mapstructure:"workdir"`
	Host      string        `toml:"host" mapstructure:"host"`
	Port      int           `toml:"port" mapstructure:"port"`
	PIDFile   string        `toml:"pidfile" mapstructure:"pidfile"`
	Check     string        `toml:"health_check" mapstructure:"health_check"`
	OutputDir string        `toml:"output_dir" mapstructure:"output_dir"`
	StartWait time.Duration `toml:"start_wait" mapstructure:"start_wait"`
	StopWait  time.Duration `toml:"stop_wait" mapstructure:"stop_wait"`
}

// ServerConfig describes the HTTP API surface docserve itself exposes.
type ServerConfig struct {
	Listen      string `toml:"listen" mapstructure:"listen"`
	Workers     int    `toml:"workers" mapstructure:"workers"`
	MaxUploadMB int    `toml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// CacheConfig selects the parse-result cache backend.
type CacheConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Driver  string `toml:"driver" mapstructure:"driver"`
	DSN     string `toml:"dsn" mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`
}

const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8000
	DefaultListen      = ":9200"
	DefaultWorkers     = 2
	DefaultMaxUploadMB = 64
	DefaultOutputDir   = "output"
)

// Load reads the TOML file at path and fills in defaults for everything the
// file leaves out.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	fc.applyDefaults()
	if err := fc.validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// Default returns a FileConfig with every default applied and no service
// command, usable when no config file is given.
func Default() *FileConfig {
	fc := &FileConfig{}
	fc.applyDefaults()
	return fc
}

func (fc *FileConfig) applyDefaults() {
	if fc.Service.Host == "" {
		fc.Service.Host = DefaultHost
	}
	if fc.Service.Port == 0 {
		fc.Service.Port = DefaultPort
	}
	if fc.Service.OutputDir == "" {
		fc.Service.OutputDir = DefaultOutputDir
	}
	if fc.Service.StartWait <= 0 {
		fc.Service.StartWait = lifecycle.DefaultStartWait
	}
	if fc.Service.StopWait <= 0 {
		fc.Service.StopWait = lifecycle.DefaultStopWait
	}
	if fc.Server.Listen == "" {
		fc.Server.Listen = DefaultListen
	}
	if fc.Server.Workers <= 0 {
		fc.Server.Workers = DefaultWorkers
	}
	if fc.Server.MaxUploadMB <= 0 {
		fc.Server.MaxUploadMB = DefaultMaxUploadMB
	}
	if fc.Cache.Driver == "" {
		fc.Cache.Driver = "sqlite"
	}
	if fc.Log == nil {
		fc.Log = &logger.Config{}
	}
	if fc.Log.Level == "" {
		fc.Log.Level = "info"
	}
}

func (fc *FileConfig) validate() error {
	if fc.Service.Port <= 0 || fc.Service.Port > 65535 {
		return fmt.Errorf("service port %d out of range", fc.Service.Port)
	}
	switch fc.Cache.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown cache driver %q", fc.Cache.Driver)
	}
	return nil
}

// Controller builds the lifecycle configuration for the wrapped service.
func (fc *FileConfig) Controller() lifecycle.Config {
	cfg := lifecycle.Config{
		Command:   fc.Service.Command,
		Args:      fc.Service.Args,
		WorkDir:   fc.Service.WorkDir,
		Port:      fc.Service.Port,
		PIDFile:   fc.Service.PIDFile,
		Check:     fc.Service.Check,
		OutputDir: fc.Service.OutputDir,
		StartWait: fc.Service.StartWait,
		StopWait:  fc.Service.StopWait,
	}
	if env, err := fc.GlobalEnv(); err == nil {
		cfg.Env = env
	}
	if fc.Log != nil {
		cfg.Log = *fc.Log
	}
	return cfg
}

// ServiceURL is the base URL of the wrapped service as seen from docserve.
func (fc *FileConfig) ServiceURL() string {
	return fmt.Sprintf("http://%s:%d", fc.Service.Host, fc.Service.Port)
}

// GlobalEnv merges environment for the wrapped service. Precedence: OS env
// (when use_os_env) as base, then env_files in order, then the top-level env
// list overrides last.
func (fc *FileConfig) GlobalEnv() ([]string, error) {
	m := make(map[string]string)
	if fc.UseOSEnv {
		for _, kv := range os.Environ() {
			if i := strings.IndexByte(kv, '='); i >= 0 {
				m[kv[:i]] = kv[i+1:]
			}
		}
	}
	for _, p := range fc.EnvFiles {
		pairs, err := godotenv.Read(filepath.Clean(p))
		if err != nil {
			return nil, fmt.Errorf("env file %s: %w", p, err)
		}
		for k, v := range pairs {
			m[k] = v
		}
	}
	for _, kv := range fc.Env {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out, nil
}
