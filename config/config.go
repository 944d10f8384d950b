package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults applied by LoadConfig for fields left unset.
const (
	DefaultEntrypointURL      = "https://api.mainnet-beta.solana.com"
	DefaultOutputFile         = "output/validated_hosts.json"
	DefaultProbeTimeout       = 5000             // milliseconds
	DefaultGossipMaxBuffer    = 10 * 1024 * 1024 // bytes
	DefaultMaxConcurrentTests = 25
	DefaultLogLevel           = "info"
	DefaultEtcdKey            = "/solana/validated-rpc-hosts"
	DefaultEtcdDialTimeout    = 5000 // milliseconds

	// DefaultTestAccount is a token account with a long-lived balance. Probes
	// only check that the query answers, so any readable token account works.
	DefaultTestAccount = "3emsAVdmGKERbHjmGfQ6oZ1e35dkf5iYcS6U4CPKFVaa"
)

// Config represents the application configuration
type Config struct {
	EntrypointURL      string     `toml:"entrypoint_url"`       // Cluster entrypoint passed to `solana gossip --url`
	OutputFile         string     `toml:"output_file"`          // Destination file for the validated host list
	ProbeTimeout       int        `toml:"probe_timeout"`        // Per-probe timeout in milliseconds
	GossipMaxBuffer    int        `toml:"gossip_max_buffer"`    // Byte cap on the gossip snapshot stdout
	MaxConcurrentTests int        `toml:"max_concurrent_tests"` // Probes in flight per batch
	TestAccount        string     `toml:"test_account"`         // Token account queried by each probe
	LogLevel           string     `toml:"log_level"`            // Log level: debug, info, warn, error
	Etcd               EtcdConfig `toml:"etcd"`                 // Optional etcd publishing
}

// EtcdConfig controls publishing the validated list to etcd.
type EtcdConfig struct {
	Enabled     bool     `toml:"enabled"`      // Publish the validated list after writing the file
	Endpoints   []string `toml:"endpoints"`    // etcd cluster endpoints
	Key         string   `toml:"key"`          // Key the host list is written under
	DialTimeout int      `toml:"dial_timeout"` // Dial and request timeout in milliseconds
}

// LoadConfig loads configuration from the specified TOML file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.toml"
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults for optional fields
	if cfg.EntrypointURL == "" {
		cfg.EntrypointURL = DefaultEntrypointURL
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.GossipMaxBuffer == 0 {
		cfg.GossipMaxBuffer = DefaultGossipMaxBuffer
	}
	if cfg.MaxConcurrentTests == 0 {
		cfg.MaxConcurrentTests = DefaultMaxConcurrentTests
	}
	if cfg.TestAccount == "" {
		cfg.TestAccount = DefaultTestAccount
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Etcd.Key == "" {
		cfg.Etcd.Key = DefaultEtcdKey
	}
	if cfg.Etcd.DialTimeout == 0 {
		cfg.Etcd.DialTimeout = DefaultEtcdDialTimeout
	}

	// Validate fields
	if cfg.ProbeTimeout < 0 {
		return nil, fmt.Errorf("probe_timeout must be positive, got %d", cfg.ProbeTimeout)
	}
	if cfg.GossipMaxBuffer < 0 {
		return nil, fmt.Errorf("gossip_max_buffer must be positive, got %d", cfg.GossipMaxBuffer)
	}
	if cfg.MaxConcurrentTests < 0 {
		return nil, fmt.Errorf("max_concurrent_tests must be positive, got %d", cfg.MaxConcurrentTests)
	}
	if cfg.Etcd.Enabled && len(cfg.Etcd.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd.endpoints is required when etcd publishing is enabled")
	}

	return &cfg, nil
}

// SetupLogger configures the logger based on config
func SetupLogger(cfg *Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'info'", cfg.LogLevel)
		level = log.InfoLevel
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	logDir := "./logs"
	os.MkdirAll(logDir, 0755)

	// Use lumberjack for log rotation, and keep stdout for interactive runs
	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "validator.log"),
		MaxSize:    100,  // Max size in MB per log file
		MaxBackups: 7,    // Keep 7 recent backups
		MaxAge:     30,   // Keep logs for 30 days
		Compress:   true, // Compress old logs
	}
	log.SetOutput(io.MultiWriter(os.Stdout, fileLogger))
}
