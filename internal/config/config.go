package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/utils/logger"
	"github.com/netxfw/netxlog/pkg/errors"
)

// GlobalConfig is the root of the YAML configuration file.
// GlobalConfig 是 YAML 配置文件的根结构。
type GlobalConfig struct {
	Logging   logger.LoggingConfig `yaml:"logging"`
	Sources   SourcesConfig        `yaml:"sources"`
	Collector CollectorConfig      `yaml:"collector"`
	Sinks     SinksConfig          `yaml:"sinks"`
}

// SourceConfig controls one capture source.
// SourceConfig 控制单个采集源。
type SourceConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path: when set, tail this file instead of spawning the capture tool.
	// Path: 设置后跟踪该文件而不是启动采集工具。
	Path string `yaml:"path"`
	// TailPosition: "start" or "end" (default), only used with Path.
	TailPosition string `yaml:"tail_position"`
}

// FileBacked reports whether the source is read from a file.
func (s SourceConfig) FileBacked() bool {
	return s.Path != ""
}

type SourcesConfig struct {
	System     SourceConfig `yaml:"system"`
	Filesystem SourceConfig `yaml:"filesystem"`
	Network    SourceConfig `yaml:"network"`
}

// For returns the config block of src.
func (s *SourcesConfig) For(src event.Source) *SourceConfig {
	switch src {
	case event.Sys:
		return &s.System
	case event.Fs:
		return &s.Filesystem
	case event.Net:
		return &s.Network
	default:
		return nil
	}
}

// Enabled lists the enabled sources in stable order.
func (s *SourcesConfig) Enabled() []event.Source {
	var out []event.Source
	for _, src := range event.Sources {
		if s.For(src).Enabled {
			out = append(out, src)
		}
	}
	return out
}

// EnableFromFlags turns on the sources requested on the command line.
// Flags only add to what the file enables.
func (s *SourcesConfig) EnableFromFlags(system, filesystem, network bool) {
	s.System.Enabled = s.System.Enabled || system
	s.Filesystem.Enabled = s.Filesystem.Enabled || filesystem
	s.Network.Enabled = s.Network.Enabled || network
}

// CollectorConfig tunes the ingestion pipeline.
// CollectorConfig 调整采集流水线。
type CollectorConfig struct {
	QueueSize       int    `yaml:"queue_size"`
	KillTimeout     string `yaml:"kill_timeout"`
	DrainOnShutdown bool   `yaml:"drain_on_shutdown"`
	LogDroppedLines bool   `yaml:"log_dropped_lines"`
	PidFile         string `yaml:"pid_file"`
}

// KillTimeoutDuration parses KillTimeout, falling back to the default.
func (c CollectorConfig) KillTimeoutDuration() time.Duration {
	return parseDuration(c.KillTimeout, DefaultKillTimeout)
}

// SinksConfig selects where events go.
// SinksConfig 选择事件的输出位置。
type SinksConfig struct {
	BufferSize  int               `yaml:"buffer_size"`
	SendTimeout string            `yaml:"send_timeout"`
	Stdout      StdoutSinkConfig  `yaml:"stdout"`
	File        FileSinkConfig    `yaml:"file"`
	Syslog      SyslogSinkConfig  `yaml:"syslog"`
	Metrics     MetricsSinkConfig `yaml:"metrics"`
}

// SendTimeoutDuration parses SendTimeout, falling back to the default.
func (s SinksConfig) SendTimeoutDuration() time.Duration {
	return parseDuration(s.SendTimeout, DefaultSendTimeout)
}

type StdoutSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Filter  string `yaml:"filter"`
}

type FileSinkConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Filter     string `yaml:"filter"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

type SyslogSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Filter  string `yaml:"filter"`
	Network string `yaml:"network"`
	Address string `yaml:"address"`
	AppName string `yaml:"app_name"`
}

type MetricsSinkConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Filter          string `yaml:"filter"`
	ServerEnabled   bool   `yaml:"server_enabled"`
	Port            int    `yaml:"port"`
	PushEnabled     bool   `yaml:"push_enabled"`
	PushGatewayAddr string `yaml:"push_gateway_addr"`
	PushInterval    string `yaml:"push_interval"`
	TextfileEnabled bool   `yaml:"textfile_enabled"`
	TextfilePath    string `yaml:"textfile_path"`
}

// PushIntervalDuration parses PushInterval, falling back to the default.
func (m MetricsSinkConfig) PushIntervalDuration() time.Duration {
	return parseDuration(m.PushInterval, DefaultPushInterval)
}

func parseDuration(s, fallback string) time.Duration {
	if s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// Default returns the configuration used when no file exists.
// Default 返回没有配置文件时使用的配置。
func Default() *GlobalConfig {
	return &GlobalConfig{
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
		},
		Sources: SourcesConfig{
			System:     SourceConfig{TailPosition: "end"},
			Filesystem: SourceConfig{TailPosition: "end"},
			Network:    SourceConfig{TailPosition: "end"},
		},
		Collector: CollectorConfig{
			QueueSize:       DefaultQueueSize,
			KillTimeout:     DefaultKillTimeout,
			DrainOnShutdown: true,
		},
		Sinks: SinksConfig{
			BufferSize:  DefaultSinkBufferSize,
			SendTimeout: DefaultSendTimeout,
			Stdout:      StdoutSinkConfig{Enabled: true},
			File: FileSinkConfig{
				Path:       DefaultEventLogPath,
				MaxSize:    DefaultEventLogMaxSize,
				MaxBackups: 5,
				MaxAge:     7,
				Compress:   true,
			},
			Syslog: SyslogSinkConfig{
				Network: DefaultSyslogNetwork,
				Address: DefaultSyslogAddress,
				AppName: DefaultSyslogAppName,
			},
			Metrics: MetricsSinkConfig{
				ServerEnabled: true,
				Port:          DefaultMetricsPort,
				PushInterval:  DefaultPushInterval,
			},
		},
	}
}

// LoadGlobalConfig reads path from fsys over the defaults. A missing file is
// reported as ErrConfigNotFound together with the default config.
// LoadGlobalConfig 在默认值之上读取配置文件；文件不存在时返回默认配置和 ErrConfigNotFound。
func LoadGlobalConfig(fsys afero.Fs, path string) (*GlobalConfig, error) {
	cfg := Default()

	safePath := filepath.Clean(path)
	data, err := afero.ReadFile(fsys, safePath)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", errors.ErrConfigNotFound, safePath)
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrConfigInvalid, safePath, err)
	}
	return cfg, nil
}

// SaveGlobalConfig writes cfg as YAML.
func SaveGlobalConfig(fsys afero.Fs, path string, cfg *GlobalConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return writeFile(fsys, path, data)
}

// WriteDefaultConfig writes the commented default template. It refuses to
// overwrite an existing file unless force is set.
// WriteDefaultConfig 写入带注释的默认模板，除非 force 否则不覆盖已有文件。
func WriteDefaultConfig(fsys afero.Fs, path string, force bool) error {
	if !force {
		if exists, err := afero.Exists(fsys, path); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	return writeFile(fsys, path, []byte(DefaultConfigTemplate))
}

func writeFile(fsys afero.Fs, path string, data []byte) error {
	safePath := filepath.Clean(path)
	if err := fsys.MkdirAll(filepath.Dir(safePath), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, safePath, data, 0644)
}

// Validate checks field ranges and cross-field requirements.
// Validate 检查字段范围和字段间的依赖关系。
func (c *GlobalConfig) Validate() error {
	if c.Collector.QueueSize < 0 {
		return errors.NewConfigError("collector.queue_size", c.Collector.QueueSize)
	}
	if err := validDuration("collector.kill_timeout", c.Collector.KillTimeout); err != nil {
		return err
	}
	if err := validDuration("sinks.send_timeout", c.Sinks.SendTimeout); err != nil {
		return err
	}
	if c.Sinks.BufferSize < 0 {
		return errors.NewConfigError("sinks.buffer_size", c.Sinks.BufferSize)
	}

	for _, src := range event.Sources {
		sc := c.Sources.For(src)
		switch sc.TailPosition {
		case "", "start", "end":
		default:
			return errors.NewConfigError("sources."+src.String()+".tail_position", sc.TailPosition)
		}
	}

	s := c.Sinks
	if !s.Stdout.Enabled && !s.File.Enabled && !s.Syslog.Enabled && !s.Metrics.Enabled {
		return errors.NewConfigError("sinks", "no sink enabled")
	}
	if s.File.Enabled && s.File.Path == "" {
		return errors.NewConfigError("sinks.file.path", s.File.Path)
	}
	if s.Syslog.Enabled {
		if s.Syslog.Network != "udp" && s.Syslog.Network != "tcp" {
			return errors.NewConfigError("sinks.syslog.network", s.Syslog.Network)
		}
		if s.Syslog.Address == "" {
			return errors.NewConfigError("sinks.syslog.address", s.Syslog.Address)
		}
	}
	if s.Metrics.Enabled {
		if s.Metrics.Port < 0 || s.Metrics.Port > 65535 {
			return errors.NewConfigError("sinks.metrics.port", s.Metrics.Port)
		}
		if s.Metrics.PushEnabled && s.Metrics.PushGatewayAddr == "" {
			return errors.NewConfigError("sinks.metrics.push_gateway_addr", s.Metrics.PushGatewayAddr)
		}
		if s.Metrics.TextfileEnabled && s.Metrics.TextfilePath == "" {
			return errors.NewConfigError("sinks.metrics.textfile_path", s.Metrics.TextfilePath)
		}
		if err := validDuration("sinks.metrics.push_interval", s.Metrics.PushInterval); err != nil {
			return err
		}
	}
	return nil
}

func validDuration(field, value string) error {
	if value == "" {
		return nil
	}
	if d, err := time.ParseDuration(value); err != nil || d <= 0 {
		return errors.NewConfigError(field, value)
	}
	return nil
}
