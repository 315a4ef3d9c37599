package logger

// LoggingConfig controls the collector's own diagnostics, not the event stream.
// LoggingConfig 控制采集器自身的诊断日志，而不是事件流。
type LoggingConfig struct {
	// Enabled: write to Path through a rotating file instead of stderr
	// Enabled: 是否写入轮转文件（否则写入 stderr）
	Enabled bool `yaml:"enabled"`
	// Level: debug, info, warn, error
	// Level: 日志级别
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
	// MaxSize: 轮转前的最大大小（MB）
	MaxSize int `yaml:"max_size"`
	// MaxBackups: 保留的旧文件最大数量
	MaxBackups int `yaml:"max_backups"`
	// MaxAge: 保留旧文件的最大天数
	MaxAge   int  `yaml:"max_age"`
	Compress bool `yaml:"compress"`
}
