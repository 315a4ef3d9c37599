package config

const (
	// DefaultConfigPath is the standard location for the netxlog configuration file.
	// DefaultConfigPath 是 netxlog 配置文件的标准位置。
	DefaultConfigPath = "/etc/netxlog/config.yaml"

	// DefaultPidPath is the location of the collector PID file when enabled.
	// DefaultPidPath 是启用时采集器 PID 文件的位置。
	DefaultPidPath = "/var/run/netxlog.pid"

	// Collector defaults
	DefaultQueueSize   = 10000
	DefaultKillTimeout = "5s"

	// Sink defaults
	DefaultSinkBufferSize  = 1024
	DefaultSendTimeout     = "1s"
	DefaultMetricsPort     = 11813
	DefaultPushInterval    = "1m"
	DefaultSyslogNetwork   = "udp"
	DefaultSyslogAddress   = "127.0.0.1:514"
	DefaultSyslogAppName   = "netxlog"
	DefaultEventLogPath    = "/var/log/netxlog/events.jsonl"
	DefaultEventLogMaxSize = 100
)
