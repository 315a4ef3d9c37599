package config

// DefaultConfigTemplate is written by `netxlog init`.
// DefaultConfigTemplate 由 `netxlog init` 写入。
const DefaultConfigTemplate = `# netxlog configuration
# netxlog 配置文件

# Logging of the collector itself (events go to sinks below).
# 采集器自身的日志（事件输出见下方 sinks）。
logging:
  enabled: false        # write to a rotated file instead of stdout / 写入轮转文件而不是标准输出
  level: info           # debug, info, warn, error / 日志级别
  path: /var/log/netxlog/netxlog.log
  max_size: 10          # MB before rotation / 轮转前的最大大小（MB）
  max_backups: 3
  max_age: 30           # days / 天
  compress: false

# Capture sources. Command line flags -s/-f/-n enable sources on top of this.
# 采集源。命令行参数 -s/-f/-n 会在此基础上启用采集源。
# Setting path tails that file instead of running the capture tool.
# 设置 path 后将跟踪该文件而不是运行采集工具。
sources:
  system:               # log stream --style ndjson --info
    enabled: false
    path: ""
    tail_position: end  # start or end / 从头或从尾开始读取
  filesystem:           # fs_usage -w -f filesys (requires root / 需要 root)
    enabled: false
    path: ""
    tail_position: end
  network:              # tcpdump -i en0 -l -n -v (requires root / 需要 root)
    enabled: false
    path: ""
    tail_position: end

collector:
  queue_size: 10000           # lines buffered between readers and parser / 读取器与解析器之间的缓冲行数
  kill_timeout: 5s            # SIGTERM to SIGKILL escalation / SIGTERM 升级为 SIGKILL 的等待时间
  drain_on_shutdown: true     # parse lines already queued when stopping / 停止时解析已排队的行
  log_dropped_lines: false    # log every line that failed to parse / 记录每一条解析失败的行
  pid_file: ""                # e.g. /var/run/netxlog.pid

# Event outputs. Each sink may set a filter expression evaluated per event,
# e.g. 'source == "network" && kind == "arp"'.
# 事件输出。每个输出可以设置逐事件求值的过滤表达式。
sinks:
  buffer_size: 1024
  send_timeout: 1s            # drop the event if a sink is slower than this / 输出慢于此时间则丢弃事件
  stdout:
    enabled: true
    filter: ""
  file:
    enabled: false
    filter: ""
    path: /var/log/netxlog/events.jsonl
    max_size: 100
    max_backups: 5
    max_age: 7
    compress: true
  syslog:
    enabled: false
    filter: ""
    network: udp              # udp or tcp
    address: 127.0.0.1:514
    app_name: netxlog
  metrics:
    enabled: false
    filter: ""
    server_enabled: true      # serve /metrics / 提供 /metrics 接口
    port: 11813
    push_enabled: false
    push_gateway_addr: ""
    push_interval: 1m
    textfile_enabled: false   # node_exporter textfile collector / node_exporter 文本文件采集
    textfile_path: ""
`
