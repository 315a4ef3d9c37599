package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/crewjam/rfc5424"
	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
)

const (
	syslogDialTimeout = 3 * time.Second
	syslogDialRetries = 5
	// 32473 is the documentation enterprise number from RFC 5612.
	syslogSDID = "netxlog@32473"
)

// SyslogSink sends each event as an RFC 5424 message (https://tools.ietf.org/html/rfc5424).
// TCP connections use octet-counting framing.
// SyslogSink 将每个事件作为 RFC 5424 消息发送；TCP 连接使用八位字节计数分帧。
type SyslogSink struct {
	network  string
	address  string
	appName  string
	hostname string
	pid      string

	mu   sync.Mutex
	conn net.Conn
	ctx  context.Context
	log  *zap.SugaredLogger
}

// NewSyslogSink dials the collector, retrying with exponential backoff.
func NewSyslogSink(ctx context.Context, cfg config.SyslogSinkConfig, log *zap.SugaredLogger) (*SyslogSink, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "-"
	}
	appName := cfg.AppName
	if appName == "" {
		appName = config.DefaultSyslogAppName
	}
	s := &SyslogSink{
		network:  cfg.Network,
		address:  cfg.Address,
		appName:  appName,
		hostname: hostname,
		pid:      strconv.Itoa(os.Getpid()),
		ctx:      ctx,
		log:      log,
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	log.Infof("📡 Syslog sink connected to %s/%s", s.network, s.address)
	return s, nil
}

func (s *SyslogSink) connect() error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), syslogDialRetries),
		s.ctx,
	)
	return backoff.Retry(func() error {
		conn, err := net.DialTimeout(s.network, s.address, syslogDialTimeout)
		if err != nil {
			s.log.Warnf("⚠️  Syslog dial %s/%s failed: %v", s.network, s.address, err)
			return err
		}
		s.conn = conn
		return nil
	}, policy)
}

func (s *SyslogSink) Name() string {
	return "syslog"
}

// Send writes env. A write failure drops the connection; the next Send redials.
func (s *SyslogSink) Send(_ context.Context, env *event.Envelope) error {
	msg, err := s.message(env)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	frame := buf.Bytes()
	if s.network != "udp" {
		frame = append([]byte(strconv.Itoa(len(frame))+" "), frame...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		if err := s.connect(); err != nil {
			return err
		}
	}
	if _, err := s.conn.Write(frame); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("syslog write: %w", err)
	}
	return nil
}

func (s *SyslogSink) message(env *event.Envelope) (rfc5424.Message, error) {
	body, err := json.Marshal(env.Event)
	if err != nil {
		return rfc5424.Message{}, err
	}
	return rfc5424.Message{
		Priority:  rfc5424.Daemon | rfc5424.Info,
		Timestamp: env.ReceivedAt,
		Hostname:  s.hostname,
		AppName:   s.appName,
		ProcessID: s.pid,
		MessageID: env.Event.Kind(),
		StructuredData: []rfc5424.StructuredData{
			{
				ID:         syslogSDID,
				Parameters: sdParams(env.Fields()),
			},
		},
		Message: body,
	}, nil
}

// sdParams renders flat fields as SD-PARAMs in key order. Nested values are
// JSON encoded; the raw system payload is already the message body.
func sdParams(fields map[string]any) []rfc5424.SDParam {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "value" || !validParamName(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]rfc5424.SDParam, 0, len(keys))
	for _, k := range keys {
		params = append(params, rfc5424.SDParam{Name: k, Value: paramValue(fields[k])})
	}
	return params
}

func validParamName(name string) bool {
	if name == "" || len(name) > 32 {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r > '~' || r == '=' || r == ']' || r == '"' {
			return false
		}
	}
	return true
}

func paramValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, " ")
	case int, int32, int64, float64, bool, json.Number:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func (s *SyslogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
