package sink

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/metrics"
	"github.com/netxfw/netxlog/internal/utils/fileutil"
)

const (
	metricsExportInterval = 2 * time.Second
	metricsPushRetries    = 3
	metricsJob            = "netxlog"
)

// MetricsSink turns events into Prometheus series and exports the registry
// over HTTP, as a node_exporter textfile and to a PushGateway.
// MetricsSink 将事件转换为 Prometheus 指标，并通过 HTTP、textfile 和 PushGateway 导出。
type MetricsSink struct {
	config   config.MetricsSinkConfig
	fs       afero.Fs
	gatherer prometheus.Gatherer
	server   *http.Server
	log      *zap.SugaredLogger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewMetricsSink(cfg config.MetricsSinkConfig, fs afero.Fs, log *zap.SugaredLogger) *MetricsSink {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &MetricsSink{
		config:   cfg,
		fs:       fs,
		gatherer: prometheus.DefaultGatherer,
		log:      log,
		stop:     make(chan struct{}),
	}
}

func (p *MetricsSink) Name() string {
	return "metrics"
}

// Start launches the HTTP server and the export loop.
func (p *MetricsSink) Start() error {
	if p.config.ServerEnabled && p.config.Port > 0 {
		addr := fmt.Sprintf(":%d", p.config.Port)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		p.server = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			p.log.Infof("📊 Metrics HTTP server listening on %s", addr)
			if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				p.log.Errorf("❌ Metrics server error: %v", err)
			}
		}()
	}

	if p.config.TextfileEnabled || p.config.PushEnabled {
		p.wg.Add(1)
		go p.exportLoop()
	}
	return nil
}

func (p *MetricsSink) exportLoop() {
	defer p.wg.Done()

	pushInterval := p.config.PushIntervalDuration()
	ticker := time.NewTicker(metricsExportInterval)
	lastPush := time.Now()
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if p.config.TextfileEnabled && p.config.TextfilePath != "" {
				if err := p.writeTextFile(); err != nil {
					p.log.Errorf("❌ Failed to write metrics textfile: %v", err)
				}
			}
			if p.config.PushEnabled && time.Since(lastPush) >= pushInterval {
				if err := p.pushMetrics(); err != nil {
					p.log.Errorf("❌ Could not push to PushGateway: %v", err)
				}
				lastPush = time.Now()
			}
		}
	}
}

// Send records env in the event series.
func (p *MetricsSink) Send(_ context.Context, env *event.Envelope) error {
	metrics.EventsByKind.WithLabelValues(env.Source.String(), env.Event.Kind()).Inc()

	switch ev := env.Event.(type) {
	case event.FsEvent:
		metrics.FsDuration.WithLabelValues(ev.EventType).Observe(ev.Duration)
	case event.NetEvent:
		proto := "arp"
		if ip, ok := ev.Payload.(event.IpPayload); ok {
			proto = ip.Proto
			if proto == "" {
				proto = "unknown"
			}
		}
		if ev.Length > 0 {
			metrics.NetBytes.WithLabelValues(proto).Add(float64(ev.Length))
		}
	}
	return nil
}

// writeTextFile renders the registry in text exposition format and replaces
// the textfile atomically.
func (p *MetricsSink) writeTextFile() error {
	mfs, err := p.gatherer.Gather()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.Format("text/plain; version=0.0.4"))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return fileutil.AtomicWriteFile(p.fs, p.config.TextfilePath, buf.Bytes(), 0644)
}

func (p *MetricsSink) pushMetrics() error {
	if p.config.PushGatewayAddr == "" {
		return nil
	}

	p.log.Debugf("📤 Pushing metrics to %s", p.config.PushGatewayAddr)
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), metricsPushRetries)
	return backoff.Retry(func() error {
		return push.New(p.config.PushGatewayAddr, metricsJob).
			Gatherer(p.gatherer).
			Push()
	}, policy)
}

// Close stops exporting. The textfile gets one final write so it reflects
// every event seen.
func (p *MetricsSink) Close() error {
	var err error
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()

		if p.config.TextfileEnabled && p.config.TextfilePath != "" {
			err = p.writeTextFile()
		}
		if p.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if serr := p.server.Shutdown(ctx); serr != nil && err == nil {
				err = serr
			}
		}
	})
	return err
}
