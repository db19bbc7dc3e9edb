package metrics

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/netxfw/rna/internal/utils/fileutil"
	"github.com/netxfw/rna/pkg/sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

const namespace = "rna"

// Collector exposes inspector pegs and engine state as prometheus metrics.
// Each Collector owns its own registry so several engines can coexist in one process.
// Collector 将检查器计数器和引擎状态暴露为 prometheus 指标。
// 每个 Collector 拥有自己的注册表，因此一个进程中可以共存多个引擎。
type Collector struct {
	reg *prometheus.Registry

	pegs        *prometheus.CounterVec
	evalChecks  *prometheus.CounterVec
	evalSeconds *prometheus.CounterVec
	reloads     *prometheus.CounterVec
	workers     prometheus.Gauge
	dispatched  prometheus.Counter
	filtered    prometheus.Counter
}

// NewCollector creates a collector with every metric registered.
// NewCollector 创建一个注册了所有指标的收集器。
func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		pegs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inspector_pegs_total",
				Help:      "Inspector peg counters folded in from detached worker threads",
			},
			[]string{"inspector", "peg"},
		),
		evalChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inspector_eval_checks_total",
				Help:      "Number of Eval calls per inspector",
			},
			[]string{"inspector"},
		),
		evalSeconds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inspector_eval_seconds_total",
				Help:      "Time spent inside Eval per inspector",
			},
			[]string{"inspector"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Directive file reloads by result",
			},
			[]string{"inspector", "result"},
		),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_workers",
			Help:      "Number of running engine workers",
		}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_packets_dispatched_total",
			Help:      "Packets handed to worker queues",
		}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_packets_filtered_total",
			Help:      "Packets rejected by the eligibility filter",
		}),
	}

	c.reg.MustRegister(c.pegs, c.evalChecks, c.evalSeconds, c.reloads, c.workers, c.dispatched, c.filtered)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// AddPegs adds per-peg deltas. pegs and deltas are in the same order; extra entries are ignored.
// AddPegs 添加每个计数器的增量。pegs 与 deltas 顺序相同；多余条目被忽略。
func (c *Collector) AddPegs(inspector string, pegs []sdk.PegInfo, deltas []uint64) {
	n := len(pegs)
	if len(deltas) < n {
		n = len(deltas)
	}
	for i := 0; i < n; i++ {
		if deltas[i] == 0 {
			continue
		}
		c.pegs.WithLabelValues(inspector, pegs[i].Name).Add(float64(deltas[i]))
	}
}

// Peg returns the counter of one inspector peg.
// Peg 返回一个检查器计数器。
func (c *Collector) Peg(inspector, peg string) prometheus.Counter {
	return c.pegs.WithLabelValues(inspector, peg)
}

// AddProfile adds one thread's Eval timing.
// AddProfile 添加一个线程的 Eval 计时。
func (c *Collector) AddProfile(inspector string, p sdk.ProfileStats) {
	c.evalChecks.WithLabelValues(inspector).Add(float64(p.Checks))
	c.evalSeconds.WithLabelValues(inspector).Add(p.Elapsed.Seconds())
}

// ObserveReload counts one reload attempt.
// ObserveReload 统计一次重新加载尝试。
func (c *Collector) ObserveReload(inspector string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.reloads.WithLabelValues(inspector, result).Inc()
}

func (c *Collector) SetWorkers(n int) { c.workers.Set(float64(n)) }

func (c *Collector) IncDispatched() { c.dispatched.Inc() }

func (c *Collector) IncFiltered() { c.filtered.Inc() }

// Handler serves the collector's registry in the prometheus exposition format.
// Handler 以 prometheus 暴露格式提供收集器的注册表。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes every metric to path for the node_exporter textfile collector.
// The file is replaced atomically.
// WriteTextfile 将所有指标写入 path，供 node_exporter 文本文件收集器使用。文件被原子替换。
func (c *Collector) WriteTextfile(path string) error {
	mfs, err := c.reg.Gather()
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
	return fileutil.AtomicWriteFile(path, buf.Bytes(), 0644)
}

// Push sends every metric to a PushGateway under the given job name.
// Push 以给定作业名将所有指标发送到 PushGateway。
func (c *Collector) Push(addr, job string) error {
	return push.New(addr, job).Gatherer(c.reg).Push()
}

// Server is a running /metrics endpoint.
// Server 是一个正在运行的 /metrics 端点。
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Serve binds addr and serves /metrics in the background.
// Serve 绑定 addr 并在后台提供 /metrics。
func (c *Collector) Serve(addr string, log sdk.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln: ln,
	}

	go func() {
		if log != nil {
			log.Infof("Metrics server listening on %s", ln.Addr())
		}
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
			log.Errorf("Metrics server error: %v", err)
		}
	}()
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Shutdown stops the server, waiting for in-flight scrapes until ctx is done.
// Shutdown 停止服务器，等待进行中的抓取直到 ctx 结束。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
