package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/netxfw/rna/internal/metrics"
	"github.com/netxfw/rna/internal/plugins"
	"github.com/netxfw/rna/internal/plugins/rna"
	"github.com/netxfw/rna/internal/plugins/types"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// pushJob is the PushGateway job name.
const pushJob = "rna"

// Options configures a Manager.
// Options 配置 Manager。
type Options struct {
	Config *types.GlobalConfig
	// Registry defaults to plugins.Default().
	Registry *plugins.Registry
	// Collector defaults to a fresh metrics.Collector.
	Collector *metrics.Collector
	// Bus, if set, receives reload and worker events.
	Bus    sdk.EventBus
	Logger *zap.SugaredLogger
}

// instance is one inspector built from a registry descriptor.
type instance struct {
	name    string
	api     *sdk.InspectApi
	mod     sdk.Module
	ins     sdk.Inspector
	watcher *rna.Watcher
}

type worker struct {
	id    int
	queue chan *sdk.Packet
	// ctxs holds one thread context per instance, in instance order.
	ctxs []*sdk.ThreadContext
}

// Manager hosts the inspectors: it builds them from the registry, runs the worker
// threads that call Eval, folds per-thread stats on detach and tears everything down.
// Manager 托管检查器：从注册表构建检查器，运行调用 Eval 的工作线程，
// 在分离时合并线程统计，并负责全部销毁。
type Manager struct {
	cfg       *types.GlobalConfig
	reg       *plugins.Registry
	collector *metrics.Collector
	bus       sdk.EventBus
	log       *zap.SugaredLogger
	filter    *Filter

	instances []*instance
	foldMu    sync.Mutex

	mu      sync.RWMutex
	running bool
	started bool
	closed  bool
	workers []*worker
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	server  *metrics.Server
}

// NewManager builds every enabled inspector. Process-wide init hooks run first.
// NewManager 构建所有已启用的检查器。进程级初始化钩子先运行。
func NewManager(opts Options) (*Manager, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = types.DefaultGlobalConfig()
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		reg:       opts.Registry,
		collector: opts.Collector,
		bus:       opts.Bus,
		log:       opts.Logger,
	}
	if m.reg == nil {
		m.reg = plugins.Default()
	}
	if m.collector == nil {
		m.collector = metrics.NewCollector()
	}
	if m.log == nil {
		m.log = zap.NewNop().Sugar()
	}

	filter, err := NewFilter(cfg.Engine.Filter)
	if err != nil {
		return nil, err
	}
	m.filter = filter

	m.reg.InitAll()
	for _, name := range m.reg.Names() {
		if !inspectorEnabled(name, cfg) {
			m.log.Debugf("Inspector %s is disabled", name)
			continue
		}
		inst, err := m.build(name)
		if err != nil {
			return nil, multierr.Append(err, m.teardown())
		}
		m.instances = append(m.instances, inst)
	}
	return m, nil
}

func inspectorEnabled(name string, cfg *types.GlobalConfig) bool {
	switch name {
	case rna.RnaName:
		return cfg.Rna.Enabled
	default:
		return true
	}
}

// build runs module ctor, host settings, then inspector ctor.
func (m *Manager) build(name string) (*instance, error) {
	api, err := m.reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	mod := api.Base.ModCtor()
	if rm, ok := mod.(*rna.Module); ok {
		if err := rm.SetFromConfig(m.cfg.Rna); err != nil {
			if api.Base.ModDtor != nil {
				api.Base.ModDtor(mod)
			}
			return nil, err
		}
	}

	ins := api.Ctor(mod, m.log.Named(name))
	m.log.Infof("Inspector %s built (%s, proto bits %#x)", name, api.Type, uint16(api.ProtoBits))
	return &instance{name: name, api: api, mod: mod, ins: ins}, nil
}

// Start launches the workers and, when configured, the metrics server and file watchers.
// Start 启动工作线程，并在配置时启动指标服务器和文件监视器。
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return rnaerrors.ErrEngineClosed
	}
	if m.started {
		return fmt.Errorf("engine already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if mc := m.cfg.Metrics; mc.Enabled && mc.Listen != "" {
		srv, err := m.collector.Serve(mc.Listen, m.log)
		if err != nil {
			cancel()
			return err
		}
		m.server = srv
	}

	if err := m.startWatchers(runCtx); err != nil {
		cancel()
		return err
	}

	n := m.cfg.Engine.Workers
	m.workers = make([]*worker, n)
	for id := 0; id < n; id++ {
		w := &worker{
			id:    id,
			queue: make(chan *sdk.Packet, m.cfg.Engine.QueueSize),
			ctxs:  make([]*sdk.ThreadContext, len(m.instances)),
		}
		for i := range m.instances {
			w.ctxs[i] = sdk.NewThreadContext(id, m.log.With("worker", id))
		}
		m.workers[id] = w
		m.wg.Add(1)
		go m.runWorker(w)
	}

	m.collector.SetWorkers(n)
	m.started = true
	m.running = true
	m.log.Infof("Engine started with %d workers and %d inspectors", n, len(m.instances))
	return nil
}

func (m *Manager) startWatchers(ctx context.Context) error {
	if !m.cfg.Rna.Watch {
		return nil
	}
	for _, inst := range m.instances {
		reloader, ok := inst.ins.(sdk.Reloader)
		if !ok || inst.name != rna.RnaName {
			continue
		}
		w, err := rna.NewWatcher(m.cfg.Rna.RnaConfPath, reloader, m.log.Named(inst.name))
		if err != nil {
			return err
		}
		name := inst.name
		w.OnReload = func(err error) {
			m.collector.ObserveReload(name, err)
			if m.bus != nil {
				m.bus.Publish(sdk.NewEvent(sdk.EventTypeConfigReload, name, err))
			}
		}
		inst.watcher = w
		go w.Run(ctx)
	}
	return nil
}

// runWorker attaches to every inspector, evaluates queued packets and detaches
// once the queue is closed.
func (m *Manager) runWorker(w *worker) {
	defer m.wg.Done()

	for i, inst := range m.instances {
		inst.ins.TInit(w.ctxs[i])
	}

	for p := range w.queue {
		for i, inst := range m.instances {
			if !inst.api.ProtoBits.Matches(p.ProtoBits) {
				continue
			}
			inst.ins.Eval(w.ctxs[i], p)
		}
	}

	for i, inst := range m.instances {
		inst.ins.TTerm(w.ctxs[i])
		m.fold(inst, w.ctxs[i])
	}

	if m.bus != nil {
		m.bus.Publish(sdk.NewEvent(sdk.EventTypeWorkerStopped, "engine", w.id))
	}
}

// fold merges a detached thread's stats into the module and the metrics.
func (m *Manager) fold(inst *instance, tc *sdk.ThreadContext) {
	m.foldMu.Lock()
	defer m.foldMu.Unlock()

	before := inst.mod.Counts()
	inst.mod.AddStats(tc)
	after := inst.mod.Counts()

	deltas := make([]uint64, len(after))
	for i := range after {
		if i < len(before) {
			deltas[i] = after[i] - before[i]
		} else {
			deltas[i] = after[i]
		}
	}
	m.collector.AddPegs(inst.name, inst.mod.Pegs(), deltas)
	m.collector.AddProfile(inst.name, tc.Profile)
}

// Dispatch queues p on the worker owning its flow. It blocks while that queue is full.
// Dispatch 将 p 放入拥有其流的工作线程队列。队列已满时阻塞。
func (m *Manager) Dispatch(ctx context.Context, p *sdk.Packet) error {
	_, err := m.dispatch(ctx, p)
	return err
}

// dispatch reports whether p passed the filter and was queued.
func (m *Manager) dispatch(ctx context.Context, p *sdk.Packet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.running {
		return false, rnaerrors.ErrEngineClosed
	}
	if !m.filter.Match(p) {
		m.collector.IncFiltered()
		return false, nil
	}

	w := m.workers[p.FlowHash()%uint32(len(m.workers))]
	select {
	case w.queue <- p:
		m.collector.IncDispatched()
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Stop drains the queues and waits for every worker to detach.
// Stop 排空队列并等待所有工作线程分离。
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	for _, w := range m.workers {
		close(w.queue)
	}
	m.mu.Unlock()

	m.wg.Wait()

	if m.cancel != nil {
		m.cancel()
	}
	for _, inst := range m.instances {
		if inst.watcher != nil {
			if err := inst.watcher.Close(); err != nil {
				m.log.Warnf("Failed to close watcher of %s: %v", inst.name, err)
			}
			inst.watcher = nil
		}
	}
	m.collector.SetWorkers(0)
	m.log.Infof("Engine stopped")
}

// Close stops the engine, destroys every inspector and module, runs the process-wide
// term hooks and exports the final metrics. Calling it again is a no-op.
// Close 停止引擎，销毁所有检查器和模块，运行进程级终止钩子并导出最终指标。重复调用无效果。
func (m *Manager) Close() error {
	m.Stop()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	errs := m.exportMetrics()
	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = multierr.Append(errs, m.server.Shutdown(ctx))
		cancel()
		m.server = nil
	}
	return multierr.Append(errs, m.teardown())
}

func (m *Manager) exportMetrics() error {
	mc := m.cfg.Metrics
	if !mc.Enabled {
		return nil
	}

	var errs error
	if mc.TextfilePath != "" {
		if err := m.collector.WriteTextfile(mc.TextfilePath); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}
	if mc.PushGatewayAddr != "" {
		if err := m.collector.Push(mc.PushGatewayAddr, pushJob); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}
	return errs
}

// teardown runs dtors in reverse build order, then the registry term hooks.
func (m *Manager) teardown() error {
	for i := len(m.instances) - 1; i >= 0; i-- {
		inst := m.instances[i]
		if inst.api.Dtor != nil {
			inst.api.Dtor(inst.ins)
		} else if err := inst.ins.Close(); err != nil {
			m.log.Warnf("Failed to close inspector %s: %v", inst.name, err)
		}
		if inst.api.Base.ModDtor != nil {
			inst.api.Base.ModDtor(inst.mod)
		}
	}
	m.instances = nil
	return m.reg.TermAll()
}

// InspectorStats is a snapshot of one inspector's aggregated counters.
// InspectorStats 是一个检查器聚合计数器的快照。
type InspectorStats struct {
	Name    string
	Pegs    []sdk.PegInfo
	Counts  []uint64
	Profile sdk.ProfileStats
}

type profiler interface {
	Profile() sdk.ProfileStats
}

// Stats returns the module totals. Threads still attached are not included.
// Stats 返回模块总计。不包括仍然附加的线程。
func (m *Manager) Stats() []InspectorStats {
	out := make([]InspectorStats, 0, len(m.instances))
	for _, inst := range m.instances {
		st := InspectorStats{
			Name:   inst.name,
			Pegs:   inst.mod.Pegs(),
			Counts: inst.mod.Counts(),
		}
		if p, ok := inst.mod.(profiler); ok {
			st.Profile = p.Profile()
		}
		out = append(out, st)
	}
	return out
}

// Inspector returns the inspector built under name.
// Inspector 返回以 name 构建的检查器。
func (m *Manager) Inspector(name string) (sdk.Inspector, bool) {
	for _, inst := range m.instances {
		if inst.name == name {
			return inst.ins, true
		}
	}
	return nil, false
}

// Show writes the Show output of every inspector in build order, followed by a
// health line for inspectors that report one.
// Show 按构建顺序输出每个检查器的 Show 内容，并为报告健康状态的检查器追加一行健康信息。
func (m *Manager) Show(w io.Writer) {
	for _, inst := range m.instances {
		inst.ins.Show(w)
		if hc, ok := inst.ins.(sdk.HealthChecker); ok {
			fmt.Fprintf(w, "%s health: %s\n", inst.name, hc.CheckHealth())
		}
	}
}

// InspectorHealth pairs an inspector with the health it reports.
type InspectorHealth struct {
	Name   string
	Health sdk.Health
}

// Health collects CheckHealth from every inspector implementing sdk.HealthChecker.
// Health 收集每个实现 sdk.HealthChecker 的检查器的 CheckHealth 结果。
func (m *Manager) Health() []InspectorHealth {
	var out []InspectorHealth
	for _, inst := range m.instances {
		if hc, ok := inst.ins.(sdk.HealthChecker); ok {
			out = append(out, InspectorHealth{Name: inst.name, Health: hc.CheckHealth()})
		}
	}
	return out
}

// Collector returns the metrics collector.
func (m *Manager) Collector() *metrics.Collector { return m.collector }
