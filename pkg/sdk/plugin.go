package sdk

import (
	"io"
)

// Logger defines the logging interface for inspectors.
// It abstracts the underlying logging implementation; *zap.SugaredLogger satisfies it.
// Logger 为检查器定义日志接口。
// 它抽象了底层的日志实现；*zap.SugaredLogger 满足该接口。
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// PluginType identifies what kind of plugin a descriptor describes.
// PluginType 标识描述符所描述的插件类型。
type PluginType string

const (
	PluginTypeInspector PluginType = "inspector"
)

// InspectorType is the capability class of an inspector.
// InspectorType 是检查器的能力类别。
type InspectorType uint8

const (
	// ITBinder, ITWizard, ITPacket, ITNetwork, ITService and ITControl mirror the
	// processing stages of the host pipeline.
	ITBinder InspectorType = iota
	ITWizard
	ITPacket
	ITNetwork
	ITService
	ITControl
)

func (t InspectorType) String() string {
	switch t {
	case ITBinder:
		return "binder"
	case ITWizard:
		return "wizard"
	case ITPacket:
		return "packet"
	case ITNetwork:
		return "network"
	case ITService:
		return "service"
	case ITControl:
		return "control"
	}
	return "unknown"
}

// ProtoBits selects which decoded protocols an inspector is applicable to.
// ProtoBits 选择检查器适用的已解码协议。
type ProtoBits uint16

const (
	ProtoBitIP ProtoBits = 1 << iota
	ProtoBitICMP
	ProtoBitTCP
	ProtoBitUDP
	ProtoBitPDU
	ProtoBitFile

	ProtoBitAnyIP  = ProtoBitIP | ProtoBitICMP | ProtoBitTCP | ProtoBitUDP
	ProtoBitAnyPDU = ProtoBitTCP | ProtoBitUDP | ProtoBitPDU
)

// Matches reports whether a packet carrying the given bits is applicable.
func (b ProtoBits) Matches(pkt ProtoBits) bool {
	return b&pkt != 0
}

// Parameter describes one host-facing configuration setting of a module.
// Parameter 描述模块面向宿主的一项配置。
type Parameter struct {
	Name    string
	Help    string
	Default string
}

// PegInfo names one statistics counter exported by a module.
// PegInfo 命名模块导出的一个统计计数器。
type PegInfo struct {
	Name string
	Help string
}

// Module is the host-side configuration object of a plugin.
// The host creates it, applies user settings through Set, and hands it to the inspector constructor.
// Module 是插件在宿主侧的配置对象。
// 宿主创建它，通过 Set 应用用户设置，并将其交给检查器构造函数。
type Module interface {
	// Name returns the unique identifier of the module.
	// Name 返回模块的唯一标识符。
	Name() string

	// Help returns a one-line description.
	// Help 返回一行描述。
	Help() string

	// Params lists the settings accepted by Set.
	// Params 列出 Set 接受的设置。
	Params() []Parameter

	// Set applies one setting. Unknown names are rejected.
	// Set 应用一项设置。未知名称会被拒绝。
	Set(name, value string) error

	// Pegs lists the counters reported by Counts, in the same order.
	// Pegs 按相同顺序列出 Counts 报告的计数器。
	Pegs() []PegInfo

	// Counts returns the aggregated counters.
	// Counts 返回聚合后的计数器。
	Counts() []uint64

	// AddStats folds one thread's counters into the module totals.
	// It is called after the thread has detached.
	// AddStats 将一个线程的计数器合并到模块总计。
	// 在线程分离后调用。
	AddStats(tc *ThreadContext)
}

// Inspector is the unit of packet-processing logic invoked by the host pipeline.
// Inspector 是由宿主流水线调用的数据包处理逻辑单元。
type Inspector interface {
	// Eval is called once per eligible packet on a worker thread.
	// Eval 在工作线程上对每个符合条件的数据包调用一次。
	Eval(tc *ThreadContext, pkt *Packet)

	// TInit is called when a worker thread attaches, before its first Eval.
	// TInit 在工作线程附加时、第一次 Eval 之前调用。
	TInit(tc *ThreadContext)

	// TTerm is called when a worker thread detaches, after its last Eval.
	// TTerm 在工作线程分离时、最后一次 Eval 之后调用。
	TTerm(tc *ThreadContext)

	// Show writes a human-readable dump of the inspector configuration.
	// Show 输出检查器配置的可读转储。
	Show(w io.Writer)

	// Close releases the inspector state. It is called exactly once.
	// Close 释放检查器状态。只调用一次。
	Close() error
}

// Reloader is implemented by inspectors that can re-read their configuration in place.
// Reloader 由可以原地重新读取配置的检查器实现。
type Reloader interface {
	Reload() error
}

type (
	ModuleCtor    func() Module
	ModuleDtor    func(Module)
	InspectorCtor func(m Module, log Logger) Inspector
	InspectorDtor func(Inspector)
)

// BaseApi carries the metadata shared by every plugin descriptor.
// BaseApi 携带所有插件描述符共享的元数据。
type BaseApi struct {
	Type    PluginType
	Version uint32
	Name    string
	Help    string
	ModCtor ModuleCtor
	ModDtor ModuleDtor
}

// InspectApi is the static descriptor through which the host discovers an inspector
// and manages its lifetime. It performs no logic of its own.
// InspectApi 是宿主发现检查器并管理其生命周期的静态描述符。它本身不执行任何逻辑。
type InspectApi struct {
	Base      BaseApi
	Type      InspectorType
	ProtoBits ProtoBits

	// PInit and PTerm run once per process, around every instance of the inspector.
	// PInit 和 PTerm 在每个进程中各运行一次，包围检查器的所有实例。
	PInit func()
	PTerm func()

	Ctor InspectorCtor
	Dtor InspectorDtor
}

// InspectApiVersion is bumped whenever the descriptor layout changes.
// InspectApiVersion 在描述符布局变化时递增。
const InspectApiVersion uint32 = 1
