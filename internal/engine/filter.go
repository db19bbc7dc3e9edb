package engine

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
	"github.com/netxfw/rna/internal/utils/iputil"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
)

// FilterEnv is the environment an eligibility expression is evaluated against.
// FilterEnv 是资格表达式求值所用的环境。
type FilterEnv struct {
	Proto   string `expr:"proto"`
	SrcIP   string `expr:"src_ip"`
	DstIP   string `expr:"dst_ip"`
	SrcPort int    `expr:"src_port"`
	DstPort int    `expr:"dst_port"`
	Length  int    `expr:"length"`
	Rebuilt bool   `expr:"rebuilt"`

	src, dst netip.Addr
}

var filterEnvPool = sync.Pool{
	New: func() interface{} { return &FilterEnv{} },
}

func (e *FilterEnv) reset(p *sdk.Packet) {
	*e = FilterEnv{
		Proto:   p.Protocol,
		SrcPort: int(p.SrcPort),
		DstPort: int(p.DstPort),
		Length:  p.Length,
		Rebuilt: p.IsRebuilt(),
	}
	if a, ok := netip.AddrFromSlice(p.SrcIP); ok {
		e.src = a.Unmap()
		e.SrcIP = e.src.String()
	}
	if a, ok := netip.AddrFromSlice(p.DstIP); ok {
		e.dst = a.Unmap()
		e.DstIP = e.dst.String()
	}
}

// SrcIn reports whether the source address is inside cidr.
// SrcIn 报告源地址是否在 cidr 内。
func (e *FilterEnv) SrcIn(cidr string) bool { return iputil.Contains(cidr, e.src) }

// DstIn reports whether the destination address is inside cidr.
// DstIn 报告目的地址是否在 cidr 内。
func (e *FilterEnv) DstIn(cidr string) bool { return iputil.Contains(cidr, e.dst) }

// Filter decides which packets reach the inspectors. A nil Filter matches everything.
// Filter 决定哪些数据包到达检查器。nil Filter 匹配所有数据包。
type Filter struct {
	src     string
	program *vm.Program
}

// NewFilter compiles src. An empty source yields a nil filter.
// NewFilter 编译 src。空源返回 nil 过滤器。
func NewFilter(src string) (*Filter, error) {
	if src == "" {
		return nil, nil
	}
	cidrs := &cidrChecker{}
	program, err := expr.Compile(src, expr.Env(&FilterEnv{}), expr.AsBool(), expr.Patch(cidrs))
	if err != nil {
		return nil, rnaerrors.NewFilterError(src, err)
	}
	if cidrs.err != nil {
		return nil, rnaerrors.NewFilterError(src, cidrs.err)
	}
	return &Filter{src: src, program: program}, nil
}

// cidrChecker rejects literal SrcIn/DstIn arguments that are not a CIDR or an IP.
// Non-literal arguments are checked per packet and never match when invalid.
// cidrChecker 拒绝不是 CIDR 或 IP 的 SrcIn/DstIn 字面量参数。
// 非字面量参数按数据包检查，无效时永不匹配。
type cidrChecker struct {
	err error
}

func (c *cidrChecker) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok || c.err != nil || len(call.Arguments) != 1 {
		return
	}
	callee, ok := call.Callee.(*ast.IdentifierNode)
	if !ok || (callee.Value != "SrcIn" && callee.Value != "DstIn") {
		return
	}
	if lit, ok := call.Arguments[0].(*ast.StringNode); ok && !iputil.IsValidCIDR(lit.Value) {
		c.err = fmt.Errorf("%s: invalid CIDR %q", callee.Value, lit.Value)
	}
}

// Match evaluates the filter. Runtime errors count as no match.
// Match 对过滤器求值。运行时错误视为不匹配。
func (f *Filter) Match(p *sdk.Packet) bool {
	if f == nil {
		return true
	}

	env := filterEnvPool.Get().(*FilterEnv)
	defer filterEnvPool.Put(env)
	env.reset(p)

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false
	}
	matched, _ := out.(bool)
	return matched
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.src
}
