package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/netxfw/rna/internal/plugins/rna"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"go.uber.org/multierr"
)

// Registry holds the inspector descriptors the host can build, keyed by name.
// Registry 保存宿主可以构建的检查器描述符，以名称为键。
type Registry struct {
	mu     sync.RWMutex
	apis   map[string]*sdk.InspectApi
	inited map[string]bool
}

// NewRegistry creates an empty registry.
// NewRegistry 创建一个空注册表。
func NewRegistry() *Registry {
	return &Registry{
		apis:   make(map[string]*sdk.InspectApi),
		inited: make(map[string]bool),
	}
}

// Register adds a descriptor. Names are unique.
// Register 添加一个描述符。名称必须唯一。
func (r *Registry) Register(api *sdk.InspectApi) error {
	if err := validateApi(api); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apis[api.Base.Name]; ok {
		return rnaerrors.NewDuplicateInspectorError(api.Base.Name)
	}
	r.apis[api.Base.Name] = api
	return nil
}

// Lookup returns the descriptor registered under name.
// Lookup 返回以 name 注册的描述符。
func (r *Registry) Lookup(name string) (*sdk.InspectApi, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	api, ok := r.apis[name]
	if !ok {
		return nil, rnaerrors.NewInspectorError(name)
	}
	return api, nil
}

// Names returns the registered names in sorted order.
// Names 按排序返回已注册的名称。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.apis))
	for name := range r.apis {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitAll runs the process-wide init hook of every descriptor that has not run it yet.
// InitAll 运行尚未运行过的每个描述符的进程级初始化钩子。
func (r *Registry) InitAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, api := range r.apis {
		if r.inited[name] {
			continue
		}
		if api.PInit != nil {
			api.PInit()
		}
		r.inited[name] = true
	}
}

// TermAll runs the process-wide term hook of every initialized descriptor.
// A panicking hook is reported as an error and does not stop the others.
// TermAll 运行每个已初始化描述符的进程级终止钩子。
// 发生 panic 的钩子会被报告为错误，但不会阻止其他钩子。
func (r *Registry) TermAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for name, api := range r.apis {
		if !r.inited[name] {
			continue
		}
		errs = multierr.Append(errs, runTerm(name, api.PTerm))
		delete(r.inited, name)
	}
	return errs
}

func runTerm(name string, fn func()) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pterm of %s panicked: %v", name, p)
		}
	}()
	fn()
	return nil
}

func validateApi(api *sdk.InspectApi) error {
	switch {
	case api == nil:
		return rnaerrors.NewDescriptorError("", "nil descriptor")
	case api.Base.Name == "":
		return rnaerrors.NewDescriptorError("", "empty name")
	case api.Base.Type != sdk.PluginTypeInspector:
		return rnaerrors.NewDescriptorError(api.Base.Name, "not an inspector")
	case api.Base.Version != sdk.InspectApiVersion:
		return rnaerrors.NewDescriptorError(api.Base.Name, "api version mismatch")
	case api.Base.ModCtor == nil:
		return rnaerrors.NewDescriptorError(api.Base.Name, "missing module constructor")
	case api.Ctor == nil:
		return rnaerrors.NewDescriptorError(api.Base.Name, "missing inspector constructor")
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry holding every built-in inspector.
// Default 返回包含所有内置检查器的注册表。
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, api := range builtin() {
			if err := defaultRegistry.Register(api); err != nil {
				panic(err)
			}
		}
	})
	return defaultRegistry
}

// builtin lists the inspectors compiled into the binary.
// builtin 列出编译进二进制文件的检查器。
func builtin() []*sdk.InspectApi {
	return []*sdk.InspectApi{
		rna.Api,
	}
}
