package plugins

import (
	"errors"
	"testing"

	"github.com/netxfw/rna/internal/plugins/rna"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApi(name string, pinit, pterm func()) *sdk.InspectApi {
	return &sdk.InspectApi{
		Base: sdk.BaseApi{
			Type:    sdk.PluginTypeInspector,
			Version: sdk.InspectApiVersion,
			Name:    name,
			ModCtor: func() sdk.Module { return rna.NewModule() },
		},
		Type:      sdk.ITPacket,
		ProtoBits: sdk.ProtoBitTCP,
		PInit:     pinit,
		PTerm:     pterm,
		Ctor: func(m sdk.Module, log sdk.Logger) sdk.Inspector {
			return rna.NewInspector(nil, log)
		},
	}
}

// TestRegistry_RegisterLookup tests registration and lookup by name
// TestRegistry_RegisterLookup 测试按名称注册和查找
func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()
	api := testApi("alpha", nil, nil)
	require.NoError(t, r.Register(api))
	require.NoError(t, r.Register(testApi("beta", nil, nil)))

	got, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Same(t, api, got)
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())

	_, err = r.Lookup("gamma")
	assert.True(t, errors.Is(err, rnaerrors.ErrInspectorNotFound))

	err = r.Register(testApi("alpha", nil, nil))
	assert.True(t, errors.Is(err, rnaerrors.ErrDuplicateInspector))
}

// TestRegistry_RejectsInvalidDescriptors tests descriptor validation
// TestRegistry_RejectsInvalidDescriptors 测试描述符校验
func TestRegistry_RejectsInvalidDescriptors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(api *sdk.InspectApi) *sdk.InspectApi
	}{
		{"nil", func(*sdk.InspectApi) *sdk.InspectApi { return nil }},
		{"empty name", func(a *sdk.InspectApi) *sdk.InspectApi { a.Base.Name = ""; return a }},
		{"wrong type", func(a *sdk.InspectApi) *sdk.InspectApi { a.Base.Type = "logger"; return a }},
		{"wrong version", func(a *sdk.InspectApi) *sdk.InspectApi { a.Base.Version = 99; return a }},
		{"no module ctor", func(a *sdk.InspectApi) *sdk.InspectApi { a.Base.ModCtor = nil; return a }},
		{"no inspector ctor", func(a *sdk.InspectApi) *sdk.InspectApi { a.Ctor = nil; return a }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.mutate(testApi("x", nil, nil)))
			assert.True(t, errors.Is(err, rnaerrors.ErrInvalidDescriptor), "got %v", err)
			assert.Empty(t, r.Names())
		})
	}
}

// TestRegistry_InitTermOnce tests that process hooks run once per init cycle
// TestRegistry_InitTermOnce 测试进程钩子在每个初始化周期只运行一次
func TestRegistry_InitTermOnce(t *testing.T) {
	var inits, terms int
	r := NewRegistry()
	require.NoError(t, r.Register(testApi("alpha", func() { inits++ }, func() { terms++ })))
	require.NoError(t, r.Register(testApi("nohooks", nil, nil)))

	r.InitAll()
	r.InitAll()
	assert.Equal(t, 1, inits)

	require.NoError(t, r.TermAll())
	require.NoError(t, r.TermAll())
	assert.Equal(t, 1, terms)

	r.InitAll()
	assert.Equal(t, 2, inits)
	require.NoError(t, r.TermAll())
	assert.Equal(t, 2, terms)
}

// TestRegistry_TermAllCollectsPanics tests that a panicking hook does not stop the others
// TestRegistry_TermAllCollectsPanics 测试发生 panic 的钩子不会阻止其他钩子
func TestRegistry_TermAllCollectsPanics(t *testing.T) {
	var terms int
	r := NewRegistry()
	require.NoError(t, r.Register(testApi("bad1", nil, func() { panic("boom") })))
	require.NoError(t, r.Register(testApi("bad2", nil, func() { panic("bang") })))
	require.NoError(t, r.Register(testApi("good", nil, func() { terms++ })))

	r.InitAll()
	err := r.TermAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "bang")
	assert.Equal(t, 1, terms)
}

// TestDefault tests that the built-in registry exposes the rna inspector
// TestDefault 测试内置注册表暴露 rna 检查器
func TestDefault(t *testing.T) {
	r := Default()
	assert.Same(t, r, Default())

	api, err := r.Lookup("rna")
	require.NoError(t, err)
	assert.Same(t, rna.Api, api)
	assert.Equal(t, sdk.ITControl, api.Type)
}
