package rna

import (
	"github.com/netxfw/rna/pkg/sdk"
)

func modCtor() sdk.Module { return NewModule() }

func modDtor(sdk.Module) {}

// pinit and pterm are reserved for process-wide setup such as loading the
// fingerprint decoder library; nothing needs it yet.
func pinit() {}

func pterm() {}

func inspectorCtor(m sdk.Module, log sdk.Logger) sdk.Inspector {
	mod, _ := m.(*Module)
	return NewInspector(mod, log)
}

func inspectorDtor(ins sdk.Inspector) {
	if ins != nil {
		_ = ins.Close()
	}
}

// Api is the descriptor through which the host discovers the rna inspector.
// It is a control inspector that applies to any IP traffic.
// Api 是宿主发现 rna 检查器所用的描述符。它是适用于任意 IP 流量的控制类检查器。
var Api = &sdk.InspectApi{
	Base: sdk.BaseApi{
		Type:    sdk.PluginTypeInspector,
		Version: sdk.InspectApiVersion,
		Name:    RnaName,
		Help:    RnaHelp,
		ModCtor: modCtor,
		ModDtor: modDtor,
	},
	Type:      sdk.ITControl,
	ProtoBits: sdk.ProtoBitAnyIP,
	PInit:     pinit,
	PTerm:     pterm,
	Ctor:      inspectorCtor,
	Dtor:      inspectorDtor,
}
