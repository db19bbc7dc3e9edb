package sdk

import (
	"net"
	"time"
)

// PacketFlags carries per-packet status bits set by the capture and reassembly stages.
// PacketFlags 携带由捕获和重组阶段设置的每包状态位。
type PacketFlags uint32

const (
	// PktRebuiltStream marks a packet synthesized from reassembled stream data.
	// It is not an original on-wire packet.
	// PktRebuiltStream 标记由重组后的流数据合成的数据包，而非原始线上数据包。
	PktRebuiltStream PacketFlags = 1 << iota
	PktFromClient
	PktFromServer
	PktTruncated
)

// Packet is the read-only descriptor handed to inspectors.
// Packet 是交给检查器的只读描述符。
type Packet struct {
	Flags     PacketFlags
	Timestamp time.Time
	ProtoBits ProtoBits
	// Protocol is the lower-case transport name: "tcp", "udp", "icmp" or "ip".
	Protocol string
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	// Length is the captured wire length.
	Length  int
	Payload []byte
}

// IsRebuilt reports whether the packet was produced by stream reassembly.
// IsRebuilt 报告数据包是否由流重组产生。
func (p *Packet) IsRebuilt() bool {
	return p.Flags&PktRebuiltStream != 0
}

// FlowHash returns a direction-independent hash of the packet 5-tuple,
// so both halves of a conversation land on the same worker.
func (p *Packet) FlowHash() uint32 {
	var h uint32 = 2166136261
	mix := func(b []byte) uint32 {
		var x uint32 = 2166136261
		for _, c := range b {
			x ^= uint32(c)
			x *= 16777619
		}
		return x
	}
	a := mix(p.SrcIP) ^ uint32(p.SrcPort)
	b := mix(p.DstIP) ^ uint32(p.DstPort)
	h ^= a ^ b
	h *= 16777619
	h ^= mix([]byte(p.Protocol))
	return h
}
