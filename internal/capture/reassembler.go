package capture

import (
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/tcpassembly"
	"github.com/netxfw/rna/pkg/sdk"
)

// Reassembler rebuilds TCP byte streams and hands every reassembled segment to emit
// as a packet flagged PktRebuiltStream. It is not safe for concurrent use.
// Reassembler 重建 TCP 字节流，并将每个重组段作为带 PktRebuiltStream 标志的数据包交给 emit。
// 它不是并发安全的。
type Reassembler struct {
	assembler *tcpassembly.Assembler
	factory   *streamFactory

	timeout   time.Duration
	lastFlush time.Time
}

// NewReassembler creates a reassembler. emit is called synchronously from Assemble and Flush.
// NewReassembler 创建一个重组器。emit 在 Assemble 和 Flush 中被同步调用。
func NewReassembler(emit func(*sdk.Packet)) *Reassembler {
	f := &streamFactory{emit: emit, clients: make(map[conversation]conversation)}
	return &Reassembler{
		assembler: tcpassembly.NewAssembler(tcpassembly.NewStreamPool(f)),
		factory:   f,
	}
}

// Assemble feeds the TCP layer of p, if any. Every packet advances the capture clock
// used by SetTimeout.
// Assemble 输入 p 的 TCP 层（如果有）。每个数据包都会推进 SetTimeout 使用的捕获时钟。
func (r *Reassembler) Assemble(p gopacket.Packet) {
	ts := p.Metadata().Timestamp
	if nl := p.NetworkLayer(); nl != nil {
		if tcp, ok := p.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
			r.assembler.AssembleWithTimestamp(nl.NetworkFlow(), tcp, ts)
		}
	}
	r.expire(ts)
}

// SetTimeout makes Assemble deliver data stuck behind a gap once its stream has been
// idle for d, measured in capture time. Zero keeps gaps until FlushAll.
// SetTimeout 使 Assemble 在流空闲 d（按捕获时间计）后投递卡在空洞之后的数据。
// 零表示保留空洞直到 FlushAll。
func (r *Reassembler) SetTimeout(d time.Duration) {
	r.timeout = d
}

func (r *Reassembler) expire(ts time.Time) {
	if r.timeout <= 0 {
		return
	}
	if r.lastFlush.IsZero() {
		r.lastFlush = ts
		return
	}
	if ts.Sub(r.lastFlush) < r.timeout {
		return
	}
	r.FlushOlderThan(ts.Add(-r.timeout))
	r.lastFlush = ts
}

// FlushOlderThan delivers buffered data of streams idle since t, skipping gaps.
// FlushOlderThan 投递自 t 以来空闲的流的缓冲数据，并跳过空洞。
func (r *Reassembler) FlushOlderThan(t time.Time) int {
	flushed, _ := r.assembler.FlushOlderThan(t)
	return flushed
}

// FlushAll delivers everything still buffered and closes every stream.
// FlushAll 投递所有仍在缓冲的数据并关闭所有流。
func (r *Reassembler) FlushAll() int {
	return r.assembler.FlushAll()
}

// conversation identifies a connection independent of direction.
type conversation struct {
	net, transport gopacket.Flow
}

func conversationOf(netFlow, tcpFlow gopacket.Flow) conversation {
	if netFlow.Src().LessThan(netFlow.Dst()) || (netFlow.Src() == netFlow.Dst() && tcpFlow.Src().LessThan(tcpFlow.Dst())) {
		return conversation{netFlow, tcpFlow}
	}
	return conversation{netFlow.Reverse(), tcpFlow.Reverse()}
}

// streamFactory creates one stream per direction. The first direction seen for a
// conversation is treated as the client.
type streamFactory struct {
	emit func(*sdk.Packet)

	mu sync.Mutex
	// clients maps a conversation to the flows of its client side.
	clients map[conversation]conversation
}

func (f *streamFactory) New(netFlow, tcpFlow gopacket.Flow) tcpassembly.Stream {
	conv := conversationOf(netFlow, tcpFlow)

	f.mu.Lock()
	side := conversation{netFlow, tcpFlow}
	client, ok := f.clients[conv]
	if !ok {
		client = side
		f.clients[conv] = side
	}
	f.mu.Unlock()

	dir := sdk.PktFromServer
	if client == side {
		dir = sdk.PktFromClient
	}

	return &rebuiltStream{
		factory: f,
		conv:    conv,
		dir:     dir,
		srcIP:   net.IP(append([]byte(nil), netFlow.Src().Raw()...)),
		dstIP:   net.IP(append([]byte(nil), netFlow.Dst().Raw()...)),
		srcPort: binary.BigEndian.Uint16(tcpFlow.Src().Raw()),
		dstPort: binary.BigEndian.Uint16(tcpFlow.Dst().Raw()),
	}
}

func (f *streamFactory) done(conv conversation, dir sdk.PacketFlags) {
	if dir != sdk.PktFromClient {
		return
	}
	f.mu.Lock()
	delete(f.clients, conv)
	f.mu.Unlock()
}

type rebuiltStream struct {
	factory          *streamFactory
	conv             conversation
	dir              sdk.PacketFlags
	srcIP, dstIP     net.IP
	srcPort, dstPort uint16
}

// Reassembled implements tcpassembly.Stream.
func (s *rebuiltStream) Reassembled(reassembly []tcpassembly.Reassembly) {
	for _, r := range reassembly {
		if len(r.Bytes) == 0 {
			continue
		}
		// tcpassembly reuses its buffers after this call returns
		payload := append([]byte(nil), r.Bytes...)
		s.factory.emit(&sdk.Packet{
			Flags:     sdk.PktRebuiltStream | s.dir,
			Timestamp: r.Seen,
			ProtoBits: sdk.ProtoBitIP | sdk.ProtoBitTCP | sdk.ProtoBitPDU,
			Protocol:  "tcp",
			SrcIP:     s.srcIP,
			DstIP:     s.dstIP,
			SrcPort:   s.srcPort,
			DstPort:   s.dstPort,
			Length:    len(payload),
			Payload:   payload,
		})
	}
}

// ReassemblyComplete implements tcpassembly.Stream.
func (s *rebuiltStream) ReassemblyComplete() {
	s.factory.done(s.conv, s.dir)
}
