package capture

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/netxfw/rna/internal/utils/fileutil"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
)

// pcapngMagic is the block type of a pcapng section header.
const pcapngMagic = 0x0A0D0D0A

var supportedLinkTypes = map[layers.LinkType]bool{
	layers.LinkTypeEthernet: true,
	layers.LinkTypeRaw:      true,
	layers.LinkTypeIPv4:     true,
	layers.LinkTypeIPv6:     true,
	layers.LinkTypeLinuxSLL: true,
	layers.LinkTypeNull:     true,
	layers.LinkTypeLoop:     true,
}

type dataSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Reader decodes packets from a pcap or pcapng stream.
// Reader 从 pcap 或 pcapng 流中解码数据包。
type Reader struct {
	src      dataSource
	linkType layers.LinkType
	closer   io.Closer
}

// Open opens a capture file.
// Open 打开一个捕获文件。
func Open(path string) (*Reader, error) {
	f, err := fileutil.Open(path)
	if err != nil {
		return nil, rnaerrors.NewFileError(path, err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads a capture from r. The format is detected from the first block.
// NewReader 从 r 读取捕获数据。格式由第一个块检测。
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, err
	}

	var src dataSource
	if binary.LittleEndian.Uint32(head) == pcapngMagic {
		src, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, err
	}

	lt := src.LinkType()
	if !supportedLinkTypes[lt] {
		return nil, rnaerrors.NewLinkTypeError(lt.String())
	}
	return &Reader{src: src, linkType: lt}, nil
}

func (r *Reader) LinkType() layers.LinkType { return r.linkType }

// Next decodes the next packet. It returns io.EOF at the end of the capture.
// Next 解码下一个数据包。捕获结束时返回 io.EOF。
func (r *Reader) Next() (gopacket.Packet, error) {
	data, ci, err := r.src.ReadPacketData()
	if err != nil {
		return nil, err
	}

	p := gopacket.NewPacket(data, r.linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	md := p.Metadata()
	md.CaptureInfo = ci
	md.Truncated = md.Truncated || ci.CaptureLength < ci.Length
	return p, nil
}

// Close closes the underlying file, if Open created it.
// Close 关闭由 Open 创建的底层文件。
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Convert builds the inspector packet descriptor from a decoded packet.
// It returns false for frames without an IP layer.
// Convert 从已解码的数据包构建检查器数据包描述符。对于没有 IP 层的帧返回 false。
func Convert(p gopacket.Packet) (*sdk.Packet, bool) {
	out := &sdk.Packet{ProtoBits: sdk.ProtoBitIP, Protocol: "ip"}

	switch ip := p.NetworkLayer().(type) {
	case *layers.IPv4:
		out.SrcIP, out.DstIP = ip.SrcIP, ip.DstIP
	case *layers.IPv6:
		out.SrcIP, out.DstIP = ip.SrcIP, ip.DstIP
	default:
		return nil, false
	}

	switch l := p.TransportLayer().(type) {
	case *layers.TCP:
		out.Protocol = "tcp"
		out.ProtoBits |= sdk.ProtoBitTCP
		out.SrcPort, out.DstPort = uint16(l.SrcPort), uint16(l.DstPort)
	case *layers.UDP:
		out.Protocol = "udp"
		out.ProtoBits |= sdk.ProtoBitUDP
		out.SrcPort, out.DstPort = uint16(l.SrcPort), uint16(l.DstPort)
	default:
		if p.Layer(layers.LayerTypeICMPv4) != nil || p.Layer(layers.LayerTypeICMPv6) != nil {
			out.Protocol = "icmp"
			out.ProtoBits |= sdk.ProtoBitICMP
		}
	}

	md := p.Metadata()
	out.Timestamp = md.Timestamp
	out.Length = md.Length
	if out.Length == 0 {
		out.Length = len(p.Data())
	}
	if md.Truncated {
		out.Flags |= sdk.PktTruncated
	}
	if app := p.ApplicationLayer(); app != nil {
		out.Payload = app.Payload()
	}
	return out, true
}
