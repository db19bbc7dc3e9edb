// Package capturetest builds small packet captures for tests.
// Package capturetest 为测试构建小型数据包捕获文件。
package capturetest

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"
)

// Epoch is the timestamp of the first frame written by WritePcap.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	srcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	dstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

// Frame is one captured frame. Length of zero means the frame was not truncated.
// At delays the frame past its default slot in WritePcap.
type Frame struct {
	Data   []byte
	Length int
	At     time.Duration
}

// Segment describes one TCP segment.
type Segment struct {
	Src, Dst         string
	SrcPort, DstPort uint16
	Seq, Ack         uint32
	SYN, ACK, FIN    bool
	Payload          []byte
}

// Frame serializes the segment as Ethernet/IP/TCP.
func (s Segment) Frame(t testing.TB) Frame {
	t.Helper()
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(s.SrcPort),
		DstPort: layers.TCPPort(s.DstPort),
		Seq:     s.Seq,
		Ack:     s.Ack,
		SYN:     s.SYN,
		ACK:     s.ACK,
		FIN:     s.FIN,
		Window:  65535,
	}
	return ipFrame(t, s.Src, s.Dst, layers.IPProtocolTCP, tcp, gopacket.Payload(s.Payload))
}

// UDP serializes an Ethernet/IP/UDP datagram.
func UDP(t testing.TB, src, dst string, srcPort, dstPort uint16, payload []byte) Frame {
	t.Helper()
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	return ipFrame(t, src, dst, layers.IPProtocolUDP, udp, gopacket.Payload(payload))
}

// ICMPEcho serializes an IPv4 echo request.
func ICMPEcho(t testing.TB, src, dst string) Frame {
	t.Helper()
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 1, Seq: 1}
	return ipFrame(t, src, dst, layers.IPProtocolICMPv4, icmp, gopacket.Payload([]byte("ping")))
}

// ARP serializes a frame without an IP layer.
func ARP(t testing.TB) Frame {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: net.IPv4(10, 0, 0, 1).To4(),
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    net.IPv4(10, 0, 0, 2).To4(),
	}
	return Frame{Data: serialize(t, eth, arp)}
}

// ipFrame wraps a transport layer in Ethernet and IPv4 or IPv6, depending on src.
func ipFrame(t testing.TB, src, dst string, proto layers.IPProtocol, l4 gopacket.SerializableLayer, payload gopacket.Payload) Frame {
	t.Helper()
	srcIP, dstIP := net.ParseIP(src), net.ParseIP(dst)
	require.NotNil(t, srcIP, "bad source address %q", src)
	require.NotNil(t, dstIP, "bad destination address %q", dst)

	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC}
	var nl gopacket.NetworkLayer
	if srcIP.To4() != nil {
		eth.EthernetType = layers.EthernetTypeIPv4
		nl = &layers.IPv4{Version: 4, TTL: 64, Protocol: proto, SrcIP: srcIP.To4(), DstIP: dstIP.To4()}
	} else {
		eth.EthernetType = layers.EthernetTypeIPv6
		nl = &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: proto, SrcIP: srcIP, DstIP: dstIP}
	}

	switch l := l4.(type) {
	case *layers.TCP:
		require.NoError(t, l.SetNetworkLayerForChecksum(nl))
	case *layers.UDP:
		require.NoError(t, l.SetNetworkLayerForChecksum(nl))
	}

	return Frame{Data: serialize(t, eth, nl.(gopacket.SerializableLayer), l4, payload)}
}

func serialize(t testing.TB, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return append([]byte(nil), buf.Bytes()...)
}

// WritePcap writes frames to path as an Ethernet pcap, one millisecond apart from Epoch
// plus each frame's At.
func WritePcap(t testing.TB, path string, frames ...Frame) {
	t.Helper()
	WritePcapLinkType(t, path, layers.LinkTypeEthernet, frames...)
}

// WritePcapLinkType is WritePcap with an explicit link type.
func WritePcapLinkType(t testing.TB, path string, lt layers.LinkType, frames ...Frame) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, lt))
	for i, fr := range frames {
		length := fr.Length
		if length == 0 {
			length = len(fr.Data)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     Epoch.Add(time.Duration(i)*time.Millisecond + fr.At),
			CaptureLength: len(fr.Data),
			Length:        length,
		}
		require.NoError(t, w.WritePacket(ci, fr.Data))
	}
}
