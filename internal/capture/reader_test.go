package capture

import (
	"bytes"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/netxfw/rna/internal/capture/capturetest"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) []*sdk.Packet {
	t.Helper()
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	var out []*sdk.Packet
	for {
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		if sp, ok := Convert(p); ok {
			out = append(out, sp)
		}
	}
}

// TestReader_Decode tests conversion of each supported transport
// TestReader_Decode 测试每种支持的传输层的转换
func TestReader_Decode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.pcap")
	capturetest.WritePcap(t, path,
		capturetest.Segment{Src: "10.0.0.1", Dst: "10.0.0.2", SrcPort: 40000, DstPort: 80, Seq: 1, ACK: true, Payload: []byte("GET / HTTP/1.1\r\n")}.Frame(t),
		capturetest.UDP(t, "10.0.0.1", "10.0.0.53", 5353, 53, []byte("query")),
		capturetest.ICMPEcho(t, "10.0.0.1", "10.0.0.2"),
		capturetest.ARP(t),
		capturetest.UDP(t, "fe80::1", "fe80::2", 546, 547, []byte("dhcp6")),
	)

	pkts := readAll(t, path)
	require.Len(t, pkts, 4, "the ARP frame has no IP layer")

	tcp := pkts[0]
	assert.Equal(t, "tcp", tcp.Protocol)
	assert.Equal(t, sdk.ProtoBitIP|sdk.ProtoBitTCP, tcp.ProtoBits)
	assert.True(t, net.ParseIP("10.0.0.1").Equal(tcp.SrcIP))
	assert.True(t, net.ParseIP("10.0.0.2").Equal(tcp.DstIP))
	assert.Equal(t, uint16(40000), tcp.SrcPort)
	assert.Equal(t, uint16(80), tcp.DstPort)
	assert.Equal(t, []byte("GET / HTTP/1.1\r\n"), tcp.Payload)
	assert.True(t, capturetest.Epoch.Equal(tcp.Timestamp))
	assert.False(t, tcp.IsRebuilt())
	assert.Greater(t, tcp.Length, len(tcp.Payload))

	udp := pkts[1]
	assert.Equal(t, "udp", udp.Protocol)
	assert.Equal(t, sdk.ProtoBitIP|sdk.ProtoBitUDP, udp.ProtoBits)
	assert.Equal(t, uint16(53), udp.DstPort)

	icmp := pkts[2]
	assert.Equal(t, "icmp", icmp.Protocol)
	assert.Equal(t, sdk.ProtoBitIP|sdk.ProtoBitICMP, icmp.ProtoBits)
	assert.Zero(t, icmp.SrcPort)

	v6 := pkts[3]
	assert.Equal(t, "udp", v6.Protocol)
	assert.True(t, net.ParseIP("fe80::2").Equal(v6.DstIP))
	assert.Equal(t, uint16(547), v6.DstPort)
}

// TestReader_Truncated tests that short captures are flagged
// TestReader_Truncated 测试截断的捕获被标记
func TestReader_Truncated(t *testing.T) {
	fr := capturetest.UDP(t, "10.0.0.1", "10.0.0.2", 1000, 2000, []byte("payload"))
	fr.Length = len(fr.Data) + 100

	path := filepath.Join(t.TempDir(), "trunc.pcap")
	capturetest.WritePcap(t, path, fr)

	pkts := readAll(t, path)
	require.Len(t, pkts, 1)
	assert.NotZero(t, pkts[0].Flags&sdk.PktTruncated)
	assert.Equal(t, len(fr.Data)+100, pkts[0].Length)
}

// TestReader_UnsupportedLinkType tests rejection of captures the decoder cannot handle
// TestReader_UnsupportedLinkType 测试拒绝解码器无法处理的捕获
func TestReader_UnsupportedLinkType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wifi.pcap")
	capturetest.WritePcapLinkType(t, path, layers.LinkTypeIEEE802_11)

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rnaerrors.ErrUnsupportedLinkType))
}

// TestReader_OpenErrors tests missing and malformed inputs
// TestReader_OpenErrors 测试缺失和格式错误的输入
func TestReader_OpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pcap"))
	assert.True(t, errors.Is(err, rnaerrors.ErrFileNotFound))

	_, err = NewReader(bytes.NewReader([]byte("not a capture file at all")))
	assert.Error(t, err)

	_, err = NewReader(bytes.NewReader(nil))
	assert.Error(t, err)
}

// TestReader_Empty tests a capture with a header and no packets
// TestReader_Empty 测试只有文件头没有数据包的捕获
func TestReader_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pcap")
	capturetest.WritePcap(t, path)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	_, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}
