package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netxfw/rna/internal/capture/capturetest"
	"github.com/netxfw/rna/internal/plugins/rna"
	"github.com/netxfw/rna/internal/plugins/types"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand executes the rna command tree and returns output.
// executeCommand 执行 rna 命令树并返回输出。
func executeCommand(args ...string) (string, error) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// hostConfigPath returns a path for a host configuration file that does not exist yet.
func hostConfigPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "rna.yaml")
}

func writeDirectiveFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "rna.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestRootCommand tests the root command help output.
// TestRootCommand 测试根命令帮助输出。
func TestRootCommand(t *testing.T) {
	output, err := executeCommand("--help")
	assert.NoError(t, err)
	for _, sub := range []string{"check", "show", "replay", "init", "version"} {
		assert.Contains(t, output, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand("version")
	require.NoError(t, err)
	assert.Equal(t, "rna dev (inspector api v1)\n", output)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "rna.yaml")

	output, err := executeCommand("init", "-c", path)
	require.NoError(t, err)
	assert.Equal(t, "Configuration written to "+path+" (4 workers)\n", output)

	cfg, err := types.LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultGlobalConfig(), cfg)

	output, err = executeCommand("init", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, output, "already exists")

	output, err = executeCommand("init", "-c", path, "--force")
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration written to")

	t.Run("replaces invalid file", func(t *testing.T) {
		broken := hostConfigPath(t)
		require.NoError(t, os.WriteFile(broken, []byte("engine:\n  workers: 0\n"), 0644))

		output, err := executeCommand("init", "-c", broken)
		require.NoError(t, err)
		assert.Contains(t, output, "already exists")

		_, err = executeCommand("init", "-c", broken, "--force")
		require.NoError(t, err)
		_, err = executeCommand("show", "-c", broken)
		require.NoError(t, err)
	})
}

func TestCheckCommand(t *testing.T) {
	path := writeDirectiveFile(t, "# tuning\npnd UpdateTimeout 30\nconfig MaxPayloads abc\nprotoid BannerGrab 1\n")

	output, err := executeCommand("check", path)
	require.NoError(t, err)
	assert.Contains(t, output, "warning: ")
	assert.Contains(t, output, "4 lines, 2 applied, 1 ignored, 1 warnings")
	assert.Contains(t, output, "pnd UpdateTimeout 30\n")
	assert.Contains(t, output, "protoid BannerGrab 1\n")

	t.Run("strict", func(t *testing.T) {
		_, err := executeCommand("check", "--strict", path)
		assert.Error(t, err)

		clean := writeDirectiveFile(t, "pnd UpdateTimeout 30\n")
		_, err = executeCommand("check", "--strict", clean)
		assert.NoError(t, err)
	})

	// The printed settings parse back to the same record
	// 打印的设置可解析回相同的记录
	t.Run("round trip", func(t *testing.T) {
		var body strings.Builder
		for _, line := range strings.Split(output, "\n") {
			if line != "" && !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "warning:") {
				body.WriteString(line + "\n")
			}
		}
		want, err := rna.LoadRnaConf(path, nil)
		require.NoError(t, err)
		got, err := rna.ParseRnaConf(strings.NewReader(body.String()), "check", nil)
		require.NoError(t, err)
		assert.Empty(t, got.Warnings)
		assert.Equal(t, want.Config, got.Config)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand("check", filepath.Join(t.TempDir(), "nope.conf"))
		assert.Error(t, err)
	})

	t.Run("no args", func(t *testing.T) {
		_, err := executeCommand("check")
		assert.Error(t, err)
	})
}

func TestShowCommand(t *testing.T) {
	directives := writeDirectiveFile(t, "pnd UpdateTimeout 90\nconfig MaxHostServices 7\n")

	output, err := executeCommand("show", "-c", hostConfigPath(t), "-d", directives)
	require.NoError(t, err)
	assert.Contains(t, output, "RNA Configuration\n")
	assert.Contains(t, output, "    Config path:            "+directives+"\n")
	assert.Contains(t, output, "    Update timeout:         90 secs\n")
	assert.Contains(t, output, "    Max host services:      7\n")
	assert.Contains(t, output, "rna health: healthy (directives loaded)\n")
}

func TestShowCommand_MissingDirectives(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.conf")

	output, err := executeCommand("show", "-c", hostConfigPath(t), "-d", missing)
	require.NoError(t, err)
	assert.Contains(t, output, "RNA Configuration\n")
	assert.Contains(t, output, "rna health: degraded (running on defaults: ")
	assert.Contains(t, output, missing)
}

func TestShowCommand_InvalidHostConfig(t *testing.T) {
	path := hostConfigPath(t)
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: 0\n"), 0644))

	_, err := executeCommand("show", "-c", path)
	assert.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	const cli, srv = "10.1.0.1", "10.1.0.2"
	capture := filepath.Join(t.TempDir(), "trace.pcap")
	capturetest.WritePcap(t, capture,
		capturetest.Segment{Src: cli, Dst: srv, SrcPort: 41000, DstPort: 80, Seq: 1, SYN: true}.Frame(t),
		capturetest.Segment{Src: srv, Dst: cli, SrcPort: 80, DstPort: 41000, Seq: 100, Ack: 2, SYN: true, ACK: true}.Frame(t),
		capturetest.Segment{Src: cli, Dst: srv, SrcPort: 41000, DstPort: 80, Seq: 2, Ack: 101, ACK: true, Payload: []byte("GET / HTTP/1.0\r\n\r\n")}.Frame(t),
		capturetest.ARP(t),
		capturetest.UDP(t, cli, srv, 5000, 53, []byte("q")),
	)
	directives := writeDirectiveFile(t, "pnd UpdateTimeout 60\n")

	output, err := executeCommand("replay", "-c", hostConfigPath(t), "-d", directives, "-w", "2", capture)
	require.NoError(t, err)
	assert.Contains(t, output, "Files: 1  Frames: 5  IP packets: 4  Non-IP: 1  Rebuilt: 0\n")
	assert.Contains(t, output, "rna\n")
	assert.Contains(t, output, "    total_packets:       4\n")
	assert.Contains(t, output, "    eval:                4 checks")
	assert.NotContains(t, output, "Filtered:")

	t.Run("filter", func(t *testing.T) {
		output, err := executeCommand("replay", "-c", hostConfigPath(t), "-d", directives, "--filter", `proto == "udp"`, capture)
		require.NoError(t, err)
		assert.Contains(t, output, "    total_packets:       1\n")
		assert.Contains(t, output, "Filtered: 3 (75.00%)\n")
	})

	t.Run("reassemble", func(t *testing.T) {
		output, err := executeCommand("replay", "-c", hostConfigPath(t), "-d", directives, "--reassemble", capture)
		require.NoError(t, err)
		assert.Contains(t, output, "Rebuilt: 1\n")
		assert.Contains(t, output, "    total_packets:       4\n")
	})

	t.Run("invalid overrides", func(t *testing.T) {
		_, err := executeCommand("replay", "-c", hostConfigPath(t), "-w", "0", capture)
		assert.True(t, errors.Is(err, rnaerrors.ErrConfigInvalid))

		_, err = executeCommand("replay", "-c", hostConfigPath(t), "--filter", `SrcIn("10.0.0.0/40")`, capture)
		assert.True(t, errors.Is(err, rnaerrors.ErrInvalidFilter))
	})

	t.Run("missing capture", func(t *testing.T) {
		_, err := executeCommand("replay", "-c", hostConfigPath(t), filepath.Join(t.TempDir(), "none.pcap"))
		assert.Error(t, err)
	})
}
