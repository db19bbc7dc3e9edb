package rna

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/netxfw/rna/internal/utils/fileutil"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"go.uber.org/zap"
)

type directiveKey struct {
	typ string
	key string
}

// uintDirectives maps each recognized integer directive to the field it sets.
var uintDirectives = map[directiveKey]func(*RnaConfig) *uint32{
	{"pnd", "UpdateTimeout"}:         func(c *RnaConfig) *uint32 { return &c.UpdateTimeout },
	{"config", "MaxHostClientApps"}:  func(c *RnaConfig) *uint32 { return &c.MaxHostClientApps },
	{"config", "MaxPayloads"}:        func(c *RnaConfig) *uint32 { return &c.MaxPayloads },
	{"config", "MaxHostServices"}:    func(c *RnaConfig) *uint32 { return &c.MaxHostServices },
	{"config", "MaxHostServiceInfo"}: func(c *RnaConfig) *uint32 { return &c.MaxHostServiceInfo },
}

var bannerGrabDirective = directiveKey{"protoid", "BannerGrab"}

// ParseResult is the outcome of scanning one directive file.
// ParseResult 是扫描一个指令文件的结果。
type ParseResult struct {
	// Config is never nil. Fields without a valid directive keep their defaults.
	Config *RnaConfig
	// Lines is the number of lines scanned.
	Lines int
	// Applied counts directives that changed a field.
	Applied int
	// Ignored counts blank lines, comments and unknown directives.
	Ignored int
	// Warnings holds one error per malformed line or invalid value, in line order.
	Warnings []error
}

// LoadRnaConf opens path and parses it as a directive file.
// It fails only when the path is empty or the file cannot be opened or read;
// malformed lines are reported through log and ParseResult.Warnings.
// LoadRnaConf 打开 path 并将其解析为指令文件。
// 仅在路径为空或文件无法打开/读取时失败；畸形行通过 log 和 ParseResult.Warnings 报告。
func LoadRnaConf(path string, log sdk.Logger) (*ParseResult, error) {
	if path == "" {
		return nil, rnaerrors.NewConfigLoadError("", nil)
	}

	f, err := fileutil.Open(path)
	if err != nil {
		return nil, rnaerrors.NewConfigLoadError(path, err)
	}
	defer f.Close()

	res, err := ParseRnaConf(f, path, log)
	if err != nil {
		return nil, rnaerrors.NewConfigLoadError(path, err)
	}
	return res, nil
}

// ParseRnaConf scans r line by line. source names the input in warnings.
// Every line is `<type> <key> <value>`; blank lines and lines starting with '#' are skipped.
// ParseRnaConf 逐行扫描 r。source 用于在警告中标识输入。
func ParseRnaConf(r io.Reader, source string, log sdk.Logger) (*ParseResult, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	res := &ParseResult{Config: DefaultRnaConfig()}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			res.Lines++
			res.parseLine(line, source, log)
		}
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (res *ParseResult) parseLine(line, source string, log sdk.Logger) {
	text := strings.TrimSpace(line)
	if text == "" || text[0] == '#' {
		res.Ignored++
		return
	}

	fields := strings.Fields(text)
	if len(fields) != 3 {
		log.Warnf("RNA: Malformed configuration item at line %d from %s (expected <type> <key> <value>, got %d tokens)",
			res.Lines, source, len(fields))
		res.Warnings = append(res.Warnings, rnaerrors.NewDirectiveError(source, res.Lines, text))
		return
	}

	k := directiveKey{fields[0], fields[1]}
	value := fields[2]

	if field, ok := uintDirectives[k]; ok {
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			log.Warnf("RNA: Invalid value %q for %s at line %d from %s", value, k.key, res.Lines, source)
			res.Warnings = append(res.Warnings, rnaerrors.NewValueError(source, res.Lines, k.key, value, err))
			return
		}
		*field(res.Config) = uint32(n)
		res.Applied++
		return
	}

	// Any token other than the literal "0" enables banner grabbing; "0" leaves it untouched.
	if k == bannerGrabDirective && value != "0" {
		res.Config.EnableBannerGrab = true
		res.Applied++
		return
	}

	res.Ignored++
}
