package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfigLoad          = errors.New("failed to load configuration")
	ErrMalformedDirective  = errors.New("malformed directive")
	ErrInvalidValue        = errors.New("invalid directive value")
	ErrUnknownParameter    = errors.New("unknown module parameter")
	ErrInspectorNotFound   = errors.New("inspector not found")
	ErrDuplicateInspector  = errors.New("inspector already registered")
	ErrInvalidDescriptor   = errors.New("invalid plugin descriptor")
	ErrFileNotFound        = errors.New("file not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrInvalidFilter       = errors.New("invalid packet filter")
	ErrUnsupportedLinkType = errors.New("unsupported link type")
	ErrEngineClosed        = errors.New("engine closed")
)

// NewConfigLoadError reports a directive file that could not be opened or read.
// NewConfigLoadError 报告无法打开或读取的指令文件。
func NewConfigLoadError(path string, reason error) error {
	if path == "" {
		return fmt.Errorf("%w: no configuration path set", ErrConfigLoad)
	}
	return fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, reason)
}

// NewDirectiveError reports a line that does not split into type, key and value.
// NewDirectiveError 报告无法拆分为 type、key、value 的行。
func NewDirectiveError(source string, line int, text string) error {
	return fmt.Errorf("%w: line %d from %s: %q", ErrMalformedDirective, line, source, text)
}

// NewValueError reports a recognized directive whose value cannot be converted.
// NewValueError 报告无法转换值的已识别指令。
func NewValueError(source string, line int, key, value string, reason error) error {
	return fmt.Errorf("%w: line %d from %s: %s=%q: %v", ErrInvalidValue, line, source, key, value, reason)
}

func NewParameterError(module, name string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownParameter, module, name)
}

func NewInspectorError(name string) error {
	return fmt.Errorf("%w: %s", ErrInspectorNotFound, name)
}

func NewFileError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, reason)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewFilterError(expr string, reason error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidFilter, expr, reason)
}

func NewDuplicateInspectorError(name string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateInspector, name)
}

// NewDescriptorError reports a descriptor the registry refuses to accept.
// NewDescriptorError 报告注册表拒绝接受的描述符。
func NewDescriptorError(name, reason string) error {
	if name == "" {
		return fmt.Errorf("%w: %s", ErrInvalidDescriptor, reason)
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidDescriptor, name, reason)
}

func NewLinkTypeError(linkType string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedLinkType, linkType)
}
