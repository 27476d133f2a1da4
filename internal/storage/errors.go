package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPath 表示没有提供存储路径。
	ErrNoPath = errors.New("no path provided")

	// ErrClosed 表示存储已经关闭。
	ErrClosed = errors.New("storage is closed")

	// ErrSpecMismatch 表示磁盘上的配置与当前配置不一致。
	ErrSpecMismatch = errors.New("datastore spec does not match")
)

// StorageError 表示存储操作期间的错误。
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s failed at %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError 表示配置字段缺失或取值无效。
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("config field '%s' (value: %v): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("config field '%s': %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LockError 表示锁文件相关的错误。
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock file error at %s: %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// 配置校验使用的底层错误。
var (
	errMissing   = errors.New("missing")
	errWrongType = errors.New("wrong type")
	errUnknown   = errors.New("unknown value")
)

func missingField(field string) error {
	return &ConfigError{Field: field, Err: errMissing}
}

func wrongType(field string, value interface{}) error {
	return &ConfigError{Field: field, Value: value, Err: errWrongType}
}

func unknownValue(field string, value interface{}) error {
	return &ConfigError{Field: field, Value: value, Err: errUnknown}
}

// stringField 读取必填的字符串字段。
func stringField(params map[string]interface{}, field string) (string, error) {
	v, found := params[field]
	if !found {
		return "", missingField(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(field, v)
	}
	return s, nil
}

type unknownTypeError struct {
	available []string
}

func (e *unknownTypeError) Error() string {
	return fmt.Sprintf("unknown datastore type (available: %s)", strings.Join(e.available, ", "))
}

func (e *unknownTypeError) Is(target error) bool {
	return target == errUnknown
}

func errUnknownType(available []string) error {
	return &unknownTypeError{available: available}
}
