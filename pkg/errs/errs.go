// Package errs 定义 jvc 的结构化错误类型与错误码。
//
// 所有错误都会原样传递到命令层，由命令层打印后以非零状态退出；
// 除 Azul LTS 查询降级外，没有任何本地恢复或重试。
//
//	err := errs.New(errs.CodeVersionNotInstalled, "version %d is not installed", 17)
//	if errs.Is(err, errs.CodeVersionNotInstalled) {
//	    // ...
//	}
package errs

import (
	"errors"
	"fmt"
)

// Code 是机器可读的错误码。
type Code string

// 错误码分类。
const (
	// 远程 API
	CodeNetwork    Code = "NETWORK_ERROR"
	CodeSchema     Code = "SCHEMA_ERROR"
	CodeResolution Code = "RESOLUTION_ERROR"
	CodeChecksum   Code = "CHECKSUM_MISMATCH"

	// 归档解包
	CodeUnsupportedArchive Code = "UNSUPPORTED_ARCHIVE_KIND"
	CodeArchiveCorrupt     Code = "ARCHIVE_CORRUPT"
	CodeDirectoryContract  Code = "DIRECTORY_CONTRACT_VIOLATION"

	// 本地状态
	CodeVersionNotInstalled Code = "VERSION_NOT_INSTALLED"
	CodeVersionInUse        Code = "VERSION_IN_USE"
	CodeInvalidAliasName    Code = "INVALID_ALIAS_NAME"
	CodeAliasNotFound       Code = "ALIAS_NOT_FOUND"

	// 输入与配置
	CodeUnknownProvider Code = "UNKNOWN_PROVIDER_CODE"
	CodeInvalidVersion  Code = "INVALID_VERSION"
	CodeInvalidConfig   Code = "INVALID_CONFIG"

	CodeIO Code = "IO_ERROR"
)

// Error 携带错误码、可读信息以及可选的底层原因。
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 返回底层原因，兼容 errors.Is/As。
func (e *Error) Unwrap() error {
	return e.Cause
}

// New 创建带错误码的新错误。
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap 用错误码包装已有错误。
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is 判断错误链中最外层的 *Error 是否携带指定错误码。
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode 提取错误码，非 *Error 时返回空字符串。
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage 返回面向用户的信息，不带错误码前缀。
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
