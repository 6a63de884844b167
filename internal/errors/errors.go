package errors

import (
	"errors"
	"fmt"
)

// AppError 业务错误类型
// Code 会原样写入应答 JSON 的 error 字段
type AppError struct {
	Code    int    // 错误码
	Message string // 错误描述
	Err     error  // 原始错误（可选，用于日志）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误码
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，nil 返回 CodeSuccess，非 AppError 返回 CodeRPCFailed
func GetCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeRPCFailed
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义（与客户端约定，不可随意修改） ==============

const (
	CodeSuccess      = 0
	CodeErrorJSON    = 1001 // 请求 JSON 解析失败
	CodeRPCFailed    = 1002 // 跨节点 RPC 失败
	CodeTokenInvalid = 1010 // token 不匹配或不存在
	CodeUidInvalid   = 1011 // uid 非法或用户不存在
)

// ============== 预定义错误 ==============

var (
	ErrJSON         = NewError(CodeErrorJSON, "请求格式错误")
	ErrRPCFailed    = NewError(CodeRPCFailed, "RPC 调用失败")
	ErrTokenInvalid = NewError(CodeTokenInvalid, "Token 无效")
	ErrUidInvalid   = NewError(CodeUidInvalid, "用户不存在或 uid 非法")
)
